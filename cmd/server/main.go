// Package main is the entry point of the ECOLead Finance progression service.
//
// The service exposes the progression core over HTTP: mission gating,
// choice resolution, metrics, strategy context and recommendations.
//
// Architecture follows Clean Architecture and DDD:
//   - Domain: pure game rules (catalog, gating, metrics, resolution, strategy)
//   - Application: commands and queries orchestrating the domain
//   - Infrastructure: PostgreSQL, Redis, event bus, Prometheus
//   - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	// Application layer
	"github.com/ChoraichiFadwa/ECOLead-Finance/config"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/application/command"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/application/eventhandler"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/application/query"

	// Domain layer
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/gating"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/notification"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/recommendation"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/resolution"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/strategy"

	// Infrastructure layer
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/infrastructure/catalogfile"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/infrastructure/messaging"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/infrastructure/observability"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/infrastructure/persistence/memory"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/infrastructure/persistence/postgres"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/ChoraichiFadwa/ECOLead-Finance/internal/interface/http"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/interface/http/handlers"

	// Packages
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/circuitbreaker"
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log, slogger := setupLogger(cfg)
	log.Info("starting ECOLead Finance",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Any("features", cfg.Features.Enabled()),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. CONTENT & POLICY
	// ─────────────────────────────────────────────────────────────────────────
	policy, err := config.LoadPolicy(cfg.Policy.File)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}

	content, err := catalogfile.Load(cfg.Catalog.File)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	for _, w := range content.Warnings() {
		log.Warn("catalog warning", logger.String("warning", w))
	}
	stats := content.Stats()
	log.Info("catalog loaded",
		logger.String("fingerprint", content.Fingerprint()),
		logger.Int("concepts", stats.Concepts),
		logger.Int("missions", stats.Missions),
		logger.Int("events", stats.Events),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. METRICS & HEALTH
	// ─────────────────────────────────────────────────────────────────────────
	var (
		prom           *observability.Metrics
		submitMetrics  command.SubmissionMetrics
		handlerMetrics messaging.HandlerObserver
		requestMetrics httpserver.RequestMetrics
		metricsHandler http.Handler
	)
	if cfg.Observability.MetricsEnabled {
		prom = observability.NewMetrics()
		prom.CatalogLoaded(content.Fingerprint(), stats)
		submitMetrics, handlerMetrics, requestMetrics = prom, prom, prom
		metricsHandler = prom.Handler()
	}

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.SetCatalog(content.Fingerprint())

	onBreakerChange := func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
		if prom != nil {
			prom.BreakerStateChanged(name, from, to)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. PROGRESSION STORE (PostgreSQL or in-memory)
	// ─────────────────────────────────────────────────────────────────────────
	var store progression.Store
	if cfg.Database.URL != "" {
		log.Info("connecting to database...")
		dbConn, err := postgres.NewConnection(ctx, postgres.Config{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		if cfg.Database.AutoMigrate {
			applied, err := postgres.NewMigrator(dbConn).Migrate(ctx)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("migrations completed", logger.Int("applied", applied))
		}

		store = postgres.NewProgressionStore(dbConn, log)
		health.AddCheck("database", handlers.NewPingCheck(dbConn))
		log.Info("database connection established")
	} else {
		log.Warn("DATABASE_URL not set, progression is kept in memory")
		store = memory.NewStore()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REDIS (optional): derived-read cache, notifications, event fan-out
	// ─────────────────────────────────────────────────────────────────────────
	var (
		readCache     query.ReadCache
		notifications notification.Repository = memory.NewNotificationStore()
		forwarder     *messaging.RedisForwarder
	)
	if cfg.Redis.URL != "" {
		log.Info("connecting to Redis...")
		client, err := redis.NewClient(ctx, redis.Config{URL: cfg.Redis.URL, PoolSize: cfg.Redis.PoolSize})
		if err != nil {
			log.Warn("failed to connect to Redis, falling back to in-process stores", logger.Err(err))
		} else {
			defer func() { _ = client.Close() }()

			if cfg.Features.DerivedCache {
				cache := redis.NewCache(client, cfg.Redis.CacheTTL, circuitbreaker.CacheBreaker(onBreakerChange))
				readCache = cache
				health.AddOptionalCheck("cache", handlers.NewPingCheck(cache))
			}
			notifications = redis.NewNotificationStore(client, circuitbreaker.NotificationStoreBreaker(onBreakerChange))
			if cfg.Features.EventForwarding {
				forwarder = messaging.NewRedisForwarder(client, cfg.Redis.EventsChannel, slogger)
			}
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	eventBus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      cfg.EventBus.Async,
		WorkerPoolSize: cfg.EventBus.Workers,
		Logger:         slogger,
		Observer:       handlerMetrics,
	})
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	if err := eventBus.SubscribeAll(eventhandler.NewAuditHandler(slogger).Handle); err != nil {
		return fmt.Errorf("failed to subscribe audit handler: %w", err)
	}
	if cfg.Features.Notifications {
		onCompleted := eventhandler.NewOnMissionCompletedHandler(notifications, nil, slogger)
		if err := eventBus.Subscribe(shared.EventMissionCompleted, onCompleted.Handle); err != nil {
			return fmt.Errorf("failed to subscribe notification handler: %w", err)
		}
	}
	if forwarder != nil {
		if err := eventBus.SubscribeAll(forwarder.Handle); err != nil {
			return fmt.Errorf("failed to subscribe event forwarder: %w", err)
		}
		log.Info("forwarding events", logger.String("channel", cfg.Redis.EventsChannel))
	} else if cfg.Features.EventForwarding {
		log.Warn("event forwarding enabled but Redis is unavailable")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. DOMAIN ENGINES
	// ─────────────────────────────────────────────────────────────────────────
	gatingEngine := gating.NewEngine(content)
	resolver := resolution.NewResolver(content, policy.Scoring, resolution.DefaultFeedbackComposer())
	builder := strategy.NewBuilder(gatingEngine, policy.Features)
	recommender := recommendation.NewEngine(gatingEngine, builder, policy.Recommendation)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	deps := httpserver.Dependencies{
		CreateStudent: command.NewCreateStudentHandler(store, policy.Labels, eventBus),
		SelectProfile: command.NewSelectProfileHandler(store, eventBus),
		SubmitMission: command.NewSubmitMissionHandler(store, gatingEngine, resolver, command.SubmitMissionHandlerConfig{
			Labels:    policy.Labels,
			Publisher: eventBus,
			Metrics:   submitMetrics,
			Logger:    log,
		}),

		GetStudent:       query.NewGetStudentHandler(store),
		GetStage:         query.NewGetStageHandler(store, gatingEngine),
		Progress:         query.NewProgressHandler(store, gatingEngine),
		Catalog:          query.NewCatalogHandler(content),
		NextMission:      query.NewGetNextMissionHandler(store, gatingEngine, resolver),
		MetricHistory:    query.NewGetMetricHistoryHandler(store),
		SuggestBundle:    query.NewSuggestBundleHandler(store, recommender, content.Fingerprint(), readCache, log),
		StrategicContext: query.NewStrategicContextHandler(store, builder, content.Fingerprint(), readCache, log),

		Logger:         log,
		HealthChecker:  health,
		Metrics:        requestMetrics,
		MetricsHandler: metricsHandler,
	}
	if cfg.Features.Notifications {
		deps.Notifications = query.NewListNotificationsHandler(store, notifications)
		deps.MarkNotificationRead = command.NewMarkNotificationReadHandler(notifications)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Addr = cfg.HTTP.Addr
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.AllowedOrigins = cfg.HTTP.CORSOrigins
	httpConfig.RateLimit = cfg.HTTP.RateLimit
	httpConfig.RateBurst = cfg.HTTP.RateBurst
	httpConfig.Version = cfg.App.Version

	httpServer := httpserver.NewServer(httpConfig, deps)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. RUN & GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to stop HTTP server gracefully", logger.Err(err))
			return err
		}
		return nil
	})

	log.Info("ECOLead Finance is running", logger.String("http_address", cfg.HTTP.Addr))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown completed with errors", logger.Err(err))
		return err
	}
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger builds the application logger and the slog logger used by the
// event bus and its handlers. Both honour LOG_LEVEL and LOG_FORMAT.
func setupLogger(cfg *config.Config) (*logger.Logger, *slog.Logger) {
	level := logger.ParseLevel(cfg.Observability.LogLevel)
	format := logger.Format(cfg.Observability.LogFormat)

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     level,
		Format:    format,
		AddCaller: !cfg.IsProduction(),
	}).With(logger.String("service", cfg.App.Name))

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if level == logger.LevelDebug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if format == logger.FormatJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slogger := slog.New(handler).With("service", cfg.App.Name)
	slog.SetDefault(slogger)

	return log, slogger
}
