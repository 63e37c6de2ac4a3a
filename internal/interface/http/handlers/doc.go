// Package handlers contains reusable HTTP building blocks: health checks,
// the per-client rate limiter and generic middleware.
//
// # Health Checks
//
// CompositeHealthChecker runs named checks in parallel, each under its own
// timeout:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewPingCheck(conn))
//	checker.AddCheck("cache", handlers.NewPingCheck(cache))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    log.Printf("health check failed: %s", status.Message)
//	}
//
// # Middleware
//
//	limiter := handlers.NewClientRateLimiter(20, 40)
//	handler := handlers.ChainHandler(
//	    mux,
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.RequestSizeLimitMiddleware(1<<20),
//	    limiter.Middleware,
//	)
package handlers
