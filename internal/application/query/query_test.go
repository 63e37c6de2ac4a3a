package query_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/application/command"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/application/query"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog/catalogtest"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/gating"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/notification"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/recommendation"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/resolution"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/strategy"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/infrastructure/persistence/memory"
)

type env struct {
	catalog  *catalog.Catalog
	store    *memory.Store
	gating   *gating.Engine
	resolver *resolution.Resolver
	submit   *command.SubmitMissionHandler
	id       string
}

func newEnv(t *testing.T, profile catalog.ProfileID) *env {
	t.Helper()
	c := catalogtest.New()
	store := memory.NewStore()
	engine := gating.NewEngine(c)
	resolver := resolution.NewResolver(c, resolution.DefaultScoringPolicy(), resolution.DefaultFeedbackComposer())

	r, err := command.NewCreateStudentHandler(store, metrics.DefaultLabelPolicy(), nil).
		Handle(context.Background(), command.CreateStudentCommand{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	if profile.IsSet() {
		_, err = command.NewSelectProfileHandler(store, nil).
			Handle(context.Background(), command.SelectProfileCommand{StudentID: r.Student.ID, Profile: profile})
		require.NoError(t, err)
	}
	return &env{
		catalog:  c,
		store:    store,
		gating:   engine,
		resolver: resolver,
		submit:   command.NewSubmitMissionHandler(store, engine, resolver, command.SubmitMissionHandlerConfig{}),
		id:       r.Student.ID,
	}
}

func (e *env) play(t *testing.T, missions ...string) {
	t.Helper()
	for _, m := range missions {
		_, err := e.submit.Handle(context.Background(), command.SubmitMissionCommand{StudentID: e.id, MissionID: m, Choice: "a"})
		require.NoError(t, err)
	}
}

type mapCache struct {
	mu         sync.Mutex
	items      map[string][]byte
	hits, sets int
}

func newMapCache() *mapCache { return &mapCache{items: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.items[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *mapCache) Set(_ context.Context, key string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.sets++
	c.items[key] = b
	return nil
}

func TestGetStudent(t *testing.T) {
	e := newEnv(t, catalog.ProfileUnset)
	h := query.NewGetStudentHandler(e.store)

	s, err := h.Handle(context.Background(), query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	assert.Equal(t, -1, s.Profile)
	assert.Equal(t, "Choisis un profil", s.ProfileLabel)
	assert.Equal(t, 100, s.Cashflow)
	assert.Equal(t, "Prudent", s.LevelAI)

	p, err := h.Profile(context.Background(), query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	assert.Equal(t, -1, p.Profile)

	_, err = h.Handle(context.Background(), query.GetStudentQuery{StudentID: "missing"})
	assert.True(t, shared.IsNotFound(err))
	_, err = h.Handle(context.Background(), query.GetStudentQuery{})
	assert.True(t, shared.IsValidation(err))
}

func TestGetStage(t *testing.T) {
	e := newEnv(t, catalog.ProfileUnset)
	h := query.NewGetStageHandler(e.store, e.gating)
	st, err := h.Handle(context.Background(), query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	assert.Equal(t, string(gating.StageProfileSelection), st.Stage)

	e = newEnv(t, catalog.ProfilePortfolioManager)
	h = query.NewGetStageHandler(e.store, e.gating)
	st, err = h.Handle(context.Background(), query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	assert.Equal(t, string(gating.StageFundamentals), st.Stage)
	assert.Equal(t, catalogtest.ConceptRisk, st.CurrentConcept)

	e.play(t, catalogtest.M1, catalogtest.M2, catalogtest.M3)
	st, err = h.Handle(context.Background(), query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	assert.Equal(t, string(gating.StageSpecialized), st.Stage)
}

func TestProgress(t *testing.T) {
	e := newEnv(t, catalog.ProfilePortfolioManager)
	h := query.NewProgressHandler(e.store, e.gating)
	ctx := context.Background()
	e.play(t, catalogtest.M1)

	list, err := h.Concepts(ctx, query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, catalogtest.ConceptRisk, list[0].Concept)
	assert.Equal(t, 1, list[0].MissionsCompleted)
	assert.Equal(t, 3, list[0].TotalMissions)
	assert.Equal(t, []int{1, 2}, list[0].Profiles)
	assert.False(t, list[0].IsCompleted)

	levels, err := h.Levels(ctx, query.GetConceptLevelsQuery{StudentID: e.id, ConceptID: catalogtest.ConceptRisk})
	require.NoError(t, err)
	assert.Len(t, levels.ProgressByLevel, 2, "tiers without missions are omitted")
	assert.Equal(t, []catalog.Level{catalog.Intermediate}, levels.LockedLevels)
	assert.Equal(t, []gating.MissionState{
		{ID: catalogtest.M1, Completed: true},
		{ID: catalogtest.M2},
	}, levels.ProgressByLevel[catalog.Beginner])
	assert.True(t, levels.ProgressByLevel[catalog.Intermediate][0].Locked)

	_, err = h.Levels(ctx, query.GetConceptLevelsQuery{StudentID: e.id, ConceptID: "nope"})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Levels(ctx, query.GetConceptLevelsQuery{StudentID: e.id, ConceptID: catalogtest.ConceptBanking})
	assert.True(t, shared.IsNotFound(err), "concepts of other profiles are hidden")

	sum, err := h.Summary(ctx, query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.MissionsCompleted)
	beginner := sum.LevelProgress[catalog.Beginner]
	assert.Equal(t, 1, beginner.Completed)
	assert.Equal(t, 3, beginner.Total)
	assert.InDelta(t, 100.0/3, beginner.Percentage, 1e-9)
	assert.Equal(t, 0, sum.LevelProgress[catalog.Advanced].Total)
}

func TestProgress_UnsetProfileSeesNothing(t *testing.T) {
	e := newEnv(t, catalog.ProfileUnset)
	h := query.NewProgressHandler(e.store, e.gating)
	ctx := context.Background()

	list, err := h.Concepts(ctx, query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = h.Levels(ctx, query.GetConceptLevelsQuery{StudentID: e.id, ConceptID: catalogtest.ConceptRisk})
	assert.ErrorIs(t, err, shared.ErrProfileNotSelected)

	sum, err := h.Summary(ctx, query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	for _, l := range catalog.Levels {
		assert.Equal(t, query.LevelSummaryDTO{}, sum.LevelProgress[l], l.String())
	}
}

func TestNextMission(t *testing.T) {
	ctx := context.Background()

	e := newEnv(t, catalog.ProfileUnset)
	h := query.NewGetNextMissionHandler(e.store, e.gating, e.resolver)
	_, err := h.Handle(ctx, query.GetStudentQuery{StudentID: e.id})
	assert.ErrorIs(t, err, shared.ErrProfileNotSelected)

	e = newEnv(t, catalog.ProfilePortfolioManager)
	h = query.NewGetNextMissionHandler(e.store, e.gating, e.resolver)
	m, err := h.Handle(ctx, query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	assert.Equal(t, catalogtest.M1, m.ID)
	assert.Equal(t, "Risk", m.ConceptName)
	assert.Empty(t, m.ActiveEvents)
	assert.Equal(t, metrics.Vector{Stress: -2, Cashflow: 1}, m.EffectiveImpacts["a"])

	e.play(t, catalogtest.M1, catalogtest.M2, catalogtest.M3, catalogtest.L1)
	_, err = h.Handle(ctx, query.GetStudentQuery{StudentID: e.id})
	assert.ErrorIs(t, err, shared.ErrNoMissionAvailable)
	assert.True(t, shared.IsNotFound(err))
}

func TestCatalogQueries(t *testing.T) {
	h := query.NewCatalogHandler(catalogtest.New())

	assert.Len(t, h.Concepts(catalog.ProfileUnset), 4)
	visible := h.Concepts(catalog.ProfileInvestmentBanker)
	require.Len(t, visible, 1)
	assert.Equal(t, catalogtest.ConceptBanking, visible[0].ID)

	all, err := h.Missions(catalogtest.ConceptRisk, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	lvl := catalog.Intermediate
	inter, err := h.Missions(catalogtest.ConceptRisk, &lvl)
	require.NoError(t, err)
	require.Len(t, inter, 1)
	assert.Equal(t, catalogtest.M3, inter[0].ID)
	assert.Equal(t, []string{catalogtest.EventCrash, catalogtest.EventBoom}, inter[0].PossibleEvents)

	_, err = h.Mission("nope")
	assert.True(t, shared.IsNotFound(err))
	assert.Equal(t, "fixture", h.Fingerprint())
}

func TestSuggestBundle_CachesByVersion(t *testing.T) {
	e := newEnv(t, catalog.ProfilePortfolioManager)
	cache := newMapCache()
	rec := recommendation.NewEngine(e.gating, strategy.NewBuilder(e.gating, strategy.DefaultFeatureSpec()), recommendation.DefaultPolicy())
	h := query.NewSuggestBundleHandler(e.store, rec, e.catalog.Fingerprint(), cache, nil)
	ctx := context.Background()
	q := query.SuggestBundleQuery{StudentID: e.id, Goal: "preserve_liquidity", MaxBundle: 2}

	first, err := h.Handle(ctx, q)
	require.NoError(t, err)
	require.Len(t, first.Bundle.Missions, 2)
	assert.Equal(t, catalogtest.L1, first.Bundle.Missions[0].MissionID)

	again, err := h.Handle(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, cache.hits)

	e.play(t, catalogtest.L1)
	after, err := h.Handle(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits, "a new version misses the cache")
	assert.NotEqual(t, catalogtest.L1, after.Bundle.Missions[0].MissionID)

	_, err = h.Handle(ctx, query.SuggestBundleQuery{StudentID: e.id, Goal: "get_rich"})
	assert.ErrorIs(t, err, shared.ErrUnknownGoal)
	assert.True(t, shared.IsValidation(err))
}

func TestStrategicContext(t *testing.T) {
	e := newEnv(t, catalog.ProfilePortfolioManager)
	cache := newMapCache()
	h := query.NewStrategicContextHandler(e.store, strategy.NewBuilder(e.gating, strategy.DefaultFeatureSpec()), "fixture", cache, nil)

	c, err := h.Handle(context.Background(), query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	assert.Equal(t, strategy.StageColdStart, c.Stage)
	assert.Equal(t, 2, c.Concepts.Total)

	cached, err := h.Handle(context.Background(), query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	assert.Equal(t, c.Stage, cached.Stage)
	assert.Equal(t, 1, cache.hits)
}

func TestListNotifications(t *testing.T) {
	e := newEnv(t, catalog.ProfilePortfolioManager)
	repo := memory.NewNotificationStore()
	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID: "n1", StudentID: e.id, Type: notification.NotificationTypeConceptCompleted, Message: "done",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), n))

	h := query.NewListNotificationsHandler(e.store, repo)
	list, err := h.Handle(context.Background(), query.GetStudentQuery{StudentID: e.id})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Unread)
	require.Len(t, list.Notifications, 1)

	_, err = h.Handle(context.Background(), query.GetStudentQuery{StudentID: "missing"})
	assert.True(t, shared.IsNotFound(err))
}

func TestMetricHistory(t *testing.T) {
	e := newEnv(t, catalog.ProfilePortfolioManager)
	e.play(t, catalogtest.M1, catalogtest.L1)

	h := query.NewGetMetricHistoryHandler(e.store)
	page, err := h.Handle(context.Background(), query.GetMetricHistoryQuery{StudentID: e.id})
	require.NoError(t, err)
	require.Len(t, page.Points, 2)
	assert.Equal(t, catalogtest.M1, page.Points[0].MissionID)
	assert.Equal(t, 106, page.Points[1].Cashflow)

	_, err = h.Handle(context.Background(), query.GetMetricHistoryQuery{StudentID: "missing"})
	assert.True(t, shared.IsNotFound(err))
}
