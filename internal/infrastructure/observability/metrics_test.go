package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/application/command"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/infrastructure/messaging"
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/circuitbreaker"
)

var (
	_ command.SubmissionMetrics  = (*Metrics)(nil)
	_ messaging.HandlerObserver = (*Metrics)(nil)
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.ObserveSubmission("committed", catalog.Intermediate, 14)
	m.ObserveSubmission("duplicate", catalog.Intermediate, 0)
	m.ObserveHandler("mission.completed", 3*time.Millisecond, false)
	m.ObserveHTTP(http.MethodGet, "/students/{id}", 200, time.Millisecond)
	m.BreakerStateChanged("redis-cache", circuitbreaker.StateClosed, circuitbreaker.StateOpen)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("committed", "intermediate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("duplicate", "intermediate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.handlerRuns.WithLabelValues("mission.completed", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/students/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.breakerState.WithLabelValues("redis-cache")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.CatalogLoaded("abc", catalog.Stats{Concepts: 2, Missions: 5, Events: 1})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ecolead_catalog_info{fingerprint="abc",kind="missions"} 5`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
