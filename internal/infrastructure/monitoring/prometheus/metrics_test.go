package prometheus

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

func TestCollector_CountsAndGauges(t *testing.T) {
	c := NewCollector()

	c.AlertCreated(mtypes.AlertNewPatent, mtypes.SeverityHigh)
	c.AlertCreated(mtypes.AlertNewPatent, mtypes.SeverityHigh)
	c.AlertCreated(mtypes.AlertLitigationFiled, mtypes.SeverityCritical)
	c.DispatchOutcome(monitoring.OutcomeDelivered)
	c.SetActiveSchedulers(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(
		c.alertsCreated.WithLabelValues("new_patent", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		c.alertsCreated.WithLabelValues("litigation_filed", "critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		c.dispatchOutcomes.WithLabelValues("delivered")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.activeSchedulers))
}

func TestCollector_PollResultLabel(t *testing.T) {
	c := NewCollector()

	c.ObservePoll("wl-1", 40*time.Millisecond, nil)
	c.ObservePoll("wl-1", time.Second, errors.TransientSource("down", nil))

	// One histogram child per result label.
	assert.Equal(t, 2, testutil.CollectAndCount(
		c.pollDuration, "sentinel_poll_duration_seconds"))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `sentinel_poll_duration_seconds_count{result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `sentinel_poll_duration_seconds_count{result="error"} 1`)
}

func TestCollector_HandlerServesExposition(t *testing.T) {
	c := NewCollector()
	c.SetActiveSchedulers(1)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "sentinel_active_schedulers 1")
}
