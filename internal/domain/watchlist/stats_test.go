package watchlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

func TestStats_RecordAlert_IncrementsByExactlyOne(t *testing.T) {
	s := NewStats(0)
	now := time.Now().UTC()

	for i := int64(1); i <= 5; i++ {
		s.RecordAlert(mtypes.AlertNewPatent, "", now)
		assert.Equal(t, i, s.TotalAlerts)
	}
}

func TestStats_PerTypeCounters(t *testing.T) {
	s := NewStats(0)
	now := time.Now().UTC()

	s.RecordAlert(mtypes.AlertNewPatent, "", now)
	s.RecordAlert(mtypes.AlertNewPatent, "", now)
	s.RecordAlert(mtypes.AlertLitigationFiled, "", now)

	assert.Equal(t, int64(2), s.ByType[mtypes.AlertNewPatent])
	assert.Equal(t, int64(1), s.ByType[mtypes.AlertLitigationFiled])
}

func TestStats_RollingWindowEviction(t *testing.T) {
	s := NewStats(0)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	s.RecordAlert(mtypes.AlertNewPatent, "", base)
	s.RecordAlert(mtypes.AlertNewPatent, "", base.AddDate(0, 0, 10))
	assert.Equal(t, int64(2), s.AlertsLast30Days)

	// 40 days after the first alert: only the 10-day and new entries remain.
	s.RecordAlert(mtypes.AlertNewPatent, "", base.AddDate(0, 0, 40))
	assert.Equal(t, int64(1+1), s.AlertsLast30Days)
	// Total is monotonic regardless of eviction.
	assert.Equal(t, int64(3), s.TotalAlerts)
}

func TestStats_DistinctPatents(t *testing.T) {
	s := NewStats(0)
	now := time.Now().UTC()

	s.RecordAlert(mtypes.AlertNewPatent, "pat-1", now)
	s.RecordAlert(mtypes.AlertCitationReceived, "pat-1", now)
	s.RecordAlert(mtypes.AlertNewPatent, "pat-2", now)
	s.RecordAlert(mtypes.AlertTechnologyTrend, "", now)

	assert.Equal(t, int64(2), s.PatentsMonitored)
}

func TestStats_LastAlertTimestamp(t *testing.T) {
	s := NewStats(0)
	first := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	s.RecordAlert(mtypes.AlertNewPatent, "", first)
	s.RecordAlert(mtypes.AlertNewPatent, "", second)

	assert.Equal(t, second, *s.LastAlertAt)
	assert.Equal(t, first, *s.FirstAlertAt)
}

func TestStats_AvgAlertsPerDay(t *testing.T) {
	s := NewStats(0)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	s.RecordAlert(mtypes.AlertNewPatent, "", base)
	// One alert on day one: average clamps the divisor to one day.
	assert.Equal(t, 1.0, s.AvgAlertsPerDay)

	s.RecordAlert(mtypes.AlertNewPatent, "", base.AddDate(0, 0, 4))
	assert.InDelta(t, 0.5, s.AvgAlertsPerDay, 0.001)
}
