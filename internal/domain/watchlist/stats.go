package watchlist

import (
	"time"

	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// rollingWindow is the span of the trailing alert counter.
const rollingWindow = 30 * 24 * time.Hour

// Stats carries the rolling derived metrics of a watchlist.  Every field is
// maintained incrementally by RecordAlert; nothing here is recomputed from
// the alert store on read.
type Stats struct {
	TotalAlerts      int64                      `json:"total_alerts"`
	AlertsLast30Days int64                      `json:"alerts_last_30_days"`
	ByType           map[mtypes.AlertType]int64 `json:"by_type,omitempty"`
	AvgAlertsPerDay  float64                    `json:"avg_alerts_per_day"`
	LastAlertAt      *time.Time                 `json:"last_alert_at,omitempty"`
	PatentsMonitored int64                      `json:"patents_monitored"`
	// CompetitorsTracked mirrors the competitor set on the filter criteria.
	CompetitorsTracked int `json:"competitors_tracked"`

	// RecentAlertTimes holds the creation times inside the rolling window,
	// oldest first.  Persisted so the 30-day counter survives restarts.
	RecentAlertTimes []time.Time `json:"recent_alert_times,omitempty"`
	// SeenPatents holds the distinct patent ids that produced alerts.
	SeenPatents map[string]struct{} `json:"-"`
	// FirstAlertAt anchors the average-per-day calculation.
	FirstAlertAt *time.Time `json:"first_alert_at,omitempty"`
}

// NewStats returns zeroed statistics for a freshly created watchlist.
func NewStats(competitorsTracked int) Stats {
	return Stats{
		ByType:             make(map[mtypes.AlertType]int64),
		SeenPatents:        make(map[string]struct{}),
		CompetitorsTracked: competitorsTracked,
	}
}

// RecordAlert folds one created alert into the statistics.  now is the
// alert's creation time; patentID may be empty for alerts not tied to a
// specific patent (e.g. technology trends).
func (s *Stats) RecordAlert(alertType mtypes.AlertType, patentID string, now time.Time) {
	s.TotalAlerts++

	if s.ByType == nil {
		s.ByType = make(map[mtypes.AlertType]int64)
	}
	s.ByType[alertType]++

	// Evict entries that fell out of the rolling window, then admit the
	// new one.
	cutoff := now.Add(-rollingWindow)
	kept := s.RecentAlertTimes[:0]
	for _, ts := range s.RecentAlertTimes {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	s.RecentAlertTimes = append(kept, now)
	s.AlertsLast30Days = int64(len(s.RecentAlertTimes))

	if patentID != "" {
		if s.SeenPatents == nil {
			s.SeenPatents = make(map[string]struct{})
		}
		if _, seen := s.SeenPatents[patentID]; !seen {
			s.SeenPatents[patentID] = struct{}{}
			s.PatentsMonitored++
		}
	}

	t := now
	s.LastAlertAt = &t
	if s.FirstAlertAt == nil {
		first := now
		s.FirstAlertAt = &first
	}

	days := now.Sub(*s.FirstAlertAt).Hours() / 24
	if days < 1 {
		days = 1
	}
	s.AvgAlertsPerDay = float64(s.TotalAlerts) / days
}
