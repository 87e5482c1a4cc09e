package watchlist

import (
	"fmt"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// QuietHours is a daily window during which notification delivery is
// deferred.  Start and End are minutes-of-day in the configured timezone;
// a window may wrap midnight (Start > End, e.g. 22:00-06:00).
type QuietHours struct {
	Start    string `json:"start"` // "HH:MM"
	End      string `json:"end"`   // "HH:MM"
	Timezone string `json:"timezone,omitempty"`
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return h*60 + m, nil
}

// Validate checks the window's clock values and timezone.
func (q QuietHours) Validate() error {
	if _, err := parseClock(q.Start); err != nil {
		return errors.Validation(fmt.Sprintf("quiet hours start %q is not a valid HH:MM time", q.Start))
	}
	if _, err := parseClock(q.End); err != nil {
		return errors.Validation(fmt.Sprintf("quiet hours end %q is not a valid HH:MM time", q.End))
	}
	if q.Timezone != "" {
		if _, err := time.LoadLocation(q.Timezone); err != nil {
			return errors.Validation(fmt.Sprintf("quiet hours timezone %q is unknown", q.Timezone))
		}
	}
	return nil
}

// Contains reports whether t falls inside the window.  The window is
// evaluated in its configured timezone, defaulting to UTC.  Windows that
// wrap midnight are handled.
func (q QuietHours) Contains(t time.Time) bool {
	start, err := parseClock(q.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(q.End)
	if err != nil {
		return false
	}

	loc := time.UTC
	if q.Timezone != "" {
		if l, err := time.LoadLocation(q.Timezone); err == nil {
			loc = l
		}
	}
	local := t.In(loc)
	minute := local.Hour()*60 + local.Minute()

	if start == end {
		return false
	}
	if start < end {
		return minute >= start && minute < end
	}
	// Wraps midnight.
	return minute >= start || minute < end
}

// NextOpen returns the first instant at or after t that lies outside the
// window.  Returns t unchanged when t is already outside.
func (q QuietHours) NextOpen(t time.Time) time.Time {
	if !q.Contains(t) {
		return t
	}
	end, err := parseClock(q.End)
	if err != nil {
		return t
	}

	loc := time.UTC
	if q.Timezone != "" {
		if l, err := time.LoadLocation(q.Timezone); err == nil {
			loc = l
		}
	}
	local := t.In(loc)
	open := time.Date(local.Year(), local.Month(), local.Day(), end/60, end%60, 0, 0, loc)
	if !open.After(local) {
		open = open.AddDate(0, 0, 1)
	}
	return open
}

// AlertSettings is the delivery policy owned by a watchlist.
type AlertSettings struct {
	EmailEnabled   bool `json:"email_enabled"`
	PushEnabled    bool `json:"push_enabled"`
	WebhookEnabled bool `json:"webhook_enabled"`
	// WebhookURL is the target for the webhook channel when enabled.
	WebhookURL string `json:"webhook_url,omitempty"`

	Frequency mtypes.AlertFrequency `json:"frequency"`
	// AlertTypes is the allowed alert-type set; empty allows every type.
	AlertTypes        []mtypes.AlertType   `json:"alert_types,omitempty"`
	SeverityThreshold mtypes.AlertSeverity `json:"severity_threshold"`
	// MaxAlertsPerDay caps notifications over a rolling 24 hour window.
	// Zero means "use the engine default"; delivery is suppressed, not
	// queued, once the cap is reached.
	MaxAlertsPerDay int         `json:"max_alerts_per_day"`
	QuietHours      *QuietHours `json:"quiet_hours,omitempty"`
}

// IsZero reports whether no field of the settings has been set.  Such
// settings are replaced with DefaultAlertSettings at watchlist creation.
func (s AlertSettings) IsZero() bool {
	return !s.EmailEnabled && !s.PushEnabled && !s.WebhookEnabled &&
		s.WebhookURL == "" &&
		s.Frequency == "" &&
		len(s.AlertTypes) == 0 &&
		s.SeverityThreshold == "" &&
		s.MaxAlertsPerDay == 0 &&
		s.QuietHours == nil
}

// Validate checks enum fields and numeric bounds.
func (s AlertSettings) Validate() error {
	if !s.Frequency.IsValid() {
		return errors.Validation(fmt.Sprintf("alert frequency %q is invalid", s.Frequency))
	}
	if !s.SeverityThreshold.IsValid() {
		return errors.Validation(fmt.Sprintf("severity threshold %q is invalid", s.SeverityThreshold))
	}
	for _, at := range s.AlertTypes {
		if !at.IsValid() {
			return errors.Validation(fmt.Sprintf("alert type %q is invalid", at))
		}
	}
	if s.MaxAlertsPerDay < 0 {
		return errors.Validation(fmt.Sprintf("max alerts per day must be >= 0, got %d", s.MaxAlertsPerDay))
	}
	if s.QuietHours != nil {
		if err := s.QuietHours.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AllowsType reports whether the alert type passes the allowed-type gate.
// An empty set allows everything.
func (s AlertSettings) AllowsType(t mtypes.AlertType) bool {
	if len(s.AlertTypes) == 0 {
		return true
	}
	for _, allowed := range s.AlertTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

// DefaultAlertSettings returns the policy applied when a watchlist is
// created without explicit settings: all channels off except email,
// realtime delivery, medium threshold.
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{
		EmailEnabled:      true,
		Frequency:         mtypes.FrequencyRealtime,
		SeverityThreshold: mtypes.SeverityMedium,
	}
}
