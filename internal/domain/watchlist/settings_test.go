package watchlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

func TestQuietHours_Contains_SimpleWindow(t *testing.T) {
	q := QuietHours{Start: "09:00", End: "17:00"}

	assert.True(t, q.Contains(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)))
	assert.True(t, q.Contains(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)))
	assert.False(t, q.Contains(time.Date(2025, 5, 1, 17, 0, 0, 0, time.UTC)))
	assert.False(t, q.Contains(time.Date(2025, 5, 1, 3, 0, 0, 0, time.UTC)))
}

func TestQuietHours_Contains_WrapsMidnight(t *testing.T) {
	q := QuietHours{Start: "22:00", End: "06:00"}

	assert.True(t, q.Contains(time.Date(2025, 5, 1, 23, 0, 0, 0, time.UTC)))
	assert.True(t, q.Contains(time.Date(2025, 5, 1, 2, 30, 0, 0, time.UTC)))
	assert.False(t, q.Contains(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)))
	assert.False(t, q.Contains(time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC)))
}

func TestQuietHours_Contains_Timezone(t *testing.T) {
	q := QuietHours{Start: "22:00", End: "06:00", Timezone: "America/New_York"}

	// 03:00 UTC is 22:00 or 23:00 in New York depending on DST; either way
	// inside the window.
	assert.True(t, q.Contains(time.Date(2025, 5, 1, 3, 0, 0, 0, time.UTC)))
	// 16:00 UTC is late morning/noon in New York.
	assert.False(t, q.Contains(time.Date(2025, 5, 1, 16, 0, 0, 0, time.UTC)))
}

func TestQuietHours_NextOpen(t *testing.T) {
	q := QuietHours{Start: "22:00", End: "06:00"}

	at := time.Date(2025, 5, 1, 23, 0, 0, 0, time.UTC)
	open := q.NextOpen(at)
	assert.Equal(t, time.Date(2025, 5, 2, 6, 0, 0, 0, time.UTC), open)

	// Already outside: unchanged.
	noon := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, noon, q.NextOpen(noon))
}

func TestQuietHours_NextOpen_BeforeDawn(t *testing.T) {
	q := QuietHours{Start: "22:00", End: "06:00"}
	at := time.Date(2025, 5, 1, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC), q.NextOpen(at))
}

func TestQuietHours_Validate(t *testing.T) {
	assert.NoError(t, QuietHours{Start: "22:00", End: "06:00"}.Validate())
	assert.Error(t, QuietHours{Start: "25:00", End: "06:00"}.Validate())
	assert.Error(t, QuietHours{Start: "22:00", End: "nope"}.Validate())
	assert.Error(t, QuietHours{Start: "22:00", End: "06:00", Timezone: "Moon/Base"}.Validate())
}

func TestAlertSettings_AllowsType(t *testing.T) {
	s := AlertSettings{}
	assert.True(t, s.AllowsType(mtypes.AlertNewPatent))

	s.AlertTypes = []mtypes.AlertType{mtypes.AlertLitigationFiled}
	assert.True(t, s.AllowsType(mtypes.AlertLitigationFiled))
	assert.False(t, s.AllowsType(mtypes.AlertNewPatent))
}

func TestAlertSettings_IsZero(t *testing.T) {
	assert.True(t, AlertSettings{}.IsZero())
	assert.False(t, DefaultAlertSettings().IsZero())
	assert.False(t, AlertSettings{AlertTypes: []mtypes.AlertType{mtypes.AlertNewPatent}}.IsZero())
	assert.False(t, AlertSettings{QuietHours: &QuietHours{Start: "22:00", End: "06:00"}}.IsZero())

	// Zero-valued settings fall back to the defaults at creation.
	w, err := NewWatchlist("zero", "user-1", FilterCriteria{}, AlertSettings{})
	assert.NoError(t, err)
	assert.Equal(t, DefaultAlertSettings(), w.Settings)
}

func TestAlertSettings_Validate(t *testing.T) {
	ok := DefaultAlertSettings()
	assert.NoError(t, ok.Validate())

	bad := DefaultAlertSettings()
	bad.SeverityThreshold = "urgent"
	assert.Error(t, bad.Validate())

	bad = DefaultAlertSettings()
	bad.MaxAlertsPerDay = -1
	assert.Error(t, bad.Validate())

	bad = DefaultAlertSettings()
	bad.AlertTypes = []mtypes.AlertType{"mystery"}
	assert.Error(t, bad.Validate())
}
