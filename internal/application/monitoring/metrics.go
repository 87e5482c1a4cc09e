package monitoring

import (
	"time"

	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// Metrics receives engine observations.  The prometheus collector implements
// it for production; NopMetrics serves tests.
type Metrics interface {
	ObservePoll(watchlistID common.ID, duration time.Duration, err error)
	AlertCreated(alertType mtypes.AlertType, severity mtypes.AlertSeverity)
	DispatchOutcome(outcome Outcome)
	SetActiveSchedulers(n int)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObservePoll(common.ID, time.Duration, error)         {}
func (NopMetrics) AlertCreated(mtypes.AlertType, mtypes.AlertSeverity) {}
func (NopMetrics) DispatchOutcome(Outcome)                             {}
func (NopMetrics) SetActiveSchedulers(int)                             {}
