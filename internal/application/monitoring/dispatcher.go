package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// Outcome is the dispatcher's verdict for one alert.
type Outcome string

const (
	// OutcomeDelivered means at least one channel accepted the alert.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeSuppressedType means the alert type is outside the allowed set.
	OutcomeSuppressedType Outcome = "suppressed_type"
	// OutcomeSuppressedSeverity means the alert fell below the threshold.
	OutcomeSuppressedSeverity Outcome = "suppressed_severity"
	// OutcomeSuppressedCap means the rolling 24h delivery cap was reached.
	// The alert stays stored; only the notification is dropped.
	OutcomeSuppressedCap Outcome = "suppressed_cap"
	// OutcomeDeferred means quiet hours are in effect; delivery retries once
	// the window closes.
	OutcomeDeferred Outcome = "deferred"
	// OutcomeDigested means the alert joined the next scheduled digest.
	OutcomeDigested Outcome = "digested"
	// OutcomeNoChannel means every channel toggle on the settings is off.
	OutcomeNoChannel Outcome = "no_channel"
)

// Delivery is the unit handed to a notification channel: a single alert for
// realtime frequency, or a batch when Digest is set.
type Delivery struct {
	WatchlistID   common.ID
	WatchlistName string
	Channel       mtypes.ChannelType
	// Target overrides the channel's default destination (webhook URL,
	// rule-action email address).
	Target    string
	Alerts    []*alert.Alert
	Digest    bool
	Frequency mtypes.AlertFrequency
}

// Channel delivers notifications to one external medium.
type Channel interface {
	Type() mtypes.ChannelType
	Send(ctx context.Context, d Delivery) error
}

// DeliveryLedger counts notifications per watchlist over a rolling window.
// The redis implementation survives restarts; the in-memory one serves
// single-process deployments and tests.
type DeliveryLedger interface {
	Record(ctx context.Context, watchlistID common.ID, at time.Time) error
	CountSince(ctx context.Context, watchlistID common.ID, since time.Time) (int, error)
}

type deferredDelivery struct {
	alert         *alert.Alert
	settings      watchlist.AlertSettings
	watchlistName string
	dueAt         time.Time
}

type digestBuffer struct {
	alerts        []*alert.Alert
	settings      watchlist.AlertSettings
	watchlistName string
	dueAt         time.Time
}

// Dispatcher applies the delivery policy and fans alerts out to channels.
// Gate order: allowed type, severity threshold, quiet hours (defer) or digest
// frequency (batch), rolling 24h cap (suppress).  Channel failures are
// logged and never surfaced to the alert pipeline.
type Dispatcher struct {
	channels        map[mtypes.ChannelType]Channel
	ledger          DeliveryLedger
	clock           common.Clock
	logger          logging.Logger
	metrics         Metrics
	defaultDailyCap int

	mu       sync.Mutex
	deferred []deferredDelivery
	digests  map[common.ID]*digestBuffer

	cancel context.CancelFunc
	done   chan struct{}
}

// NewDispatcher builds a Dispatcher over the given channels.  defaultDailyCap
// applies to watchlists whose settings leave MaxAlertsPerDay at zero; a
// non-positive default disables the cap for them.
func NewDispatcher(channels []Channel, ledger DeliveryLedger, clock common.Clock,
	logger logging.Logger, metrics Metrics, defaultDailyCap int) *Dispatcher {
	byType := make(map[mtypes.ChannelType]Channel, len(channels))
	for _, ch := range channels {
		byType[ch.Type()] = ch
	}
	if clock == nil {
		clock = common.SystemClock()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Dispatcher{
		channels:        byType,
		ledger:          ledger,
		clock:           clock,
		logger:          logger.Named("dispatcher"),
		metrics:         metrics,
		defaultDailyCap: defaultDailyCap,
		digests:         make(map[common.ID]*digestBuffer),
	}
}

// Dispatch gates and delivers one alert.  It never returns an error: every
// failure mode is a logged outcome, and alert persistence is unaffected.
func (d *Dispatcher) Dispatch(ctx context.Context, a *alert.Alert, settings watchlist.AlertSettings) Outcome {
	outcome := d.dispatch(ctx, a, settings)
	d.metrics.DispatchOutcome(outcome)
	return outcome
}

func (d *Dispatcher) dispatch(ctx context.Context, a *alert.Alert, settings watchlist.AlertSettings) Outcome {
	if !settings.AllowsType(a.Type) {
		return OutcomeSuppressedType
	}
	if !a.Severity.AtLeast(settings.SeverityThreshold) {
		return OutcomeSuppressedSeverity
	}

	now := d.clock.Now()

	if settings.Frequency.IsDigest() {
		d.buffer(a, settings, now)
		return OutcomeDigested
	}

	if settings.QuietHours != nil && settings.QuietHours.Contains(now) {
		d.mu.Lock()
		d.deferred = append(d.deferred, deferredDelivery{
			alert:         a,
			settings:      settings,
			watchlistName: a.WatchlistName,
			dueAt:         settings.QuietHours.NextOpen(now),
		})
		d.mu.Unlock()
		d.logger.Info("delivery deferred to end of quiet hours",
			logging.String("alert_id", string(a.ID)),
			logging.String("watchlist_id", string(a.WatchlistID)))
		return OutcomeDeferred
	}

	if !d.underCap(ctx, a.WatchlistID, settings, now) {
		d.logger.Warn("delivery suppressed by daily cap",
			logging.String("watchlist_id", string(a.WatchlistID)),
			logging.Int("cap", d.capFor(settings)))
		return OutcomeSuppressedCap
	}

	return d.deliver(ctx, Delivery{
		WatchlistID:   a.WatchlistID,
		WatchlistName: a.WatchlistName,
		Alerts:        []*alert.Alert{a},
		Frequency:     settings.Frequency,
	}, settings, now)
}

// DispatchActions runs a triggered rule's action list.  Actions address
// channels directly and bypass the policy gates; failures are logged and do
// not affect rule bookkeeping.
func (d *Dispatcher) DispatchActions(ctx context.Context, actions []watchlist.RuleAction, a *alert.Alert) {
	for _, act := range actions {
		var chType mtypes.ChannelType
		switch act.Type {
		case mtypes.ActionSendEmail:
			chType = mtypes.ChannelEmail
		case mtypes.ActionWebhook:
			chType = mtypes.ChannelWebhook
		case mtypes.ActionPostSlack:
			chType = mtypes.ChannelSlack
		case mtypes.ActionCreateAlert:
			// The pipeline already created the alert.
			continue
		default:
			d.logger.Debug("rule action has no delivery channel",
				logging.String("action", string(act.Type)))
			continue
		}
		ch, ok := d.channels[chType]
		if !ok {
			d.logger.Warn("rule action channel not configured",
				logging.String("channel", string(chType)))
			continue
		}
		if err := ch.Send(ctx, Delivery{
			WatchlistID:   a.WatchlistID,
			WatchlistName: a.WatchlistName,
			Channel:       chType,
			Target:        act.Target,
			Alerts:        []*alert.Alert{a},
		}); err != nil {
			d.logger.Error("rule action delivery failed",
				logging.String("channel", string(chType)),
				logging.Err(err))
		}
	}
}

// FlushDue delivers deferred alerts whose quiet-hours window has closed and
// digests whose cadence has elapsed, as of now.  The background loop calls
// it on a timer; tests call it directly.
func (d *Dispatcher) FlushDue(ctx context.Context, now time.Time) {
	d.mu.Lock()
	var due []deferredDelivery
	var still []deferredDelivery
	for _, dd := range d.deferred {
		if dd.dueAt.After(now) {
			still = append(still, dd)
		} else {
			due = append(due, dd)
		}
	}
	d.deferred = still

	var digests []*digestBuffer
	var digestIDs []common.ID
	for id, buf := range d.digests {
		if !buf.dueAt.After(now) {
			digests = append(digests, buf)
			digestIDs = append(digestIDs, id)
		}
	}
	for _, id := range digestIDs {
		delete(d.digests, id)
	}
	d.mu.Unlock()

	for _, dd := range due {
		a := dd.alert
		if !d.underCap(ctx, a.WatchlistID, dd.settings, now) {
			d.metrics.DispatchOutcome(OutcomeSuppressedCap)
			continue
		}
		outcome := d.deliver(ctx, Delivery{
			WatchlistID:   a.WatchlistID,
			WatchlistName: dd.watchlistName,
			Alerts:        []*alert.Alert{a},
			Frequency:     dd.settings.Frequency,
		}, dd.settings, now)
		d.metrics.DispatchOutcome(outcome)
	}

	for _, buf := range digests {
		wid := buf.alerts[0].WatchlistID
		if !d.underCap(ctx, wid, buf.settings, now) {
			d.metrics.DispatchOutcome(OutcomeSuppressedCap)
			continue
		}
		outcome := d.deliver(ctx, Delivery{
			WatchlistID:   wid,
			WatchlistName: buf.watchlistName,
			Alerts:        buf.alerts,
			Digest:        true,
			Frequency:     buf.settings.Frequency,
		}, buf.settings, now)
		d.metrics.DispatchOutcome(outcome)
	}
}

// Start launches the background flush loop.  interval controls how often
// deferred and digest queues are checked.
func (d *Dispatcher) Start(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.FlushDue(ctx, d.clock.Now())
			}
		}
	}()
}

// Stop halts the flush loop and waits for it to exit.
func (d *Dispatcher) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
	d.cancel = nil
}

func (d *Dispatcher) buffer(a *alert.Alert, settings watchlist.AlertSettings, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.digests[a.WatchlistID]
	if !ok {
		buf = &digestBuffer{
			settings:      settings,
			watchlistName: a.WatchlistName,
			dueAt:         nextDigest(now, settings.Frequency),
		}
		d.digests[a.WatchlistID] = buf
	}
	buf.alerts = append(buf.alerts, a)
	buf.settings = settings
}

func nextDigest(now time.Time, f mtypes.AlertFrequency) time.Time {
	switch f {
	case mtypes.FrequencyWeekly:
		return now.AddDate(0, 0, 7)
	case mtypes.FrequencyMonthly:
		return now.AddDate(0, 1, 0)
	default:
		return now.Add(24 * time.Hour)
	}
}

func (d *Dispatcher) capFor(settings watchlist.AlertSettings) int {
	if settings.MaxAlertsPerDay > 0 {
		return settings.MaxAlertsPerDay
	}
	return d.defaultDailyCap
}

// underCap checks the rolling 24 hour counter.  Ledger read failures fail
// open: a broken ledger must not silence notifications.
func (d *Dispatcher) underCap(ctx context.Context, watchlistID common.ID, settings watchlist.AlertSettings, now time.Time) bool {
	limit := d.capFor(settings)
	if limit <= 0 || d.ledger == nil {
		return true
	}
	count, err := d.ledger.CountSince(ctx, watchlistID, now.Add(-24*time.Hour))
	if err != nil {
		d.logger.Error("delivery ledger read failed", logging.Err(err))
		return true
	}
	return count < limit
}

// deliver fans one Delivery out to every enabled channel and records it in
// the ledger.  A delivery counts against the cap even when a channel errors.
func (d *Dispatcher) deliver(ctx context.Context, base Delivery, settings watchlist.AlertSettings, now time.Time) Outcome {
	type target struct {
		ch     mtypes.ChannelType
		target string
	}
	var targets []target
	if settings.EmailEnabled {
		targets = append(targets, target{ch: mtypes.ChannelEmail})
	}
	if settings.PushEnabled {
		targets = append(targets, target{ch: mtypes.ChannelPush})
	}
	if settings.WebhookEnabled {
		targets = append(targets, target{ch: mtypes.ChannelWebhook, target: settings.WebhookURL})
	}
	if len(targets) == 0 {
		return OutcomeNoChannel
	}

	if d.ledger != nil {
		if err := d.ledger.Record(ctx, base.WatchlistID, now); err != nil {
			d.logger.Error("delivery ledger write failed", logging.Err(err))
		}
	}

	for _, t := range targets {
		ch, ok := d.channels[t.ch]
		if !ok {
			d.logger.Warn("channel not configured", logging.String("channel", string(t.ch)))
			continue
		}
		dl := base
		dl.Channel = t.ch
		dl.Target = t.target
		if err := ch.Send(ctx, dl); err != nil {
			d.logger.Error("notification delivery failed",
				logging.String("channel", string(t.ch)),
				logging.String("watchlist_id", string(base.WatchlistID)),
				logging.Err(err))
		}
	}
	return OutcomeDelivered
}
