package monitoring

// AlertType classifies the patent event that produced an alert.
type AlertType string

const (
	AlertNewPatent            AlertType = "new_patent"
	AlertCompetitorFiling     AlertType = "competitor_filing"
	AlertTechnologyTrend      AlertType = "technology_trend"
	AlertCitationReceived     AlertType = "citation_received"
	AlertLitigationFiled      AlertType = "litigation_filed"
	AlertPatentGranted        AlertType = "patent_granted"
	AlertPatentExpired        AlertType = "patent_expired"
	AlertPortfolioChange      AlertType = "portfolio_change"
	AlertMarketMovement       AlertType = "market_movement"
	AlertLicensingOpportunity AlertType = "licensing_opportunity"
)

// IsValid checks if the AlertType is a known type.
func (t AlertType) IsValid() bool {
	switch t {
	case AlertNewPatent, AlertCompetitorFiling, AlertTechnologyTrend, AlertCitationReceived,
		AlertLitigationFiled, AlertPatentGranted, AlertPatentExpired, AlertPortfolioChange,
		AlertMarketMovement, AlertLicensingOpportunity:
		return true
	default:
		return false
	}
}

// AlertSeverity grades the urgency of an alert.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

var severityRank = map[AlertSeverity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// IsValid checks if the AlertSeverity is a known level.
func (s AlertSeverity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// Rank returns the ordering position of the severity, low to critical.
// Unknown severities rank below low.
func (s AlertSeverity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is equal to or more severe than threshold.
func (s AlertSeverity) AtLeast(threshold AlertSeverity) bool {
	return s.Rank() >= threshold.Rank()
}

// AlertFrequency controls how notifications fan out from a watchlist.
type AlertFrequency string

const (
	FrequencyRealtime AlertFrequency = "realtime"
	FrequencyDaily    AlertFrequency = "daily"
	FrequencyWeekly   AlertFrequency = "weekly"
	FrequencyMonthly  AlertFrequency = "monthly"
)

// IsValid checks if the AlertFrequency is a known value.
func (f AlertFrequency) IsValid() bool {
	switch f {
	case FrequencyRealtime, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// IsDigest reports whether the frequency batches alerts instead of
// delivering them one at a time.
func (f AlertFrequency) IsDigest() bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyMonthly
}

// ConditionOperator is the comparison applied by a rule condition.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
	OperatorInRange     ConditionOperator = "in_range"
	OperatorRegex       ConditionOperator = "regex"
)

// IsValid checks if the ConditionOperator is supported.
func (o ConditionOperator) IsValid() bool {
	switch o {
	case OperatorEquals, OperatorContains, OperatorGreaterThan, OperatorLessThan, OperatorInRange, OperatorRegex:
		return true
	default:
		return false
	}
}

// ActionType identifies what a matched rule triggers.
type ActionType string

const (
	ActionSendEmail   ActionType = "send_email"
	ActionCreateAlert ActionType = "create_alert"
	ActionPostSlack   ActionType = "post_slack"
	ActionWebhook     ActionType = "webhook"
	ActionCreateTask  ActionType = "create_task"
)

// IsValid checks if the ActionType is supported.
func (a ActionType) IsValid() bool {
	switch a {
	case ActionSendEmail, ActionCreateAlert, ActionPostSlack, ActionWebhook, ActionCreateTask:
		return true
	default:
		return false
	}
}

// ChannelType names a notification delivery channel.
type ChannelType string

const (
	ChannelEmail   ChannelType = "email"
	ChannelPush    ChannelType = "push"
	ChannelWebhook ChannelType = "webhook"
	ChannelSlack   ChannelType = "slack"
)

// IsValid checks if the ChannelType is supported.
func (c ChannelType) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelPush, ChannelWebhook, ChannelSlack:
		return true
	default:
		return false
	}
}

// PriorityLevel ranks how closely a competitor is tracked.
type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
)

// IsValid checks if the PriorityLevel is a known value.
func (p PriorityLevel) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// RiskLevel grades the business risk carried in alert metadata.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// TrendDirection describes how filing activity in a technology area is moving.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)
