package watchlist

import (
	"fmt"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// RuleCondition is one field/operator/value triple.  Conditions within a
// rule are ANDed.
type RuleCondition struct {
	Field    string                   `json:"field"`
	Operator mtypes.ConditionOperator `json:"operator"`
	Value    string                   `json:"value"`
	// CaseSensitive applies to equals/contains/regex; default insensitive.
	CaseSensitive bool `json:"case_sensitive,omitempty"`
}

// Validate checks the condition's shape.
func (c RuleCondition) Validate() error {
	if c.Field == "" {
		return errors.Validation("rule condition field must not be empty")
	}
	if !c.Operator.IsValid() {
		return errors.New(errors.ErrCodeRuleOperatorInvalid,
			fmt.Sprintf("rule condition operator %q is not supported", c.Operator))
	}
	return nil
}

// RuleAction is one side effect triggered when a rule matches.
type RuleAction struct {
	Type mtypes.ActionType `json:"type"`
	// Target is the action destination: an email address, webhook URL,
	// Slack channel, or task queue name depending on Type.
	Target string            `json:"target,omitempty"`
	Config map[string]string `json:"config,omitempty"`
}

// Validate checks the action's shape.
func (a RuleAction) Validate() error {
	if !a.Type.IsValid() {
		return errors.New(errors.ErrCodeRuleActionUnsupported,
			fmt.Sprintf("rule action type %q is not supported", a.Type))
	}
	return nil
}

// AlertRule is an optional fine-grained trigger layered on top of a
// watchlist's base filters.  Rules evaluate only after the filter matcher
// accepts an event, and only while Active.
type AlertRule struct {
	common.BaseEntity
	WatchlistID common.ID       `json:"watchlist_id"`
	Name        string          `json:"name"`
	Active      bool            `json:"active"`
	Conditions  []RuleCondition `json:"conditions"`
	Actions     []RuleAction    `json:"actions,omitempty"`

	TriggerCount    int64      `json:"trigger_count"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
}

// NewAlertRule creates an AlertRule, enforcing construction invariants:
//   - name must be non-empty;
//   - the condition list must be non-empty (an empty list would otherwise
//     never match, making the rule dead weight at write time);
//   - every condition and action must validate.
func NewAlertRule(watchlistID common.ID, name string, conditions []RuleCondition, actions []RuleAction) (*AlertRule, error) {
	if name == "" {
		return nil, errors.Validation("rule name must not be empty")
	}
	if watchlistID == "" {
		return nil, errors.Validation("rule watchlist id must not be empty")
	}
	if len(conditions) == 0 {
		return nil, errors.New(errors.ErrCodeRuleConditionsEmpty,
			"rule must declare at least one condition")
	}
	for _, c := range conditions {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	for _, a := range actions {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	return &AlertRule{
		BaseEntity: common.BaseEntity{
			ID:        common.NewID(),
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
		WatchlistID: watchlistID,
		Name:        name,
		Active:      true,
		Conditions:  conditions,
		Actions:     actions,
	}, nil
}

// RecordTrigger increments the trigger counter and stamps the trigger time.
// Action dispatch failures never roll this back.
func (r *AlertRule) RecordTrigger(now time.Time) {
	r.TriggerCount++
	t := now
	r.LastTriggeredAt = &t
	r.touch(now)
}

// SetActive toggles the rule; inactive rules never evaluate.
func (r *AlertRule) SetActive(active bool) {
	if r.Active == active {
		return
	}
	r.Active = active
	r.touch(time.Now().UTC())
}

// ReplaceConditions swaps the condition list, enforcing the same invariants
// as construction.
func (r *AlertRule) ReplaceConditions(conditions []RuleCondition) error {
	if len(conditions) == 0 {
		return errors.New(errors.ErrCodeRuleConditionsEmpty,
			"rule must declare at least one condition")
	}
	for _, c := range conditions {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	r.Conditions = conditions
	r.touch(time.Now().UTC())
	return nil
}

// ReplaceActions swaps the action list.
func (r *AlertRule) ReplaceActions(actions []RuleAction) error {
	for _, a := range actions {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	r.Actions = actions
	r.touch(time.Now().UTC())
	return nil
}

func (r *AlertRule) touch(now time.Time) {
	r.UpdatedAt = now
	r.Version++
}
