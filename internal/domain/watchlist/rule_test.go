package watchlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

func validCondition() RuleCondition {
	return RuleCondition{Field: "title", Operator: mtypes.OperatorContains, Value: "battery"}
}

func TestNewAlertRule_Valid(t *testing.T) {
	r, err := NewAlertRule("wl-1", "battery filings", []RuleCondition{validCondition()},
		[]RuleAction{{Type: mtypes.ActionSendEmail, Target: "ip@example.com"}})
	require.NoError(t, err)
	assert.True(t, r.Active)
	assert.Equal(t, int64(0), r.TriggerCount)
	assert.Nil(t, r.LastTriggeredAt)
}

func TestNewAlertRule_EmptyConditionsRejected(t *testing.T) {
	_, err := NewAlertRule("wl-1", "dead rule", nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRuleConditionsEmpty))
}

func TestNewAlertRule_InvalidOperatorRejected(t *testing.T) {
	_, err := NewAlertRule("wl-1", "r", []RuleCondition{
		{Field: "title", Operator: "matches", Value: "x"},
	}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRuleOperatorInvalid))
}

func TestNewAlertRule_InvalidActionRejected(t *testing.T) {
	_, err := NewAlertRule("wl-1", "r", []RuleCondition{validCondition()},
		[]RuleAction{{Type: "page_oncall"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRuleActionUnsupported))
}

func TestNewAlertRule_MissingNameOrWatchlist(t *testing.T) {
	_, err := NewAlertRule("wl-1", "", []RuleCondition{validCondition()}, nil)
	assert.Error(t, err)
	_, err = NewAlertRule("", "r", []RuleCondition{validCondition()}, nil)
	assert.Error(t, err)
}

func TestRecordTrigger(t *testing.T) {
	r, err := NewAlertRule("wl-1", "r", []RuleCondition{validCondition()}, nil)
	require.NoError(t, err)

	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	r.RecordTrigger(now)
	r.RecordTrigger(now.Add(time.Minute))

	assert.Equal(t, int64(2), r.TriggerCount)
	assert.Equal(t, now.Add(time.Minute), *r.LastTriggeredAt)
}

func TestReplaceConditions_RejectsEmpty(t *testing.T) {
	r, err := NewAlertRule("wl-1", "r", []RuleCondition{validCondition()}, nil)
	require.NoError(t, err)

	err = r.ReplaceConditions(nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRuleConditionsEmpty))
	assert.Len(t, r.Conditions, 1)
}

func TestSetActive_Idempotent(t *testing.T) {
	r, err := NewAlertRule("wl-1", "r", []RuleCondition{validCondition()}, nil)
	require.NoError(t, err)
	v := r.Version

	r.SetActive(true)
	assert.Equal(t, v, r.Version)

	r.SetActive(false)
	assert.False(t, r.Active)
	assert.Greater(t, r.Version, v)
}
