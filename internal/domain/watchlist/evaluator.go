package watchlist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// Evaluate reports whether every condition of the rule holds for the event.
// It is pure: trigger bookkeeping is the caller's job via RecordTrigger.
// An inactive rule never matches, and an empty condition list fails closed
// so a rule cannot fire unconditionally by omission.
func Evaluate(rule *AlertRule, e event.PatentEvent) bool {
	if rule == nil || !rule.Active {
		return false
	}
	if len(rule.Conditions) == 0 {
		return false
	}
	for _, c := range rule.Conditions {
		if !evaluateCondition(c, e) {
			return false
		}
	}
	return true
}

// evaluateCondition applies one operator.  Unknown fields and non-numeric
// operands for numeric operators fail the condition rather than raising.
func evaluateCondition(c RuleCondition, e event.PatentEvent) bool {
	raw, ok := e.Field(c.Field)
	if !ok {
		return false
	}

	switch c.Operator {
	case mtypes.OperatorEquals:
		return foldEqual(stringify(raw), c.Value, c.CaseSensitive)

	case mtypes.OperatorContains:
		return foldContains(stringify(raw), c.Value, c.CaseSensitive)

	case mtypes.OperatorGreaterThan:
		fv, tv, ok := numericPair(raw, c.Value)
		return ok && fv > tv

	case mtypes.OperatorLessThan:
		fv, tv, ok := numericPair(raw, c.Value)
		return ok && fv < tv

	case mtypes.OperatorInRange:
		low, high, ok := parseRange(c.Value)
		if !ok {
			return false
		}
		fv, ok := toFloat(raw)
		return ok && fv >= low && fv <= high

	case mtypes.OperatorRegex:
		pattern := c.Value
		if !c.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(stringify(raw))

	default:
		return false
	}
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func foldEqual(a, b string, caseSensitive bool) bool {
	if caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

func foldContains(haystack, needle string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(haystack, needle)
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func numericPair(field interface{}, value string) (float64, float64, bool) {
	fv, ok := toFloat(field)
	if !ok {
		return 0, 0, false
	}
	tv, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, 0, false
	}
	return fv, tv, true
}

// parseRange reads an inclusive "[low, high]" range; bare "low,high" is
// accepted too.
func parseRange(s string) (float64, float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	if low > high {
		low, high = high, low
	}
	return low, high, true
}
