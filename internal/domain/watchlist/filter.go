package watchlist

import (
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
)

// FilterCriteria is the matching predicate owned by a watchlist.  Empty criteria
// match every event: a watchlist with no filters monitors the full stream.
type FilterCriteria struct {
	// Keywords match case-insensitively as substrings of title/abstract;
	// OR logic within the set.
	Keywords []string `json:"keywords,omitempty"`
	// ExcludeKeywords veto an event outright; exclude always wins over every
	// other satisfied condition.
	ExcludeKeywords []string `json:"exclude_keywords,omitempty"`
	// Competitors match against event applicants, expanded through
	// competitor profile aliases.
	Competitors []string `json:"competitors,omitempty"`
	// Assignees match event applicants directly (no alias expansion).
	Assignees []string `json:"assignees,omitempty"`
	Inventors []string `json:"inventors,omitempty"`
	// Classifications are IPC/CPC code prefixes; an event code matches when
	// it starts with a listed code.
	Classifications []string `json:"classifications,omitempty"`
	Jurisdictions   []string `json:"jurisdictions,omitempty"`
	// Technologies match the event's technology-area tags.
	Technologies []string `json:"technologies,omitempty"`
	Statuses     []string `json:"statuses,omitempty"`

	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	// DateField selects which event date the range applies to.
	DateField event.DateField `json:"date_field,omitempty"`

	// MinClaims is a claim-count floor; zero disables the check.
	MinClaims int `json:"min_claims,omitempty"`
}

// IsEmpty reports whether no constraint is set.
func (c FilterCriteria) IsEmpty() bool {
	return len(c.Keywords) == 0 && len(c.ExcludeKeywords) == 0 &&
		len(c.Competitors) == 0 && len(c.Assignees) == 0 && len(c.Inventors) == 0 &&
		len(c.Classifications) == 0 && len(c.Jurisdictions) == 0 &&
		len(c.Technologies) == 0 && len(c.Statuses) == 0 &&
		c.DateFrom == nil && c.DateTo == nil && c.MinClaims == 0
}

// AliasDirectory expands a competitor name to the full set of names it is
// known by (the name itself plus registered aliases).  Implementations are
// backed by the competitor store; NopAliasDirectory serves watchlists that
// track no profiled competitors.
type AliasDirectory interface {
	Expand(name string) []string
}

// NopAliasDirectory performs no expansion.
type NopAliasDirectory struct{}

func (NopAliasDirectory) Expand(name string) []string { return []string{name} }

// Matcher evaluates filter criteria against patent events.  It is pure and
// safe for concurrent use.
type Matcher struct {
	aliases AliasDirectory
}

// NewMatcher builds a Matcher.  A nil directory disables alias expansion.
func NewMatcher(aliases AliasDirectory) *Matcher {
	if aliases == nil {
		aliases = NopAliasDirectory{}
	}
	return &Matcher{aliases: aliases}
}

// Matches reports whether the event satisfies the criteria.  Evaluation
// order: exclude keywords first (a hit vetoes everything), then each
// remaining active constraint ANDed together.
func (m *Matcher) Matches(c FilterCriteria, e event.PatentEvent) bool {
	text := strings.ToLower(e.Text())

	for _, kw := range c.ExcludeKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return false
		}
	}

	if len(c.Keywords) > 0 {
		hit := false
		for _, kw := range c.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	if len(c.Competitors) > 0 && !m.matchesCompetitor(c.Competitors, e.Applicants) {
		return false
	}

	if len(c.Assignees) > 0 && !intersectsFold(c.Assignees, e.Applicants) {
		return false
	}

	if len(c.Inventors) > 0 && !intersectsFold(c.Inventors, e.Inventors) {
		return false
	}

	if len(c.Classifications) > 0 && !matchesClassification(c.Classifications, e.Classifications) {
		return false
	}

	if len(c.Jurisdictions) > 0 && !containsFold(c.Jurisdictions, e.Jurisdiction) {
		return false
	}

	if len(c.Technologies) > 0 && !intersectsFold(c.Technologies, e.Technologies) {
		return false
	}

	if len(c.Statuses) > 0 && !containsFold(c.Statuses, e.Status) {
		return false
	}

	if c.DateFrom != nil || c.DateTo != nil {
		d := e.EffectiveDate(c.DateField)
		if c.DateFrom != nil && d.Before(*c.DateFrom) {
			return false
		}
		if c.DateTo != nil && d.After(*c.DateTo) {
			return false
		}
	}

	if c.MinClaims > 0 && e.ClaimCount < c.MinClaims {
		return false
	}

	return true
}

// CompetitorMatch reports whether any of the applicants is a tracked
// competitor (or a registered alias of one).  The alert factory uses this to
// refine new-patent alerts into competitor-filing alerts.
func (m *Matcher) CompetitorMatch(competitors, applicants []string) bool {
	return m.matchesCompetitor(competitors, applicants)
}

// matchesCompetitor checks whether any event applicant matches a tracked
// competitor name or one of its registered aliases, case-insensitively.
func (m *Matcher) matchesCompetitor(competitors, applicants []string) bool {
	for _, name := range competitors {
		for _, known := range m.aliases.Expand(name) {
			if containsFold(applicants, known) {
				return true
			}
		}
	}
	return false
}

// matchesClassification checks prefix membership: an event code matches a
// listed code when it begins with it (prefix length = listed code length).
func matchesClassification(listed, eventCodes []string) bool {
	for _, prefix := range listed {
		p := strings.ToUpper(strings.TrimSpace(prefix))
		if p == "" {
			continue
		}
		for _, code := range eventCodes {
			if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(code)), p) {
				return true
			}
		}
	}
	return false
}

// containsFold reports case-insensitive membership of v in set.
func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

// intersectsFold reports whether the two sets share any member,
// case-insensitively.
func intersectsFold(a, b []string) bool {
	for _, v := range a {
		if containsFold(b, v) {
			return true
		}
	}
	return false
}
