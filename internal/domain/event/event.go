// Package event defines the patent event consumed by the monitoring engine
// and the contract of the external source that produces it.  Events are
// read-only inputs: the engine never mutates or persists them, it only
// matches them against watchlist criteria.
package event

import (
	"context"
	"strings"
	"time"

	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// Kind classifies the registry occurrence an event describes.
type Kind string

const (
	KindFiling      Kind = "filing"
	KindPublication Kind = "publication"
	KindGrant       Kind = "grant"
	KindExpiry      Kind = "expiry"
	KindCitation    Kind = "citation"
	KindLitigation  Kind = "litigation"
	KindAssignment  Kind = "assignment"
	KindMarket      Kind = "market"
	KindLicensing   Kind = "licensing"
	KindTrend       Kind = "trend"
)

// IsValid checks if the Kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindFiling, KindPublication, KindGrant, KindExpiry, KindCitation,
		KindLitigation, KindAssignment, KindMarket, KindLicensing, KindTrend:
		return true
	default:
		return false
	}
}

// AlertType maps the event kind to the alert type recorded on generated
// alerts.  Filings by a tracked competitor are refined to competitor_filing
// by the alert factory; this mapping covers the base case.
func (k Kind) AlertType() mtypes.AlertType {
	switch k {
	case KindFiling, KindPublication:
		return mtypes.AlertNewPatent
	case KindGrant:
		return mtypes.AlertPatentGranted
	case KindExpiry:
		return mtypes.AlertPatentExpired
	case KindCitation:
		return mtypes.AlertCitationReceived
	case KindLitigation:
		return mtypes.AlertLitigationFiled
	case KindAssignment:
		return mtypes.AlertPortfolioChange
	case KindMarket:
		return mtypes.AlertMarketMovement
	case KindLicensing:
		return mtypes.AlertLicensingOpportunity
	case KindTrend:
		return mtypes.AlertTechnologyTrend
	default:
		return mtypes.AlertNewPatent
	}
}

// PatentEvent is one occurrence reported by the external event source.  It
// carries every field the filter matcher and rule evaluator can reference.
type PatentEvent struct {
	ID           string   `json:"id"`
	Kind         Kind     `json:"kind"`
	PatentID     string   `json:"patent_id"`
	PatentNumber string   `json:"patent_number"`
	Title        string   `json:"title"`
	Abstract     string   `json:"abstract"`
	Applicants   []string `json:"applicants,omitempty"`
	Inventors    []string `json:"inventors,omitempty"`
	// Classifications holds IPC/CPC codes, matched by prefix.
	Classifications []string `json:"classifications,omitempty"`
	Jurisdiction    string   `json:"jurisdiction"`
	Status          string   `json:"status"`
	ClaimCount      int      `json:"claim_count"`
	CitationCount   int      `json:"citation_count"`
	// Technologies holds free-form technology-area tags.
	Technologies []string `json:"technologies,omitempty"`

	FilingDate      *time.Time `json:"filing_date,omitempty"`
	PriorityDate    *time.Time `json:"priority_date,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	GrantDate       *time.Time `json:"grant_date,omitempty"`

	// SimilarityScore is an upstream relevance estimate in [0, 1], zero when
	// the source does not compute one.
	SimilarityScore float64 `json:"similarity_score,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// Text returns the searchable text of the event: title and abstract joined.
// Keyword and exclude-keyword matching run against this.
func (e PatentEvent) Text() string {
	if e.Abstract == "" {
		return e.Title
	}
	return e.Title + "\n" + e.Abstract
}

// Field resolves a rule-condition field name to its value.  The second return
// is false when the name is unknown, which fails the condition rather than
// raising.  Names follow the snake_case wire form used in rule definitions.
func (e PatentEvent) Field(name string) (interface{}, bool) {
	switch strings.ToLower(name) {
	case "title":
		return e.Title, true
	case "abstract":
		return e.Abstract, true
	case "patent_id":
		return e.PatentID, true
	case "patent_number":
		return e.PatentNumber, true
	case "jurisdiction":
		return e.Jurisdiction, true
	case "status":
		return e.Status, true
	case "kind":
		return string(e.Kind), true
	case "claim_count":
		return e.ClaimCount, true
	case "citation_count":
		return e.CitationCount, true
	case "similarity_score":
		return e.SimilarityScore, true
	case "applicant":
		if len(e.Applicants) == 0 {
			return "", true
		}
		return e.Applicants[0], true
	case "applicants":
		return strings.Join(e.Applicants, ", "), true
	case "inventors":
		return strings.Join(e.Inventors, ", "), true
	case "technologies", "technology":
		return strings.Join(e.Technologies, ", "), true
	case "classifications":
		return strings.Join(e.Classifications, ", "), true
	default:
		return nil, false
	}
}

// EffectiveDate returns the date field selected by a criteria date-range
// filter.  Falls back to OccurredAt when the selected field is unset.
func (e PatentEvent) EffectiveDate(field DateField) time.Time {
	var d *time.Time
	switch field {
	case DateFiled:
		d = e.FilingDate
	case DatePriority:
		d = e.PriorityDate
	case DateGranted:
		d = e.GrantDate
	default:
		d = e.FilingDate
	}
	if d == nil {
		return e.OccurredAt
	}
	return *d
}

// DateField selects which event date a criteria date range applies to.
type DateField string

const (
	DateFiled    DateField = "filed"
	DatePriority DateField = "priority"
	DateGranted  DateField = "granted"
)

// Source is the external patent-event feed polled by watchlist schedulers.
// Implementations must honour ctx cancellation and deadline; a failed or
// timed-out poll is transient and is retried on the next scheduler tick.
type Source interface {
	// Poll returns events that occurred strictly after since, oldest first.
	Poll(ctx context.Context, since time.Time) ([]PatentEvent, error)
}
