// Package alert implements the PatentAlert entity: the immutable record of
// one monitoring match, its read-state transition, and the factory that
// derives alerts from patent events.
package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// Metadata carries the optional patent facts attached to an alert.
type Metadata struct {
	FilingDate      *time.Time        `json:"filing_date,omitempty"`
	PublicationDate *time.Time        `json:"publication_date,omitempty"`
	Inventors       []string          `json:"inventors,omitempty"`
	ClaimCount      int               `json:"claim_count,omitempty"`
	CitationCount   int               `json:"citation_count,omitempty"`
	SimilarityScore float64           `json:"similarity_score,omitempty"`
	RiskLevel       mtypes.RiskLevel  `json:"risk_level,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// Alert is one monitoring event result.  Immutable once created except for
// the read timestamp; it belongs to exactly one watchlist.
type Alert struct {
	common.BaseEntity
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Type        mtypes.AlertType     `json:"type"`
	Severity    mtypes.AlertSeverity `json:"severity"`

	PatentID     string `json:"patent_id,omitempty"`
	PatentNumber string `json:"patent_number,omitempty"`
	Applicant    string `json:"applicant,omitempty"`
	Technology   string `json:"technology,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`

	WatchlistID common.ID `json:"watchlist_id"`
	// WatchlistName is denormalized for display without a join.
	WatchlistName string `json:"watchlist_name"`

	ReadAt   *time.Time `json:"read_at,omitempty"`
	Metadata Metadata   `json:"metadata"`
}

// New creates an Alert, enforcing enum and ownership invariants.
func New(watchlistID common.ID, watchlistName, title, description string,
	alertType mtypes.AlertType, severity mtypes.AlertSeverity) (*Alert, error) {
	if watchlistID == "" {
		return nil, errors.Validation("alert watchlist id must not be empty")
	}
	if title == "" {
		return nil, errors.Validation("alert title must not be empty")
	}
	if !alertType.IsValid() {
		return nil, errors.New(errors.ErrCodeAlertInvalid,
			fmt.Sprintf("alert type %q is invalid", alertType))
	}
	if !severity.IsValid() {
		return nil, errors.New(errors.ErrCodeAlertInvalid,
			fmt.Sprintf("alert severity %q is invalid", severity))
	}

	now := time.Now().UTC()
	return &Alert{
		BaseEntity: common.BaseEntity{
			ID:        common.NewID(),
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
		Title:         title,
		Description:   description,
		Type:          alertType,
		Severity:      severity,
		WatchlistID:   watchlistID,
		WatchlistName: watchlistName,
	}, nil
}

// IsRead reports whether the alert has been acknowledged.
func (a *Alert) IsRead() bool { return a.ReadAt != nil }

// MarkRead stamps the read time.  Idempotent: an already-read alert keeps
// its original timestamp.
func (a *Alert) MarkRead(now time.Time) {
	if a.ReadAt != nil {
		return
	}
	t := now
	a.ReadAt = &t
	a.UpdatedAt = now
	a.Version++
}

// FromEvent derives an alert from a matched patent event, inferring the
// alert type from the event kind, refining filings by tracked competitors
// to competitor_filing, and grading severity deterministically.
func FromEvent(e event.PatentEvent, watchlistID common.ID, watchlistName string, competitorMatch bool) (*Alert, error) {
	alertType := e.Kind.AlertType()
	if competitorMatch && (e.Kind == event.KindFiling || e.Kind == event.KindPublication) {
		alertType = mtypes.AlertCompetitorFiling
	}

	severity := deriveSeverity(alertType, e)

	applicant := ""
	if len(e.Applicants) > 0 {
		applicant = e.Applicants[0]
	}
	technology := ""
	if len(e.Technologies) > 0 {
		technology = e.Technologies[0]
	}

	a, err := New(watchlistID, watchlistName,
		generateTitle(alertType, e, applicant, technology),
		generateDescription(alertType, e, applicant, technology),
		alertType, severity)
	if err != nil {
		return nil, err
	}

	a.PatentID = e.PatentID
	a.PatentNumber = e.PatentNumber
	a.Applicant = applicant
	a.Technology = technology
	a.Jurisdiction = e.Jurisdiction
	a.Metadata = Metadata{
		FilingDate:      e.FilingDate,
		PublicationDate: e.PublicationDate,
		Inventors:       e.Inventors,
		ClaimCount:      e.ClaimCount,
		CitationCount:   e.CitationCount,
		SimilarityScore: e.SimilarityScore,
		RiskLevel:       riskFor(severity),
	}
	return a, nil
}

// deriveSeverity grades an alert.  Litigation is always critical; competitor
// filings and heavily cited patents are high; close similarity matches are
// high; market and trend signals are low; everything else is medium.
func deriveSeverity(t mtypes.AlertType, e event.PatentEvent) mtypes.AlertSeverity {
	switch t {
	case mtypes.AlertLitigationFiled:
		return mtypes.SeverityCritical
	case mtypes.AlertCompetitorFiling:
		return mtypes.SeverityHigh
	case mtypes.AlertCitationReceived:
		if e.CitationCount >= 10 {
			return mtypes.SeverityHigh
		}
		return mtypes.SeverityMedium
	case mtypes.AlertMarketMovement, mtypes.AlertTechnologyTrend, mtypes.AlertLicensingOpportunity:
		return mtypes.SeverityLow
	default:
		if e.SimilarityScore >= 0.8 {
			return mtypes.SeverityHigh
		}
		return mtypes.SeverityMedium
	}
}

func riskFor(s mtypes.AlertSeverity) mtypes.RiskLevel {
	switch s {
	case mtypes.SeverityCritical, mtypes.SeverityHigh:
		return mtypes.RiskHigh
	case mtypes.SeverityMedium:
		return mtypes.RiskMedium
	default:
		return mtypes.RiskLow
	}
}

func generateTitle(t mtypes.AlertType, e event.PatentEvent, applicant, technology string) string {
	switch t {
	case mtypes.AlertNewPatent:
		return "New Patent Filed: " + e.Title
	case mtypes.AlertCompetitorFiling:
		return "Competitor Filing: " + orUnknown(applicant)
	case mtypes.AlertTechnologyTrend:
		return "Technology Trend: " + orUnknown(technology)
	case mtypes.AlertCitationReceived:
		return "Citation Received: " + orUnknown(e.PatentNumber)
	case mtypes.AlertLitigationFiled:
		return "Litigation Filed: " + orUnknown(e.PatentNumber)
	case mtypes.AlertPatentGranted:
		return "Patent Granted: " + orUnknown(e.PatentNumber)
	case mtypes.AlertPatentExpired:
		return "Patent Expired: " + orUnknown(e.PatentNumber)
	case mtypes.AlertPortfolioChange:
		return "Portfolio Change: " + orUnknown(applicant)
	case mtypes.AlertMarketMovement:
		return "Market Movement: " + orUnknown(technology)
	case mtypes.AlertLicensingOpportunity:
		return "Licensing Opportunity: " + orUnknown(e.PatentNumber)
	default:
		return e.Title
	}
}

func generateDescription(t mtypes.AlertType, e event.PatentEvent, applicant, technology string) string {
	var b strings.Builder
	switch t {
	case mtypes.AlertNewPatent:
		fmt.Fprintf(&b, "%s filed %q", orUnknown(applicant), e.Title)
	case mtypes.AlertCompetitorFiling:
		fmt.Fprintf(&b, "Tracked competitor %s filed %q", orUnknown(applicant), e.Title)
	case mtypes.AlertTechnologyTrend:
		fmt.Fprintf(&b, "Rising filing activity in %s", orUnknown(technology))
	case mtypes.AlertCitationReceived:
		fmt.Fprintf(&b, "Patent %s received a citation from %q", orUnknown(e.PatentNumber), e.Title)
	case mtypes.AlertLitigationFiled:
		fmt.Fprintf(&b, "Litigation involving patent %s", orUnknown(e.PatentNumber))
	case mtypes.AlertPatentGranted:
		fmt.Fprintf(&b, "Patent %s granted to %s", orUnknown(e.PatentNumber), orUnknown(applicant))
	case mtypes.AlertPatentExpired:
		fmt.Fprintf(&b, "Patent %s expired", orUnknown(e.PatentNumber))
	default:
		b.WriteString(e.Title)
	}
	if e.Jurisdiction != "" {
		fmt.Fprintf(&b, " [%s]", e.Jurisdiction)
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
