package watchlist

import (
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// TrackingSettings toggles which activity kinds of a competitor the engine
// watches.
type TrackingSettings struct {
	NewFilings bool `json:"new_filings"`
	Grants     bool `json:"grants"`
	Litigation bool `json:"litigation"`
	Licensing  bool `json:"licensing"`
}

// CompetitorProfile is a tracked organization referenced by filter criteria.
// Its name and aliases feed case-insensitive applicant matching.
type CompetitorProfile struct {
	common.BaseEntity
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	// PortfolioSize is the organisation's known patent count, informational.
	PortfolioSize int                  `json:"portfolio_size,omitempty"`
	Tracking      TrackingSettings     `json:"tracking"`
	Priority      mtypes.PriorityLevel `json:"priority"`
}

// NewCompetitorProfile creates a profile.  Aliases are trimmed and
// deduplicated against the primary name.
func NewCompetitorProfile(name string, aliases []string, priority mtypes.PriorityLevel) (*CompetitorProfile, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.Validation("competitor name must not be empty")
	}
	if priority == "" {
		priority = mtypes.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, errors.Validation("competitor priority level " + string(priority) + " is invalid")
	}

	cleaned := make([]string, 0, len(aliases))
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" || strings.EqualFold(a, name) {
			continue
		}
		dup := false
		for _, seen := range cleaned {
			if strings.EqualFold(seen, a) {
				dup = true
				break
			}
		}
		if !dup {
			cleaned = append(cleaned, a)
		}
	}

	now := time.Now().UTC()
	return &CompetitorProfile{
		BaseEntity: common.BaseEntity{
			ID:        common.NewID(),
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
		Name:     strings.TrimSpace(name),
		Aliases:  cleaned,
		Priority: priority,
		Tracking: TrackingSettings{NewFilings: true, Grants: true},
	}, nil
}

// KnownNames returns the primary name plus aliases.
func (c *CompetitorProfile) KnownNames() []string {
	names := make([]string, 0, len(c.Aliases)+1)
	names = append(names, c.Name)
	names = append(names, c.Aliases...)
	return names
}

// Directory is an in-memory AliasDirectory built from a snapshot of
// competitor profiles.  Lookups are case-insensitive on the primary name
// and on aliases.
type Directory struct {
	byName map[string][]string
}

// NewDirectory indexes the given profiles.
func NewDirectory(profiles []*CompetitorProfile) *Directory {
	d := &Directory{byName: make(map[string][]string, len(profiles))}
	for _, p := range profiles {
		names := p.KnownNames()
		for _, n := range names {
			d.byName[strings.ToLower(n)] = names
		}
	}
	return d
}

// Expand returns every name the given competitor is known by.  Names with no
// registered profile expand to themselves.
func (d *Directory) Expand(name string) []string {
	if names, ok := d.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return names
	}
	return []string{name}
}
