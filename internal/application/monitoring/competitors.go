package monitoring

import (
	"context"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// CreateCompetitorInput carries the fields of a competitor registration.
type CreateCompetitorInput struct {
	Name          string
	Aliases       []string
	Priority      mtypes.PriorityLevel
	PortfolioSize int
	Tracking      *watchlist.TrackingSettings
}

// CreateCompetitor registers a competitor profile for alias-based matching.
func (e *Engine) CreateCompetitor(ctx context.Context, input CreateCompetitorInput) (*watchlist.CompetitorProfile, error) {
	c, err := watchlist.NewCompetitorProfile(input.Name, input.Aliases, input.Priority)
	if err != nil {
		return nil, err
	}
	c.PortfolioSize = input.PortfolioSize
	if input.Tracking != nil {
		c.Tracking = *input.Tracking
	}
	if err := e.competitors.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCompetitorInput carries a partial competitor mutation; nil fields
// stay unchanged.
type UpdateCompetitorInput struct {
	ID            common.ID
	Name          *string
	Aliases       []string
	Priority      *mtypes.PriorityLevel
	PortfolioSize *int
	Tracking      *watchlist.TrackingSettings
}

// UpdateCompetitor merges a partial update.  The next poll batch picks up
// the refreshed aliases automatically, since the directory is rebuilt per
// batch.
func (e *Engine) UpdateCompetitor(ctx context.Context, input UpdateCompetitorInput) (*watchlist.CompetitorProfile, error) {
	c, err := e.competitors.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	name := c.Name
	if input.Name != nil {
		name = *input.Name
	}
	aliases := c.Aliases
	if input.Aliases != nil {
		aliases = input.Aliases
	}
	priority := c.Priority
	if input.Priority != nil {
		priority = *input.Priority
	}

	// Revalidate through the factory so alias hygiene rules hold.
	fresh, err := watchlist.NewCompetitorProfile(name, aliases, priority)
	if err != nil {
		return nil, err
	}
	c.Name = fresh.Name
	c.Aliases = fresh.Aliases
	c.Priority = fresh.Priority
	if input.PortfolioSize != nil {
		c.PortfolioSize = *input.PortfolioSize
	}
	if input.Tracking != nil {
		c.Tracking = *input.Tracking
	}
	c.UpdatedAt = e.clock.Now()
	c.Version++

	if err := e.competitors.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCompetitor loads one profile.
func (e *Engine) GetCompetitor(ctx context.Context, id common.ID) (*watchlist.CompetitorProfile, error) {
	return e.competitors.Get(ctx, id)
}

// ListCompetitors returns every registered profile.
func (e *Engine) ListCompetitors(ctx context.Context) ([]*watchlist.CompetitorProfile, error) {
	return e.competitors.List(ctx)
}

// DeleteCompetitor removes a profile.  Watchlists referencing the name fall
// back to exact-name matching.
func (e *Engine) DeleteCompetitor(ctx context.Context, id common.ID) error {
	return e.competitors.Delete(ctx, id)
}
