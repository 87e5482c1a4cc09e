package watchlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

func TestNewCompetitorProfile_Valid(t *testing.T) {
	c, err := NewCompetitorProfile("Globex Corporation", []string{"Globex", "Globex Corp."}, mtypes.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, "Globex Corporation", c.Name)
	assert.Equal(t, []string{"Globex", "Globex Corp."}, c.Aliases)
	assert.Equal(t, mtypes.PriorityHigh, c.Priority)
	assert.True(t, c.Tracking.NewFilings)
}

func TestNewCompetitorProfile_DefaultPriority(t *testing.T) {
	c, err := NewCompetitorProfile("Initech", nil, "")
	require.NoError(t, err)
	assert.Equal(t, mtypes.PriorityMedium, c.Priority)
}

func TestNewCompetitorProfile_EmptyNameRejected(t *testing.T) {
	_, err := NewCompetitorProfile("  ", nil, mtypes.PriorityLow)
	assert.Error(t, err)
}

func TestNewCompetitorProfile_DeduplicatesAliases(t *testing.T) {
	c, err := NewCompetitorProfile("Acme", []string{"ACME", "Acme Inc", "acme inc", "", "  "}, "")
	require.NoError(t, err)
	// Alias equal to the primary name and duplicates collapse away.
	assert.Equal(t, []string{"Acme Inc"}, c.Aliases)
}

func TestDirectory_Expand(t *testing.T) {
	acme, err := NewCompetitorProfile("Acme Corporation", []string{"Acme Semi"}, "")
	require.NoError(t, err)
	d := NewDirectory([]*CompetitorProfile{acme})

	names := d.Expand("acme corporation")
	assert.Contains(t, names, "Acme Corporation")
	assert.Contains(t, names, "Acme Semi")

	// Alias lookups resolve to the full name set too.
	assert.Equal(t, names, d.Expand("ACME SEMI"))
}

func TestDirectory_Expand_Unknown(t *testing.T) {
	d := NewDirectory(nil)
	assert.Equal(t, []string{"Unknown Org"}, d.Expand("Unknown Org"))
}
