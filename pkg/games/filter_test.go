package games

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedex/gamedex/pkg/errors"
)

func TestNewFilterValidation(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{
			name:   "empty filter is valid",
			filter: Filter{},
		},
		{
			name:   "equal min and max price",
			filter: Filter{MinPrice: Float64(15), MaxPrice: Float64(15)},
		},
		{
			name:   "zero price bounds",
			filter: Filter{MinPrice: Float64(0), MaxPrice: Float64(0)},
		},
		{
			name:    "negative min price",
			filter:  Filter{MinPrice: Float64(-1)},
			wantErr: true,
		},
		{
			name:    "negative max price",
			filter:  Filter{MaxPrice: Float64(-0.01)},
			wantErr: true,
		},
		{
			name:    "max below min",
			filter:  Filter{MinPrice: Float64(30), MaxPrice: Float64(20)},
			wantErr: true,
		},
		{
			name:    "unsupported currency",
			filter:  Filter{Currency: "GBP"},
			wantErr: true,
		},
		{
			name: "inverted date range",
			filter: Filter{
				ReleaseFrom: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				ReleaseTo:   time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFilter(tt.filter)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNormalizeTermLists(t *testing.T) {
	f, err := NewFilter(Filter{
		Genres:    []string{" RPG ", "rpg", "Action", "", "ACTION"},
		Platforms: []string{"PC"},
		Tags:      []string{"Multiplayer", "  "},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"rpg", "action"}, f.Genres)
	assert.Equal(t, []string{"pc"}, f.Platforms)
	assert.Equal(t, []string{"multiplayer"}, f.Tags)
}

func TestNormalizeDefaults(t *testing.T) {
	f, err := NewFilter(Filter{})
	require.NoError(t, err)

	assert.Equal(t, CurrencyUSD, f.Currency)
	assert.Equal(t, EpochDate, f.ReleaseFrom)
	assert.False(t, f.ReleaseTo.IsZero())
	assert.False(t, f.ReleaseTo.Before(f.ReleaseFrom))
}

func TestPriceBounds(t *testing.T) {
	f := Filter{MaxPrice: Float64(20)}
	min, max := f.PriceBounds()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 20.0, max)

	unbounded := Filter{}
	min, max = unbounded.PriceBounds()
	assert.Equal(t, 0.0, min)
	assert.Less(t, max, 0.0, "unset max should report unbounded")
}

func TestNewPageTotals(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		limit     int
		wantPages int
	}{
		{"exact division", 40, 20, 2},
		{"with remainder", 41, 20, 3},
		{"single partial page", 5, 20, 1},
		{"zero total", 0, 20, 1},
		{"zero limit collapses", 100, 0, 1},
		{"negative limit collapses", 100, -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(nil, tt.total, tt.limit, 1)
			assert.Equal(t, tt.wantPages, p.TotalPages)
		})
	}
}

func TestHasGenre(t *testing.T) {
	g := Game{Genres: []string{"Action", "Free To Play"}}
	assert.True(t, g.HasGenre("free to play"))
	assert.True(t, g.HasGenre("Action"))
	assert.False(t, g.HasGenre("Indie"))
}
