// Package games defines the domain types shared across the gamedex system:
// game records, structured filters, vocabulary entries, and response pages.
package games

import (
	"strings"
	"time"
)

// Game is a single game record. IDs are provider-scoped, so the same game
// carries different IDs from the catalog and the storefront. A Game is
// mutable while the aggregator enriches it and must be treated as frozen
// once it has been handed back to the caller.
type Game struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Developers  []string   `json:"developers,omitempty"`
	Publishers  []string   `json:"publishers,omitempty"`
	Genres      []string   `json:"genres,omitempty"`
	Platforms   []string   `json:"platforms,omitempty"`
	Screenshots []string   `json:"screenshots,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	StoreURL    string     `json:"store_url,omitempty"`
}

// HasGenre reports whether the record already lists the given genre,
// compared case-insensitively.
func (g *Game) HasGenre(name string) bool {
	for _, genre := range g.Genres {
		if strings.EqualFold(genre, name) {
			return true
		}
	}
	return false
}

// Float64 returns a pointer to v. Convenience for optional price fields.
func Float64(v float64) *float64 {
	return &v
}

// Date returns a pointer to a UTC date with zero clock time.
func Date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
