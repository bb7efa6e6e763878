// Package aggregator combines catalog search results with storefront
// detail records into single enriched games.
package aggregator

import (
	"context"
	"sync"

	"github.com/gamedex/gamedex/internal/fuzzy"
	"github.com/gamedex/gamedex/internal/providers"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/logging"
)

const (
	// DefaultTitleCutoff is the minimum similarity for pairing a catalog
	// record with a storefront record by title.
	DefaultTitleCutoff = 0.6
	// DefaultConcurrency bounds the storefront enrichment fan-out.
	DefaultConcurrency = 10

	freeToPlayGenre = "Free To Play"
)

// Aggregator runs the search-then-enrich pipeline: the catalog provides
// the result set, the storefront provides prices and store pages,
// matched by fuzzy title.
type Aggregator struct {
	catalog     providers.Catalog
	storefront  providers.Storefront
	titleCutoff float64
	concurrency int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTitleCutoff overrides the title-match similarity cutoff.
func WithTitleCutoff(cutoff float64) Option {
	return func(a *Aggregator) {
		if cutoff > 0 {
			a.titleCutoff = cutoff
		}
	}
}

// WithConcurrency overrides the enrichment fan-out bound.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// New creates an Aggregator over the two providers.
func New(catalog providers.Catalog, storefront providers.Storefront, opts ...Option) *Aggregator {
	a := &Aggregator{
		catalog:     catalog,
		storefront:  storefront,
		titleCutoff: DefaultTitleCutoff,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate searches the catalog for one page of results and enriches
// each record from the storefront. A catalog failure fails the whole
// call; a storefront failure only leaves that record un-enriched. Price
// bounds are applied after enrichment because only the storefront knows
// prices; records with no known price always pass.
func (a *Aggregator) Aggregate(ctx context.Context, filter games.Filter, limit, page int) (games.Page, error) {
	if limit <= 0 {
		limit = games.DefaultPageLimit
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	results, _, err := a.catalog.Search(ctx, filter, limit, offset)
	if err != nil {
		return games.Page{}, err
	}

	enriched := make([]games.Game, len(results))
	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			enriched[idx] = a.enrich(ctx, results[idx])
		}(i)
	}
	wg.Wait()

	minPrice, maxPrice := filter.PriceBounds()
	kept := make([]games.Game, 0, len(enriched))
	for _, g := range enriched {
		if g.Price != nil {
			if *g.Price < minPrice {
				continue
			}
			if maxPrice >= 0 && *g.Price > maxPrice {
				continue
			}
		}
		kept = append(kept, g)
	}

	// The reported total is the survivor count for this window; the
	// catalog's overall match count says nothing about how many records
	// clear the post-merge price filter.
	return games.NewPage(kept, len(kept), limit, page), nil
}

// enrich looks the game up in the storefront by title and merges the
// best match in. Any storefront failure returns the catalog record
// unchanged.
func (a *Aggregator) enrich(ctx context.Context, game games.Game) games.Game {
	target := fuzzy.NormalizeTitle(game.Name)
	if target == "" {
		return game
	}

	candidates, err := a.storefront.Search(ctx, target)
	if err != nil {
		logging.Warn().Err(err).Str("name", game.Name).Msg("Storefront lookup failed, serving catalog record")
		return game
	}
	if len(candidates) == 0 {
		return game
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = fuzzy.NormalizeTitle(c.Name)
	}
	idx, score, ok := fuzzy.BestMatch(target, names, a.titleCutoff)
	if !ok {
		logging.Debug().Str("name", game.Name).Msg("No storefront match above cutoff")
		return game
	}

	logging.Debug().
		Str("name", game.Name).
		Str("match", candidates[idx].Name).
		Float64("score", score).
		Msg("Enriching from storefront")
	return merge(game, candidates[idx])
}

// merge overlays the storefront record on the catalog record. The
// storefront is authoritative for commercial fields, so its non-empty
// values win; catalog values fill the gaps. Free games gain the
// Free To Play genre when the catalog did not list it.
func merge(base, store games.Game) games.Game {
	out := base

	if store.Name != "" {
		out.Name = store.Name
	}
	if store.Description != "" {
		out.Description = store.Description
	}
	if store.ReleaseDate != nil {
		out.ReleaseDate = store.ReleaseDate
	}
	if len(store.Developers) > 0 {
		out.Developers = store.Developers
	}
	if len(store.Publishers) > 0 {
		out.Publishers = store.Publishers
	}
	if len(store.Genres) > 0 {
		out.Genres = store.Genres
	}
	if len(store.Platforms) > 0 {
		out.Platforms = store.Platforms
	}
	if len(store.Screenshots) > 0 {
		out.Screenshots = store.Screenshots
	}
	if store.StoreURL != "" {
		out.StoreURL = store.StoreURL
	}
	if store.Price != nil {
		out.Price = store.Price
	}

	if out.Price != nil && *out.Price == 0 && !out.HasGenre(freeToPlayGenre) {
		out.Genres = append(out.Genres, freeToPlayGenre)
	}
	return out
}
