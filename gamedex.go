// Package gamedex aggregates video game metadata from a catalog
// provider and a storefront provider into single enriched records:
// catalog facts paired with store prices, matched by title. Free-text
// queries are interpreted into structured filters using pattern
// extraction plus an optional text-generation backend.
package gamedex

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gamedex/gamedex/internal/aggregator"
	"github.com/gamedex/gamedex/internal/query"
	"github.com/gamedex/gamedex/internal/resolver"
	"github.com/gamedex/gamedex/internal/synonyms"
	"github.com/gamedex/gamedex/internal/vocab"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/logging"
)

// Gamedex is the aggregation pipeline: search, free-text query, and
// vocabulary management over the two providers.
type Gamedex interface {
	// Search runs a structured search. The filter is normalized and
	// validated; results are enriched from the storefront.
	Search(ctx context.Context, filter games.Filter, limit, page int) (games.Page, error)

	// Query interprets free text into a filter and searches with it.
	Query(ctx context.Context, text string, limit, page int) (Result, error)

	// Interpret parses free text into a filter without searching. The
	// second return holds terms nothing could resolve.
	Interpret(ctx context.Context, text string) (games.Filter, []string, error)

	// Resolve maps free-form terms to canonical vocabulary names.
	Resolve(ctx context.Context, terms []string, category games.Category) (resolved, unresolved []string)

	// LoadVocabulary loads the vocabulary cache from disk, refreshing
	// from the catalog when the cache is missing or empty.
	LoadVocabulary(ctx context.Context) error

	// RefreshVocabulary refetches the vocabulary from the catalog.
	RefreshVocabulary(ctx context.Context, force bool) error

	// VocabularyEntries returns the cached vocabulary for a category.
	VocabularyEntries(category games.Category) []games.VocabEntry

	// SaveCaches persists the on-disk caches.
	SaveCaches() error
}

// Result is an interpreted free-text search: the filter the text was
// understood as, the terms nothing could resolve, and the results.
type Result struct {
	Filter     games.Filter `json:"filter"`
	Unresolved []string     `json:"unresolved,omitempty"`
	Page       games.Page   `json:"page"`
}

// gamedex is the internal implementation of the Gamedex interface.
type gamedex struct {
	vocab       *vocab.Cache
	synonyms    *synonyms.Cache
	resolver    *resolver.Resolver
	interpreter *query.Interpreter
	aggregator  *aggregator.Aggregator
}

// New creates a Gamedex instance with the given options. A catalog and
// a storefront provider are required.
func New(opts ...Option) (Gamedex, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.catalog == nil {
		return nil, errors.NewValidationError("catalog", nil, "a catalog provider is required")
	}
	if cfg.storefront == nil {
		return nil, errors.NewValidationError("storefront", nil, "a storefront provider is required")
	}

	g := &gamedex{}

	g.vocab = cfg.vocab
	if g.vocab == nil {
		g.vocab = vocab.New(cfg.catalog, filepath.Join(cfg.cacheDir, "vocabulary.yaml"), cfg.maxPages)
	}

	g.synonyms = cfg.synonyms
	if g.synonyms == nil {
		g.synonyms = synonyms.New(filepath.Join(cfg.cacheDir, "synonyms.yaml"))
		if err := g.synonyms.Load(); err != nil {
			logging.Warn().Err(err).Msg("Starting with an empty synonym cache")
		}
	}

	g.resolver = resolver.New(g.vocab, g.synonyms, cfg.generator,
		resolver.WithCutoff(cfg.termCutoff),
		resolver.WithTimeout(cfg.generatorTimeout),
	)
	g.interpreter = query.New(cfg.generator, g.resolver,
		query.WithTimeout(cfg.generatorTimeout),
	)
	g.aggregator = aggregator.New(cfg.catalog, cfg.storefront,
		aggregator.WithTitleCutoff(cfg.titleCutoff),
		aggregator.WithConcurrency(cfg.concurrency),
	)
	return g, nil
}

// Search implements Gamedex.
func (g *gamedex) Search(ctx context.Context, filter games.Filter, limit, page int) (games.Page, error) {
	filter, err := games.NewFilter(filter)
	if err != nil {
		return games.Page{}, err
	}
	return g.aggregator.Aggregate(ctx, filter, limit, page)
}

// Query implements Gamedex.
func (g *gamedex) Query(ctx context.Context, text string, limit, page int) (Result, error) {
	filter, unresolved, err := g.Interpret(ctx, text)
	if err != nil {
		return Result{}, err
	}

	resultPage, err := g.aggregator.Aggregate(ctx, filter, limit, page)
	if err != nil {
		return Result{}, err
	}
	return Result{Filter: filter, Unresolved: unresolved, Page: resultPage}, nil
}

// Interpret implements Gamedex.
func (g *gamedex) Interpret(ctx context.Context, text string) (games.Filter, []string, error) {
	filter, leftovers, err := g.interpreter.Parse(ctx, text)
	if err != nil {
		return games.Filter{}, nil, err
	}

	// Terms nothing could resolve still contribute as free-text search.
	if !leftovers.Empty() {
		terms := append([]string{filter.Query}, leftovers.Terms()...)
		filter.Query = strings.TrimSpace(strings.Join(terms, " "))
	}
	return filter, leftovers.Terms(), nil
}

// Resolve implements Gamedex.
func (g *gamedex) Resolve(ctx context.Context, terms []string, category games.Category) ([]string, []string) {
	return g.resolver.Resolve(ctx, terms, category)
}

// LoadVocabulary implements Gamedex.
func (g *gamedex) LoadVocabulary(ctx context.Context) error {
	return g.vocab.Load(ctx)
}

// RefreshVocabulary implements Gamedex.
func (g *gamedex) RefreshVocabulary(ctx context.Context, force bool) error {
	return g.vocab.Refresh(ctx, force)
}

// VocabularyEntries implements Gamedex.
func (g *gamedex) VocabularyEntries(category games.Category) []games.VocabEntry {
	return g.vocab.Entries(category)
}

// SaveCaches implements Gamedex. The synonym cache persists on every
// write, so only the vocabulary needs an explicit save.
func (g *gamedex) SaveCaches() error {
	return g.vocab.Save()
}
