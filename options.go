package gamedex

import (
	"time"

	"github.com/gamedex/gamedex/internal/aggregator"
	"github.com/gamedex/gamedex/internal/providers"
	"github.com/gamedex/gamedex/internal/resolver"
	"github.com/gamedex/gamedex/internal/synonyms"
	"github.com/gamedex/gamedex/internal/textgen"
	"github.com/gamedex/gamedex/internal/vocab"
)

// Option is a function that configures a Gamedex instance.
type Option func(*config) error

// config holds the assembled construction parameters.
type config struct {
	catalog    providers.Catalog
	storefront providers.Storefront
	generator  textgen.Generator
	vocab      *vocab.Cache
	synonyms   *synonyms.Cache

	cacheDir         string
	maxPages         int
	titleCutoff      float64
	termCutoff       float64
	concurrency      int
	generatorTimeout time.Duration
}

func defaultConfig() *config {
	return &config{
		cacheDir:         ".gamedex",
		maxPages:         vocab.DefaultMaxPages,
		titleCutoff:      aggregator.DefaultTitleCutoff,
		termCutoff:       resolver.DefaultTermCutoff,
		concurrency:      aggregator.DefaultConcurrency,
		generatorTimeout: resolver.DefaultTimeout,
	}
}

// WithCatalog sets the catalog provider. Required.
func WithCatalog(c providers.Catalog) Option {
	return func(cfg *config) error {
		cfg.catalog = c
		return nil
	}
}

// WithStorefront sets the storefront provider. Required.
func WithStorefront(s providers.Storefront) Option {
	return func(cfg *config) error {
		cfg.storefront = s
		return nil
	}
}

// WithGenerator sets the text-generation backend used for free-text
// extraction and term canonicalization. Without one, parsing degrades
// to deterministic pattern matching.
func WithGenerator(g textgen.Generator) Option {
	return func(cfg *config) error {
		cfg.generator = g
		return nil
	}
}

// WithCacheDir sets the directory for the on-disk caches.
func WithCacheDir(dir string) Option {
	return func(cfg *config) error {
		if dir != "" {
			cfg.cacheDir = dir
		}
		return nil
	}
}

// WithVocabularyCache substitutes a pre-built vocabulary cache.
func WithVocabularyCache(v *vocab.Cache) Option {
	return func(cfg *config) error {
		cfg.vocab = v
		return nil
	}
}

// WithSynonymCache substitutes a pre-built synonym cache.
func WithSynonymCache(s *synonyms.Cache) Option {
	return func(cfg *config) error {
		cfg.synonyms = s
		return nil
	}
}

// WithMaxVocabularyPages bounds a full vocabulary fetch.
func WithMaxVocabularyPages(n int) Option {
	return func(cfg *config) error {
		if n > 0 {
			cfg.maxPages = n
		}
		return nil
	}
}

// WithTitleCutoff sets the minimum similarity for pairing catalog and
// storefront records by title.
func WithTitleCutoff(cutoff float64) Option {
	return func(cfg *config) error {
		if cutoff > 0 {
			cfg.titleCutoff = cutoff
		}
		return nil
	}
}

// WithTermCutoff sets the minimum similarity for resolving free-form
// terms against the vocabulary.
func WithTermCutoff(cutoff float64) Option {
	return func(cfg *config) error {
		if cutoff > 0 {
			cfg.termCutoff = cutoff
		}
		return nil
	}
}

// WithEnrichConcurrency caps simultaneous storefront lookups.
func WithEnrichConcurrency(n int) Option {
	return func(cfg *config) error {
		if n > 0 {
			cfg.concurrency = n
		}
		return nil
	}
}

// WithGeneratorTimeout bounds each text-generation call.
func WithGeneratorTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		if d > 0 {
			cfg.generatorTimeout = d
		}
		return nil
	}
}
