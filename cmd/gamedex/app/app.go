// Package app wires the gamedex CLI: configuration, logging, the
// provider clients, and the aggregation pipeline, assembled once and
// shared by every command.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/gamedex/gamedex"
	"github.com/gamedex/gamedex/internal/config"
	"github.com/gamedex/gamedex/internal/providers/catalog"
	"github.com/gamedex/gamedex/internal/providers/storefront"
	"github.com/gamedex/gamedex/internal/providers/transport"
	"github.com/gamedex/gamedex/internal/synonyms"
	"github.com/gamedex/gamedex/internal/textgen"
	"github.com/gamedex/gamedex/internal/vocab"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/logging"
)

// App holds the CLI's shared dependencies. The pipeline is built lazily
// so commands that only print configuration never touch the network.
type App struct {
	version string
	commit  string
	date    string

	configPath string
	config     *config.Config

	mu      sync.Mutex
	gamedex gamedex.Gamedex
}

// New creates the App. The .env file is a development convenience;
// absence is fine.
func New(version, commit, date string) (*App, error) {
	_ = godotenv.Load()

	return &App{
		version: version,
		commit:  commit,
		date:    date,
	}, nil
}

// Version returns the version string.
func (a *App) Version() string {
	return a.version
}

// Config returns the loaded configuration, loading it on first use.
func (a *App) Config() (*config.Config, error) {
	if a.config != nil {
		return a.config, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, &errors.ConfigError{Component: "config", Message: "failed to load configuration", Err: err}
	}
	a.config = cfg
	return cfg, nil
}

// Gamedex assembles the aggregation pipeline, once.
func (a *App) Gamedex() (gamedex.Gamedex, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gamedex != nil {
		return a.gamedex, nil
	}

	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.APIKey == "" {
		return nil, fmt.Errorf("catalog: %w (set RAWG_API_KEY)", errors.ErrAPIKeyRequired)
	}

	catalogClient := catalog.New(
		transport.New("catalog", cfg.Catalog.BaseURL, transport.WithAPIKey(cfg.Catalog.APIKey)),
		nil,
		catalog.WithPageSize(cfg.Catalog.PageSize),
	)
	storefrontClient := storefront.New(
		transport.New("storefront", cfg.Storefront.BaseURL),
		cfg.Storefront.CountryCode,
		cfg.Storefront.Language,
		storefront.WithDetailConcurrency(cfg.Storefront.DetailConcurrency),
	)

	// The catalog feeds the vocabulary cache and also consults it to
	// translate filter names into provider IDs, hence the two-step wiring.
	vocabCache := vocab.New(catalogClient, a.cachePath(cfg, cfg.Cache.VocabFile), cfg.Catalog.MaxPages)
	catalogClient.SetVocab(vocabCache)

	synonymCache := synonyms.New(a.cachePath(cfg, cfg.Cache.SynonymsFile))
	if err := synonymCache.Load(); err != nil {
		logging.Warn().Err(err).Msg("Starting with an empty synonym cache")
	}

	g, err := gamedex.New(
		gamedex.WithCatalog(catalogClient),
		gamedex.WithStorefront(storefrontClient),
		gamedex.WithGenerator(a.generator(cfg)),
		gamedex.WithVocabularyCache(vocabCache),
		gamedex.WithSynonymCache(synonymCache),
		gamedex.WithTitleCutoff(cfg.Matching.TitleCutoff),
		gamedex.WithTermCutoff(cfg.Matching.TermCutoff),
		gamedex.WithEnrichConcurrency(cfg.Matching.EnrichConcurrency),
		gamedex.WithGeneratorTimeout(cfg.Generator.Timeout),
	)
	if err != nil {
		return nil, err
	}
	a.gamedex = g
	return g, nil
}

// generator picks the text-generation backend from configuration. A
// missing backend or key degrades to deterministic parsing only.
func (a *App) generator(cfg *config.Config) textgen.Generator {
	switch cfg.Generator.Backend {
	case "gemini":
		if cfg.Generator.APIKey == "" {
			logging.Warn().Msg("No generator API key, free-text extraction degraded to pattern matching")
			return nil
		}
		return textgen.NewGemini(cfg.Generator.APIKey, cfg.Generator.Model)
	case "ollama":
		return textgen.NewOllama(cfg.Generator.Model)
	case "", "none":
		return nil
	default:
		logging.Warn().Str("backend", cfg.Generator.Backend).Msg("Unknown generator backend, disabling")
		return nil
	}
}

// cachePath resolves a cache file name against the cache directory.
func (a *App) cachePath(cfg *config.Config, name string) string {
	dir := cfg.Cache.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}

// warmVocabulary loads the vocabulary cache with a bounded budget so a
// dead catalog cannot hang startup.
func (a *App) warmVocabulary(ctx context.Context, g gamedex.Gamedex) error {
	loadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	return g.LoadVocabulary(loadCtx)
}
