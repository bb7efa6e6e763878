// Package config loads application settings through viper, layering
// config-file values under environment variables. All tunable heuristics
// (fuzzy-match cutoffs, fan-out limits, timeouts) live here rather than
// as constants in the packages that consume them.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Storefront StorefrontConfig `mapstructure:"storefront"`
	Generator  GeneratorConfig  `mapstructure:"generator"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Server     ServerConfig     `mapstructure:"server"`
}

// CatalogConfig configures the catalog provider adapter.
type CatalogConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	PageSize int    `mapstructure:"page_size"`
	MaxPages int    `mapstructure:"max_pages"`
}

// StorefrontConfig configures the storefront provider adapter.
type StorefrontConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	CountryCode string `mapstructure:"country_code"`
	Language    string `mapstructure:"language"`
	// DetailConcurrency caps simultaneous detail fetches within one
	// store search.
	DetailConcurrency int `mapstructure:"detail_concurrency"`
}

// GeneratorConfig configures the text-generation capability.
type GeneratorConfig struct {
	// Backend selects the implementation: "gemini" or "ollama".
	Backend string        `mapstructure:"backend"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MatchingConfig holds the fuzzy-matching cutoffs. These are heuristic
// tunables, not guarantees.
type MatchingConfig struct {
	// TitleCutoff is the minimum similarity for enriching a catalog
	// record with a storefront match.
	TitleCutoff float64 `mapstructure:"title_cutoff"`
	// TermCutoff is the minimum similarity for resolving a free-form
	// term against the vocabulary.
	TermCutoff float64 `mapstructure:"term_cutoff"`
	// EnrichConcurrency caps simultaneous storefront lookups.
	EnrichConcurrency int `mapstructure:"enrich_concurrency"`
}

// CacheConfig holds the on-disk cache locations.
type CacheConfig struct {
	Dir          string `mapstructure:"dir"`
	VocabFile    string `mapstructure:"vocab_file"`
	SynonymsFile string `mapstructure:"synonyms_file"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	PathPrefix   string        `mapstructure:"path_prefix"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// setDefaults registers every default value with viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.base_url", "https://api.rawg.io/api")
	v.SetDefault("catalog.page_size", 20)
	v.SetDefault("catalog.max_pages", 20)

	v.SetDefault("storefront.base_url", "https://store.steampowered.com/api")
	v.SetDefault("storefront.country_code", "us")
	v.SetDefault("storefront.language", "en")
	v.SetDefault("storefront.detail_concurrency", 5)

	v.SetDefault("generator.backend", "gemini")
	v.SetDefault("generator.model", "gemini-2.0-flash")
	v.SetDefault("generator.timeout", 30*time.Second)

	v.SetDefault("matching.title_cutoff", 0.6)
	v.SetDefault("matching.term_cutoff", 0.85)
	v.SetDefault("matching.enrich_concurrency", 10)

	v.SetDefault("cache.dir", ".gamedex")
	v.SetDefault("cache.vocab_file", "vocabulary.yaml")
	v.SetDefault("cache.synonyms_file", "synonyms.yaml")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.path_prefix", "/api/v1")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
}

// Load reads configuration from an optional file path plus GAMEDEX_*
// environment variables. A missing config file is not an error; defaults
// cover every setting.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GAMEDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider API keys also honor their conventional env var names.
	_ = v.BindEnv("catalog.api_key", "GAMEDEX_CATALOG_API_KEY", "RAWG_API_KEY")
	_ = v.BindEnv("generator.api_key", "GAMEDEX_GENERATOR_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("gamedex")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/gamedex")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without touching disk or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always unmarshal cleanly.
	_ = v.Unmarshal(&cfg)
	return &cfg
}
