// Package vocab holds the catalog provider's controlled vocabulary
// (genres, platforms, tags) as a process-wide cache with disk persistence.
// The cache is explicitly constructed and injected; there is no package
// global.
package vocab

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/logging"
)

// Fetcher lists one page of a vocabulary category from the remote source.
// The boolean reports whether more pages follow.
type Fetcher interface {
	Vocabulary(ctx context.Context, category games.Category, page int) ([]games.VocabEntry, bool, error)
}

// DefaultMaxPages bounds a full vocabulary fetch so a misbehaving remote
// cannot drag a refresh on forever.
const DefaultMaxPages = 20

// Cache is the in-memory vocabulary with on-disk persistence. Reads are
// concurrent; refreshes take the write lock.
type Cache struct {
	fetcher  Fetcher
	path     string
	maxPages int

	mu        sync.RWMutex
	entries   map[games.Category][]games.VocabEntry
	refreshed bool // refresh already ran this process lifetime
}

// fileFormat is the persisted YAML shape: one document with all three
// categories.
type fileFormat struct {
	Genres    []games.VocabEntry `yaml:"genres"`
	Platforms []games.VocabEntry `yaml:"platforms"`
	Tags      []games.VocabEntry `yaml:"tags"`
}

// New creates a vocabulary cache persisting to path. maxPages <= 0 uses
// DefaultMaxPages.
func New(fetcher Fetcher, path string, maxPages int) *Cache {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Cache{
		fetcher:  fetcher,
		path:     path,
		maxPages: maxPages,
		entries:  make(map[games.Category][]games.VocabEntry),
	}
}

// Load reads the persisted vocabulary, falling back to a remote refresh
// when the file is missing, corrupt, or empty.
func (c *Cache) Load(ctx context.Context) error {
	if err := c.loadFromDisk(); err != nil {
		logging.Warn().Err(err).Str("path", c.path).Msg("Vocabulary cache unreadable, refreshing")
		return c.Refresh(ctx, false)
	}

	if c.Empty() {
		logging.Debug().Str("path", c.path).Msg("Vocabulary cache empty, refreshing")
		return c.Refresh(ctx, false)
	}

	logging.Debug().
		Int("genres", c.Len(games.CategoryGenre)).
		Int("platforms", c.Len(games.CategoryPlatform)).
		Int("tags", c.Len(games.CategoryTag)).
		Msg("Vocabulary loaded from disk")
	return nil
}

// Refresh fetches the complete vocabulary for every category and persists
// it. It runs at most once per process lifetime unless forced. A fetch
// failure leaves the previous in-memory state untouched and is returned
// to the caller; serving stale data beats crashing.
func (c *Cache) Refresh(ctx context.Context, force bool) error {
	c.mu.RLock()
	done := c.refreshed
	c.mu.RUnlock()
	if done && !force {
		logging.Debug().Msg("Vocabulary already refreshed this session, skipping")
		return nil
	}

	fetched := make(map[games.Category][]games.VocabEntry, len(games.Categories()))
	for _, category := range games.Categories() {
		entries, err := c.fetchAll(ctx, category)
		if err != nil {
			return err
		}
		fetched[category] = entries
	}

	c.mu.Lock()
	c.entries = fetched
	c.refreshed = true
	c.mu.Unlock()

	if err := c.save(); err != nil {
		// The in-memory state is good; a failed persist only costs the
		// next process a refetch.
		logging.Error().Err(err).Str("path", c.path).Msg("Failed to persist vocabulary")
	}

	logging.Info().
		Int("genres", c.Len(games.CategoryGenre)).
		Int("platforms", c.Len(games.CategoryPlatform)).
		Int("tags", c.Len(games.CategoryTag)).
		Msg("Vocabulary refreshed")
	return nil
}

// fetchAll pages through one category until the remote reports no more
// pages or the max-page guard trips.
func (c *Cache) fetchAll(ctx context.Context, category games.Category) ([]games.VocabEntry, error) {
	var all []games.VocabEntry
	for page := 1; page <= c.maxPages; page++ {
		entries, more, err := c.fetcher.Vocabulary(ctx, category, page)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
		if !more {
			break
		}
	}
	return all, nil
}

// Names returns a lookup of lowercase vocabulary name to entry for the
// category. The map is a fresh copy; callers may keep it.
func (c *Cache) Names(category games.Category) map[string]games.VocabEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]games.VocabEntry, len(c.entries[category]))
	for _, e := range c.entries[category] {
		out[strings.ToLower(e.Name)] = e
	}
	return out
}

// ByID returns an id → name lookup for the category.
func (c *Cache) ByID(category games.Category) map[int]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[int]string, len(c.entries[category]))
	for _, e := range c.entries[category] {
		out[e.ID] = e.Name
	}
	return out
}

// Entries returns a copy of the category's raw entries.
func (c *Cache) Entries(category games.Category) []games.VocabEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]games.VocabEntry, len(c.entries[category]))
	copy(out, c.entries[category])
	return out
}

// Len returns the number of entries in a category.
func (c *Cache) Len(category games.Category) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries[category])
}

// Empty reports whether every category is empty.
func (c *Cache) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, entries := range c.entries {
		if len(entries) > 0 {
			return false
		}
	}
	return true
}

// Save persists the current in-memory vocabulary.
func (c *Cache) Save() error {
	return c.save()
}

// loadFromDisk replaces the in-memory entries with the persisted file.
func (c *Cache) loadFromDisk() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return errors.WrapIO("read", c.path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return &errors.ParseError{Format: "yaml", Source: c.path, Message: err.Error(), Err: errors.ErrCacheCorrupt}
	}

	c.mu.Lock()
	c.entries = map[games.Category][]games.VocabEntry{
		games.CategoryGenre:    f.Genres,
		games.CategoryPlatform: f.Platforms,
		games.CategoryTag:      f.Tags,
	}
	c.mu.Unlock()
	return nil
}

// save writes the vocabulary atomically: temp file in the same directory,
// then rename, so a crash never leaves a partial file behind.
func (c *Cache) save() error {
	c.mu.RLock()
	f := fileFormat{
		Genres:    c.entries[games.CategoryGenre],
		Platforms: c.entries[games.CategoryPlatform],
		Tags:      c.entries[games.CategoryTag],
	}
	c.mu.RUnlock()

	data, err := yaml.Marshal(f)
	if err != nil {
		return errors.WrapParse("yaml", c.path, err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.WrapIO("write", tmp, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return errors.WrapIO("rename", tmp, err)
	}
	return nil
}
