// Package synonyms persists the learned mapping from free-form terms to
// canonical vocabulary names, so terms resolved once never need another
// external canonicalization call.
package synonyms

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/logging"
)

// Cache maps (category, lowercase synonym) to a canonical vocabulary name.
// Mappings grow monotonically and are written through to disk on every
// addition. The persist is a whole-file overwrite: concurrent writers are
// at-least-one-writer-wins, an accepted weakness, not an atomicity
// guarantee.
type Cache struct {
	path string

	mu       sync.RWMutex
	mappings map[games.Category]map[string]string
}

// New creates a synonym cache persisting to path.
func New(path string) *Cache {
	return &Cache{
		path:     path,
		mappings: emptyMappings(),
	}
}

func emptyMappings() map[games.Category]map[string]string {
	m := make(map[games.Category]map[string]string, len(games.Categories()))
	for _, c := range games.Categories() {
		m[c] = make(map[string]string)
	}
	return m
}

// Load reads the persisted mappings. A missing file is a clean start; a
// corrupt file is logged and treated as empty.
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WrapIO("read", c.path, err)
	}

	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		logging.Warn().Err(err).Str("path", c.path).Msg("Synonym cache corrupt, starting empty")
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mappings = emptyMappings()
	for name, entries := range raw {
		category, err := games.ParseCategory(name)
		if err != nil {
			logging.Warn().Str("category", name).Msg("Skipping unknown synonym category")
			continue
		}
		for synonym, canonical := range entries {
			c.mappings[category][strings.ToLower(synonym)] = canonical
		}
	}
	return nil
}

// Resolve returns the canonical name recorded for (category, synonym).
func (c *Cache) Resolve(category games.Category, synonym string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	canonical, ok := c.mappings[category][strings.ToLower(strings.TrimSpace(synonym))]
	return canonical, ok
}

// Add records a mapping and persists immediately (synchronous
// write-through). Overwriting an existing synonym is allowed.
func (c *Cache) Add(category games.Category, synonym, canonical string) error {
	key := strings.ToLower(strings.TrimSpace(synonym))
	if key == "" || canonical == "" {
		return errors.NewValidationError("synonym", synonym, "synonym and canonical must be non-empty")
	}

	c.mu.Lock()
	if c.mappings[category] == nil {
		c.mappings[category] = make(map[string]string)
	}
	c.mappings[category][key] = canonical
	c.mu.Unlock()

	logging.Debug().
		Str("category", category.String()).
		Str("synonym", key).
		Str("canonical", canonical).
		Msg("Learned synonym")

	return c.save()
}

// Len returns the number of mappings in a category.
func (c *Cache) Len(category games.Category) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mappings[category])
}

// save overwrites the whole file with the current mappings.
func (c *Cache) save() error {
	c.mu.RLock()
	raw := make(map[string]map[string]string, len(c.mappings))
	for category, entries := range c.mappings {
		if len(entries) == 0 {
			continue
		}
		copied := make(map[string]string, len(entries))
		for k, v := range entries {
			copied[k] = v
		}
		raw[category.String()] = copied
	}
	c.mu.RUnlock()

	data, err := yaml.Marshal(raw)
	if err != nil {
		return errors.WrapParse("yaml", c.path, err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapIO("create", dir, err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return errors.WrapIO("write", c.path, err)
	}
	return nil
}
