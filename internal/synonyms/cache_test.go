package synonyms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedex/gamedex/pkg/games"
)

func TestAddAndResolve(t *testing.T) {
	cache := New(filepath.Join(t.TempDir(), "synonyms.yaml"))

	require.NoError(t, cache.Add(games.CategoryGenre, "Role-Playing", "RPG"))

	canonical, ok := cache.Resolve(games.CategoryGenre, "role-playing")
	require.True(t, ok)
	assert.Equal(t, "RPG", canonical)

	// Lookup is case and whitespace insensitive.
	canonical, ok = cache.Resolve(games.CategoryGenre, "  ROLE-PLAYING ")
	require.True(t, ok)
	assert.Equal(t, "RPG", canonical)

	// Other categories are unaffected.
	_, ok = cache.Resolve(games.CategoryPlatform, "role-playing")
	assert.False(t, ok)
}

func TestWriteThroughPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	cache := New(path)
	require.NoError(t, cache.Add(games.CategoryPlatform, "personal computer", "PC"))

	// Every Add persists immediately; a fresh cache sees the mapping.
	reloaded := New(path)
	require.NoError(t, reloaded.Load())

	canonical, ok := reloaded.Resolve(games.CategoryPlatform, "personal computer")
	require.True(t, ok)
	assert.Equal(t, "PC", canonical)
}

func TestOverwriteExistingSynonym(t *testing.T) {
	cache := New(filepath.Join(t.TempDir(), "synonyms.yaml"))
	require.NoError(t, cache.Add(games.CategoryGenre, "shooty", "Action"))
	require.NoError(t, cache.Add(games.CategoryGenre, "shooty", "Shooter"))

	canonical, _ := cache.Resolve(games.CategoryGenre, "shooty")
	assert.Equal(t, "Shooter", canonical)
	assert.Equal(t, 1, cache.Len(games.CategoryGenre))
}

func TestLoadMissingFile(t *testing.T) {
	cache := New(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, cache.Load())
	assert.Equal(t, 0, cache.Len(games.CategoryGenre))
}

func TestLoadCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n:::"), 0o644))

	cache := New(path)
	require.NoError(t, cache.Load())
	assert.Equal(t, 0, cache.Len(games.CategoryGenre))
}

func TestAddRejectsEmpty(t *testing.T) {
	cache := New(filepath.Join(t.TempDir(), "synonyms.yaml"))
	assert.Error(t, cache.Add(games.CategoryGenre, "  ", "RPG"))
	assert.Error(t, cache.Add(games.CategoryGenre, "rpg", ""))
}
