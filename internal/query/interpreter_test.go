package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedex/gamedex/internal/resolver"
	"github.com/gamedex/gamedex/internal/synonyms"
	"github.com/gamedex/gamedex/internal/vocab"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/games"
)

// fakeGenerator returns a fixed response for every prompt.
type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(context.Context, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type vocabFetcher struct {
	entries map[games.Category][]games.VocabEntry
}

func (v *vocabFetcher) Vocabulary(_ context.Context, category games.Category, _ int) ([]games.VocabEntry, bool, error) {
	return v.entries[category], false, nil
}

func newTestResolver(t *testing.T) *resolver.Resolver {
	t.Helper()
	dir := t.TempDir()

	fetcher := &vocabFetcher{entries: map[games.Category][]games.VocabEntry{
		games.CategoryGenre: {
			{ID: 5, Name: "RPG"},
			{ID: 4, Name: "Action"},
		},
		games.CategoryPlatform: {
			{ID: 4, Name: "PC"},
			{ID: 1, Name: "Xbox One"},
		},
	}}

	vc := vocab.New(fetcher, filepath.Join(dir, "vocab.yaml"), 0)
	require.NoError(t, vc.Refresh(context.Background(), false))
	sc := synonyms.New(filepath.Join(dir, "synonyms.yaml"))

	// No generator on the resolver: these tests exercise local resolution.
	return resolver.New(vc, sc, nil)
}

func TestParseEndToEnd(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"query": "multiplayer RPG game",
		"genres": ["RPG"],
		"platforms": ["PC"],
		"tags": ["multiplayer"]
	}`}
	interp := New(gen, newTestResolver(t))

	filter, leftovers, err := interp.Parse(context.Background(), "multiplayer RPG on PC under $20 after 2015")
	require.NoError(t, err)

	require.NotNil(t, filter.MaxPrice)
	assert.Equal(t, 20.0, *filter.MaxPrice)
	assert.Nil(t, filter.MinPrice)
	assert.Equal(t, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), filter.ReleaseFrom)
	assert.False(t, filter.ReleaseTo.IsZero(), "unset upper bound defaults to today")

	assert.Equal(t, []string{"rpg"}, filter.Genres)
	assert.Equal(t, []string{"pc"}, filter.Platforms)
	assert.Equal(t, []string{"multiplayer"}, filter.Tags)
	assert.True(t, leftovers.Empty())
}

func TestParseGeneratorFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: errors.ErrTimeout}
	interp := New(gen, newTestResolver(t))

	filter, leftovers, err := interp.Parse(context.Background(), "indie games under $10")
	require.NoError(t, err, "generation failure is non-fatal")

	assert.Equal(t, "indie games under $10", filter.Query, "raw text kept as query")
	require.NotNil(t, filter.MaxPrice)
	assert.Equal(t, 10.0, *filter.MaxPrice)
	assert.Empty(t, filter.Genres)
	assert.True(t, leftovers.Empty())
	assert.Equal(t, 1, gen.calls, "no retry within the same parse")
}

func TestParseMalformedOutputFallsBack(t *testing.T) {
	gen := &fakeGenerator{response: "no json here at all"}
	interp := New(gen, newTestResolver(t))

	filter, _, err := interp.Parse(context.Background(), "co-op shooters")
	require.NoError(t, err)
	assert.Equal(t, "co-op shooters", filter.Query)
}

func TestParseLeftoversReturned(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"query": "farming game",
		"genres": ["farming simulator"],
		"platforms": [],
		"tags": []
	}`}
	interp := New(gen, newTestResolver(t))

	filter, leftovers, err := interp.Parse(context.Background(), "farming games")
	require.NoError(t, err)

	assert.Empty(t, filter.Genres)
	assert.Equal(t, []string{"farming simulator"}, leftovers.Genres)
	assert.Equal(t, []string{"farming simulator"}, leftovers.Terms())
}

func TestParseScrubsLeakedTagConstraints(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"query": "rpg",
		"genres": [],
		"platforms": [],
		"tags": ["multiplayer", "under 20", "$20", "after 2015", "price", "open world"]
	}`}
	interp := New(gen, newTestResolver(t))

	filter, _, err := interp.Parse(context.Background(), "rpg under $20")
	require.NoError(t, err)
	assert.Equal(t, []string{"multiplayer", "open world"}, filter.Tags)
}

func TestParseWithoutGenerator(t *testing.T) {
	interp := New(nil, newTestResolver(t))

	filter, leftovers, err := interp.Parse(context.Background(), "anything between $5 and $15")
	require.NoError(t, err)
	require.NotNil(t, filter.MinPrice)
	require.NotNil(t, filter.MaxPrice)
	assert.Equal(t, 5.0, *filter.MinPrice)
	assert.Equal(t, 15.0, *filter.MaxPrice)
	assert.True(t, leftovers.Empty())
}

func TestScrubTags(t *testing.T) {
	in := []string{"co-op", "Under $30", "2015", "crafting", "  ", "release year"}
	assert.Equal(t, []string{"co-op", "crafting"}, scrubTags(in))
}
