package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedex/gamedex/internal/providers/transport"
	"github.com/gamedex/gamedex/internal/vocab"
	"github.com/gamedex/gamedex/pkg/games"
)

// stubFetcher seeds a vocabulary cache without a network round trip.
type stubFetcher struct {
	entries map[games.Category][]games.VocabEntry
}

func (s *stubFetcher) Vocabulary(_ context.Context, category games.Category, _ int) ([]games.VocabEntry, bool, error) {
	return s.entries[category], false, nil
}

func testVocab(t *testing.T) *vocab.Cache {
	t.Helper()
	fetcher := &stubFetcher{entries: map[games.Category][]games.VocabEntry{
		games.CategoryGenre: {
			{ID: 4, Slug: "action", Name: "Action"},
			{ID: 51, Slug: "indie", Name: "Indie"},
		},
		games.CategoryPlatform: {
			{ID: 1, Slug: "pc", Name: "PC"},
		},
	}}
	cache := vocab.New(fetcher, filepath.Join(t.TempDir(), "vocab.yaml"), 1)
	require.NoError(t, cache.Refresh(context.Background(), true))
	return cache
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(transport.New("catalog", srv.URL, transport.WithAPIKey("test-key")), testVocab(t), opts...)
}

func TestSearchQueryParams(t *testing.T) {
	var gotQuery map[string]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		json.NewEncoder(w).Encode(map[string]any{"count": 1, "results": []map[string]any{
			{"id": 10, "slug": "hades", "name": "Hades", "released": "2020-09-17"},
		}})
	}))

	filter, err := games.NewFilter(games.Filter{
		Query:       "roguelike",
		Genres:      []string{"Action", "Indie"},
		Platforms:   []string{"PC"},
		Tags:        []string{"Local Co-Op"},
		ReleaseFrom: *games.Date(2015, 1, 1),
		ReleaseTo:   *games.Date(2021, 12, 31),
	})
	require.NoError(t, err)

	results, total, err := client.Search(context.Background(), filter, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)

	assert.Equal(t, "roguelike", gotQuery["search"])
	assert.Equal(t, "4,51", gotQuery["genres"])
	assert.Equal(t, "1", gotQuery["platforms"])
	assert.Equal(t, "local-co-op", gotQuery["tags"])
	assert.Equal(t, "2015-01-01,2021-12-31", gotQuery["dates"])
	assert.Equal(t, "1", gotQuery["page"])
	assert.Equal(t, "20", gotQuery["page_size"])
	assert.Equal(t, "test-key", gotQuery["key"])

	assert.Equal(t, "10", results[0].ID)
	assert.Equal(t, "Hades", results[0].Name)
	require.NotNil(t, results[0].ReleaseDate)
	assert.Equal(t, *games.Date(2020, 9, 17), *results[0].ReleaseDate)
	assert.Equal(t, "https://rawg.io/games/hades", results[0].StoreURL)
}

func TestSearchSpansPagesInOrder(t *testing.T) {
	// Ten records, two per page. Requesting four starting at offset one
	// needs pages one through three, reassembled in page order even though
	// they are fetched concurrently.
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		first := (page - 1) * 2
		results := []map[string]any{
			{"id": first + 1, "name": fmt.Sprintf("game-%d", first+1)},
			{"id": first + 2, "name": fmt.Sprintf("game-%d", first+2)},
		}
		json.NewEncoder(w).Encode(map[string]any{"count": 10, "results": results})
	}), WithPageSize(2))

	results, total, err := client.Search(context.Background(), games.Filter{}, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	names := make([]string, len(results))
	for i, g := range results {
		names[i] = g.Name
	}
	want := []string{"game-2", "game-3", "game-4", "game-5"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchPageFailureFails(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"count": 4, "results": []map[string]any{
			{"id": 1, "name": "a"}, {"id": 2, "name": "b"},
		}})
	}), WithPageSize(2))

	_, _, err := client.Search(context.Background(), games.Filter{}, 4, 0)
	assert.Error(t, err)
}

func TestDetails(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/10", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"id":               10,
			"slug":             "hades",
			"name":             "Hades",
			"description_raw":  "A rogue-like dungeon crawler.",
			"background_image": "https://img.example/hades.jpg",
			"developers":       []map[string]any{{"name": "Supergiant Games"}},
			"publishers":       []map[string]any{{"name": "Supergiant Games"}},
			"genres":           []map[string]any{{"id": 4, "name": "Action"}},
			"platforms":        []map[string]any{{"platform": map[string]any{"id": 1, "name": "PC"}}},
		})
	}))

	game, err := client.Details(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, "A rogue-like dungeon crawler.", game.Description)
	assert.Equal(t, []string{"Supergiant Games"}, game.Developers)
	assert.Equal(t, []string{"Action"}, game.Genres)
	assert.Equal(t, []string{"PC"}, game.Platforms)
	// No screenshots on the wire, so the background image stands in.
	assert.Equal(t, []string{"https://img.example/hades.jpg"}, game.Screenshots)
}

func TestVocabularyPagination(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/genres", r.URL.Path)
		next := ""
		if r.URL.Query().Get("page") == "1" {
			next = "https://example.com/genres?page=2"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"count": 3,
			"next":  next,
			"results": []map[string]any{
				{"id": 4, "slug": "action", "name": "Action"},
			},
		})
	}))

	entries, more, err := client.Vocabulary(context.Background(), games.CategoryGenre, 1)
	require.NoError(t, err)
	assert.True(t, more)
	require.Len(t, entries, 1)
	assert.Equal(t, games.VocabEntry{ID: 4, Slug: "action", Name: "Action"}, entries[0])

	_, more, err = client.Vocabulary(context.Background(), games.CategoryGenre, 2)
	require.NoError(t, err)
	assert.False(t, more)
}

func TestVocabularyUnknownCategory(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}))
	_, _, err := client.Vocabulary(context.Background(), games.Category("mood"), 1)
	assert.Error(t, err)
}
