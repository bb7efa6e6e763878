// Package catalog implements the catalog provider adapter. The remote API
// enumerates games by genre, platform, tag, and release date, serves a
// controlled vocabulary for each of those attributes, and paginates
// everything in fixed-size pages.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gamedex/gamedex/internal/providers/transport"
	"github.com/gamedex/gamedex/internal/vocab"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/logging"
)

// DefaultPageSize is the provider's fixed page size.
const DefaultPageSize = 20

// Client talks to the catalog API. The vocabulary cache translates the
// filter's lowercase names into provider IDs and the provider's IDs back
// into display names.
type Client struct {
	transport *transport.Client
	vocab     *vocab.Cache
	pageSize  int
	siteURL   string
}

// Option configures a Client.
type Option func(*Client)

// WithPageSize overrides the provider page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// New creates a catalog client. vocabCache may be nil until SetVocab is
// called; lookups then pass IDs through as strings.
func New(t *transport.Client, vocabCache *vocab.Cache, opts ...Option) *Client {
	c := &Client{
		transport: t,
		vocab:     vocabCache,
		pageSize:  DefaultPageSize,
		siteURL:   "https://rawg.io",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetVocab injects the vocabulary cache after construction. The cache
// itself needs a catalog client to refresh, so the two are wired in two
// steps.
func (c *Client) SetVocab(v *vocab.Cache) {
	c.vocab = v
}

// wireVocabPage is the provider's paginated vocabulary response.
type wireVocabPage struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []struct {
		ID   int    `json:"id"`
		Slug string `json:"slug"`
		Name string `json:"name"`
	} `json:"results"`
}

// vocabPaths maps categories to their listing endpoints.
var vocabPaths = map[games.Category]string{
	games.CategoryGenre:    "/genres",
	games.CategoryPlatform: "/platforms",
	games.CategoryTag:      "/tags",
}

// Vocabulary lists one page of a category's controlled vocabulary.
func (c *Client) Vocabulary(ctx context.Context, category games.Category, page int) ([]games.VocabEntry, bool, error) {
	path, ok := vocabPaths[category]
	if !ok {
		return nil, false, fmt.Errorf("no vocabulary endpoint for category %q", category)
	}

	params := url.Values{
		"page":      {strconv.Itoa(page)},
		"page_size": {strconv.Itoa(c.pageSize)},
	}

	var resp wireVocabPage
	if err := c.transport.GetJSON(ctx, path, params, &resp); err != nil {
		return nil, false, err
	}

	entries := make([]games.VocabEntry, 0, len(resp.Results))
	for _, r := range resp.Results {
		entries = append(entries, games.VocabEntry{ID: r.ID, Slug: r.Slug, Name: r.Name})
	}
	return entries, resp.Next != "", nil
}

// wireGame is one catalog game record on the wire. Search results and
// detail responses share most fields.
type wireGame struct {
	ID              int    `json:"id"`
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	Released        string `json:"released"`
	DescriptionRaw  string `json:"description_raw"`
	BackgroundImage string `json:"background_image"`
	Genres          []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	Platforms []struct {
		Platform struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"platform"`
	} `json:"platforms"`
	Developers []struct {
		Name string `json:"name"`
	} `json:"developers"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	ShortScreenshots []struct {
		Image string `json:"image"`
	} `json:"short_screenshots"`
}

// wireSearchPage is the paginated search response.
type wireSearchPage struct {
	Count   int        `json:"count"`
	Results []wireGame `json:"results"`
}

// Search fetches limit records starting at offset. The provider
// paginates in fixed-size pages, so the needed pages are fetched
// concurrently, flattened back into page order, and sliced to the
// requested window. The returned total is the provider's overall match
// count.
func (c *Client) Search(ctx context.Context, filter games.Filter, limit, offset int) ([]games.Game, int, error) {
	if limit <= 0 || offset < 0 {
		return nil, 0, nil
	}

	startPage := offset/c.pageSize + 1
	endPage := (offset+limit-1)/c.pageSize + 1

	params := c.searchParams(filter)

	type pageResult struct {
		games []games.Game
		total int
		err   error
	}

	results := make([]pageResult, endPage-startPage+1)
	var wg sync.WaitGroup
	for i := range results {
		page := startPage + i
		wg.Add(1)
		go func(idx, page int) {
			defer wg.Done()
			p := url.Values{}
			for k, v := range params {
				p[k] = v
			}
			p.Set("page", strconv.Itoa(page))
			p.Set("page_size", strconv.Itoa(c.pageSize))

			var resp wireSearchPage
			if err := c.transport.GetJSON(ctx, "/games", p, &resp); err != nil {
				results[idx] = pageResult{err: err}
				return
			}
			records := make([]games.Game, 0, len(resp.Results))
			for _, w := range resp.Results {
				records = append(records, c.toGame(w))
			}
			results[idx] = pageResult{games: records, total: resp.Count}
		}(i, page)
	}
	wg.Wait()

	var all []games.Game
	total := 0
	for _, r := range results {
		if r.err != nil {
			return nil, 0, r.err
		}
		all = append(all, r.games...)
		total = r.total
	}

	// Slice the flattened pages down to the requested window.
	skip := offset - (startPage-1)*c.pageSize
	if skip >= len(all) {
		return nil, total, nil
	}
	all = all[skip:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

// Details fetches the full record for one catalog ID.
func (c *Client) Details(ctx context.Context, id string) (*games.Game, error) {
	var resp wireGame
	if err := c.transport.GetJSON(ctx, "/games/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	game := c.toGame(resp)
	return &game, nil
}

// searchParams translates a validated filter into provider query
// parameters. Genre and platform names become provider IDs through the
// vocabulary; names the vocabulary does not know are dropped here (the
// resolver should have caught them earlier).
func (c *Client) searchParams(filter games.Filter) url.Values {
	params := url.Values{}
	if filter.Query != "" {
		params.Set("search", filter.Query)
	}
	if !filter.ReleaseFrom.IsZero() && !filter.ReleaseTo.IsZero() {
		params.Set("dates", filter.ReleaseFrom.Format("2006-01-02")+","+filter.ReleaseTo.Format("2006-01-02"))
	}
	if ids := c.lookupIDs(games.CategoryGenre, filter.Genres); ids != "" {
		params.Set("genres", ids)
	}
	if ids := c.lookupIDs(games.CategoryPlatform, filter.Platforms); ids != "" {
		params.Set("platforms", ids)
	}
	if len(filter.Tags) > 0 {
		slugs := make([]string, len(filter.Tags))
		for i, t := range filter.Tags {
			slugs[i] = strings.ReplaceAll(strings.ToLower(t), " ", "-")
		}
		params.Set("tags", strings.Join(slugs, ","))
	}
	return params
}

// lookupIDs maps lowercase vocabulary names to a comma-joined ID list.
func (c *Client) lookupIDs(category games.Category, names []string) string {
	if len(names) == 0 || c.vocab == nil {
		return ""
	}
	lookup := c.vocab.Names(category)
	ids := make([]int, 0, len(names))
	for _, name := range names {
		entry, ok := lookup[strings.ToLower(name)]
		if !ok {
			logging.Debug().
				Str("category", category.String()).
				Str("name", name).
				Msg("Dropping filter term unknown to vocabulary")
			continue
		}
		ids = append(ids, entry.ID)
	}
	sort.Ints(ids)
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.Itoa(id)
	}
	return strings.Join(strs, ",")
}

// toGame converts a wire record into the domain type.
func (c *Client) toGame(w wireGame) games.Game {
	g := games.Game{
		ID:          strconv.Itoa(w.ID),
		Name:        w.Name,
		Description: w.DescriptionRaw,
	}

	if w.Released != "" {
		if t, err := time.Parse("2006-01-02", w.Released); err == nil {
			utc := t.UTC()
			g.ReleaseDate = &utc
		}
	}

	for _, genre := range w.Genres {
		g.Genres = append(g.Genres, genre.Name)
	}
	for _, p := range w.Platforms {
		g.Platforms = append(g.Platforms, p.Platform.Name)
	}
	for _, d := range w.Developers {
		g.Developers = append(g.Developers, d.Name)
	}
	for _, p := range w.Publishers {
		g.Publishers = append(g.Publishers, p.Name)
	}
	for _, s := range w.ShortScreenshots {
		if s.Image != "" {
			g.Screenshots = append(g.Screenshots, s.Image)
		}
	}
	if len(g.Screenshots) == 0 && w.BackgroundImage != "" {
		g.Screenshots = []string{w.BackgroundImage}
	}
	if w.Slug != "" {
		g.StoreURL = c.siteURL + "/games/" + w.Slug
	}
	return g
}
