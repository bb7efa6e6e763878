// Package storefront implements the storefront provider adapter. The
// remote API is keyed by app ID and carries the commercial fields the
// catalog lacks: price, store page, regional availability.
package storefront

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gamedex/gamedex/internal/providers/transport"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/logging"
)

// DefaultDetailConcurrency bounds the per-search detail fan-out.
const DefaultDetailConcurrency = 5

// Client talks to the storefront API.
type Client struct {
	transport         *transport.Client
	country           string
	language          string
	storeURL          string
	detailConcurrency int
}

// Option configures a Client.
type Option func(*Client)

// WithDetailConcurrency overrides the per-search detail fan-out bound.
func WithDetailConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.detailConcurrency = n
		}
	}
}

// New creates a storefront client. Country and language scope prices and
// descriptions to a region; empty values fall back to "us"/"en".
func New(t *transport.Client, country, language string, opts ...Option) *Client {
	if country == "" {
		country = "us"
	}
	if language == "" {
		language = "en"
	}
	c := &Client{
		transport:         t,
		country:           country,
		language:          language,
		storeURL:          "https://store.steampowered.com/app/",
		detailConcurrency: DefaultDetailConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wireSearch is the store search response.
type wireSearch struct {
	Items []struct {
		ID   json.Number `json:"id"`
		Type string      `json:"type"`
		Name string      `json:"name"`
	} `json:"items"`
}

// wireDetails is the app details response: a map keyed by the requested
// app ID.
type wireDetails map[string]struct {
	Success bool `json:"success"`
	Data    struct {
		Name             string `json:"name"`
		ShortDescription string `json:"short_description"`
		IsFree           bool   `json:"is_free"`
		ReleaseDate      struct {
			ComingSoon bool   `json:"coming_soon"`
			Date       string `json:"date"`
		} `json:"release_date"`
		Developers []string `json:"developers"`
		Publishers []string `json:"publishers"`
		Genres     []struct {
			Description string `json:"description"`
		} `json:"genres"`
		Platforms map[string]bool `json:"platforms"`
		PriceOverview *struct {
			Currency string `json:"currency"`
			Final    int    `json:"final"`
		} `json:"price_overview"`
		Screenshots []struct {
			PathFull string `json:"path_full"`
		} `json:"screenshots"`
	} `json:"data"`
}

// Search looks up a term in the store and fetches full details for every
// game it returns. Detail fetches run concurrently with a bounded
// fan-out; a failed detail drops that record rather than failing the
// search.
func (c *Client) Search(ctx context.Context, term string) ([]games.Game, error) {
	params := url.Values{
		"term": {term},
		"cc":   {c.country},
		"l":    {c.language},
	}

	var resp wireSearch
	if err := c.transport.GetJSON(ctx, "/storesearch", params, &resp); err != nil {
		return nil, err
	}

	var ids []string
	for _, item := range resp.Items {
		if item.Type != "" && item.Type != "game" && item.Type != "app" {
			continue
		}
		ids = append(ids, item.ID.String())
	}
	if len(ids) == 0 {
		return nil, nil
	}

	results := make([]*games.Game, len(ids))
	sem := make(chan struct{}, c.detailConcurrency)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			game, err := c.Details(ctx, id)
			if err != nil {
				logging.Debug().Err(err).Str("id", id).Msg("Skipping storefront record without details")
				return
			}
			results[idx] = game
		}(i, id)
	}
	wg.Wait()

	out := make([]games.Game, 0, len(ids))
	for _, g := range results {
		if g != nil {
			out = append(out, *g)
		}
	}
	return out, nil
}

// Details fetches the full record for one storefront app ID. A lookup
// the store reports as unsuccessful maps to ErrNotFound.
func (c *Client) Details(ctx context.Context, id string) (*games.Game, error) {
	params := url.Values{
		"appids": {id},
		"cc":     {c.country},
		"l":      {c.language},
	}

	var resp wireDetails
	if err := c.transport.GetJSON(ctx, "/appdetails", params, &resp); err != nil {
		return nil, err
	}

	entry, ok := resp[id]
	if !ok || !entry.Success {
		return nil, errors.NewNotFoundError("game", id)
	}

	data := entry.Data
	g := &games.Game{
		ID:          id,
		Name:        data.Name,
		Description: data.ShortDescription,
		Developers:  data.Developers,
		Publishers:  data.Publishers,
		StoreURL:    c.storeURL + id,
	}

	for _, genre := range data.Genres {
		g.Genres = append(g.Genres, genre.Description)
	}
	for platform, supported := range data.Platforms {
		if supported {
			g.Platforms = append(g.Platforms, canonicalPlatform(platform))
		}
	}
	for _, s := range data.Screenshots {
		if s.PathFull != "" {
			g.Screenshots = append(g.Screenshots, s.PathFull)
		}
	}

	switch {
	case data.IsFree:
		g.Price = games.Float64(0)
	case data.PriceOverview != nil:
		// The store reports prices in cents.
		g.Price = games.Float64(float64(data.PriceOverview.Final) / 100)
	}

	if !data.ReleaseDate.ComingSoon {
		if t, ok := parseReleaseDate(data.ReleaseDate.Date); ok {
			g.ReleaseDate = &t
		}
	}
	return g, nil
}

// releaseFormats covers the date spellings the store emits.
var releaseFormats = []string{
	"Jan 2, 2006",
	"2 Jan, 2006",
	"January 2, 2006",
	"2006-01-02",
	"2006",
}

func parseReleaseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range releaseFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// canonicalPlatform maps the store's lowercase platform keys to the
// names the catalog vocabulary uses.
func canonicalPlatform(key string) string {
	switch strings.ToLower(key) {
	case "windows":
		return "PC"
	case "mac":
		return "macOS"
	case "linux":
		return "Linux"
	default:
		return key
	}
}
