package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedex/gamedex"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/logging"
)

type fakeCatalog struct {
	results []games.Game
	total   int
	err     error
}

func (f *fakeCatalog) Search(context.Context, games.Filter, int, int) ([]games.Game, int, error) {
	return f.results, f.total, f.err
}

func (f *fakeCatalog) Details(context.Context, string) (*games.Game, error) {
	return nil, errors.ErrNotFound
}

func (f *fakeCatalog) Vocabulary(_ context.Context, category games.Category, _ int) ([]games.VocabEntry, bool, error) {
	if category == games.CategoryGenre {
		return []games.VocabEntry{{ID: 4, Slug: "action", Name: "Action"}}, false, nil
	}
	return nil, false, nil
}

type fakeStorefront struct{}

func (fakeStorefront) Search(context.Context, string) ([]games.Game, error) { return nil, nil }
func (fakeStorefront) Details(context.Context, string) (*games.Game, error) {
	return nil, errors.ErrNotFound
}

func newTestServer(t *testing.T, catalog *fakeCatalog) *Server {
	t.Helper()
	g, err := gamedex.New(
		gamedex.WithCatalog(catalog),
		gamedex.WithStorefront(fakeStorefront{}),
		gamedex.WithCacheDir(t.TempDir()),
	)
	require.NoError(t, err)
	require.NoError(t, g.RefreshVocabulary(context.Background(), true))
	return New(DefaultConfig(), g)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeCatalog{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestSearchReturnsPage(t *testing.T) {
	catalog := &fakeCatalog{
		results: []games.Game{{ID: "1", Name: "Hades"}},
		total:   1,
	}
	srv := newTestServer(t, catalog)

	rec := postJSON(t, srv.Handler(), "/api/v1/games/search", map[string]any{
		"genres": []string{"Action"},
		"limit":  10,
		"page":   1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data games.Page `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, "Hades", resp.Data.Results[0].Name)
}

func TestSearchRejectsInvalidFilter(t *testing.T) {
	srv := newTestServer(t, &fakeCatalog{})
	rec := postJSON(t, srv.Handler(), "/api/v1/games/search", map[string]any{
		"min_price": -5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
}

func TestSearchMapsProviderFailureTo502(t *testing.T) {
	srv := newTestServer(t, &fakeCatalog{err: errors.ErrProviderUnavailable})

	rec := postJSON(t, srv.Handler(), "/api/v1/games/search", map[string]any{})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "UPSTREAM_ERROR")
}

func TestRequestLogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	old := *logging.Default()
	logging.SetDefault(logging.New(&buf))
	t.Cleanup(func() { logging.SetDefault(old) })

	srv := newTestServer(t, &fakeCatalog{err: errors.ErrProviderUnavailable})
	rec := postJSON(t, srv.Handler(), "/api/v1/games/search", map[string]any{})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	// Both the handler's failure log and the access log go through the
	// request-scoped logger, so each line carries the request ID.
	logs := buf.String()
	assert.Contains(t, logs, `"request_id"`)
	assert.Contains(t, logs, "Upstream provider failed")
	assert.Contains(t, logs, "Request handled")
}

func TestQueryInterpretsText(t *testing.T) {
	catalog := &fakeCatalog{
		results: []games.Game{{ID: "1", Name: "Hades"}},
		total:   1,
	}
	srv := newTestServer(t, catalog)

	rec := postJSON(t, srv.Handler(), "/api/v1/games/query", map[string]any{
		"query": "action games under $20",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data gamedex.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.Filter.MaxPrice)
	assert.Equal(t, 20.0, *resp.Data.Filter.MaxPrice)
	assert.Equal(t, 1, resp.Data.Page.Total)
}

func TestQueryRejectsEmpty(t *testing.T) {
	srv := newTestServer(t, &fakeCatalog{})
	rec := postJSON(t, srv.Handler(), "/api/v1/games/query", map[string]any{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVocabRefreshAndShow(t *testing.T) {
	srv := newTestServer(t, &fakeCatalog{})

	rec := postJSON(t, srv.Handler(), "/api/v1/vocab/refresh", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"genre":1`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vocab/genres", nil)
	show := httptest.NewRecorder()
	srv.Handler().ServeHTTP(show, req)
	require.Equal(t, http.StatusOK, show.Code)
	assert.Contains(t, show.Body.String(), "Action")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/vocab/moods", nil)
	bad := httptest.NewRecorder()
	srv.Handler().ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestUnknownEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeCatalog{})
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
