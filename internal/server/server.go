// Package server provides the HTTP server for the gamedex API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gamedex/gamedex"
	"github.com/gamedex/gamedex/internal/server/response"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/logging"
)

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	PathPrefix string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8080,
		PathPrefix:   "/api/v1",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Server exposes a Gamedex instance over HTTP.
type Server struct {
	config  Config
	gamedex gamedex.Gamedex
}

// New creates a server over the aggregation pipeline.
func New(cfg Config, g gamedex.Gamedex) *Server {
	if cfg.Host == "" {
		cfg.Host = DefaultConfig().Host
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultConfig().Port
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = DefaultConfig().PathPrefix
	}
	return &Server{config: cfg, gamedex: g}
}

// Handler returns the configured http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route(s.config.PathPrefix, func(r chi.Router) {
		r.Post("/games/search", s.handleSearch)
		r.Post("/games/query", s.handleQuery)
		r.Post("/vocab/refresh", s.handleVocabRefresh)
		r.Get("/vocab/{category}", s.handleVocabShow)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "no such endpoint", r.URL.Path)
	})
	return r
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully and persists the caches.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Str("prefix", s.config.PathPrefix).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := s.gamedex.SaveCaches(); err != nil {
		logging.Error().Err(err).Msg("Failed to persist caches on shutdown")
	}
	return nil
}

// accessLog stores a request-scoped logger tagged with the chi request
// ID in the context, so handlers logging through logging.Ctx carry the
// ID, then logs one line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.Ctx(ctx).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// searchRequest is a structured search: an explicit filter plus paging.
type searchRequest struct {
	games.Filter
	Limit int `json:"limit"`
	Page  int `json:"page"`
}

// queryRequest is a free-text search.
type queryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
	Page  int    `json:"page"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err.Error())
		return
	}

	page, err := s.gamedex.Search(r.Context(), req.Filter, req.Limit, req.Page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, page)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.BadRequest(w, "query must not be empty", "")
		return
	}

	result, err := s.gamedex.Query(r.Context(), req.Query, req.Limit, req.Page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, result)
}

func (s *Server) handleVocabRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.gamedex.RefreshVocabulary(r.Context(), true); err != nil {
		writeError(w, r, err)
		return
	}
	counts := map[string]int{}
	for _, category := range games.Categories() {
		counts[category.String()] = len(s.gamedex.VocabularyEntries(category))
	}
	response.OK(w, counts)
}

func (s *Server) handleVocabShow(w http.ResponseWriter, r *http.Request) {
	category, err := games.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		response.BadRequest(w, "unknown category", err.Error())
		return
	}
	response.OK(w, s.gamedex.VocabularyEntries(category))
}

// writeError maps pipeline failures onto HTTP statuses: invalid input
// to 400, upstream provider failures to 502, the rest to 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		response.BadRequest(w, "invalid request", err.Error())
	case errors.Is(err, errors.ErrProviderUnavailable), errors.Is(err, errors.ErrRateLimited), errors.Is(err, errors.ErrTimeout):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Upstream provider failed")
		response.BadGateway(w, "upstream provider failed", err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		response.InternalError(w, "search failed", err.Error())
	}
}
