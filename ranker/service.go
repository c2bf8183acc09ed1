package ranker

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	healthEndpoint = "/health"
	searchEndpoint = "/search"
)

// Service exposes the ranking engine over HTTP.
type Service struct {
	config Config
	engine *Engine
	router *chi.Mux
}

// New creates and returns a fully configured ranking service instance.
func New(config Config) (*Service, error) {
	engine, err := NewEngine(config)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		config: engine.config,
		engine: engine,
		router: chi.NewRouter(),
	}

	svc.router.Use(middleware.Timeout(svc.config.RequestTimeout))
	svc.router.Get(healthEndpoint, svc.handleHealth)
	svc.router.Get(searchEndpoint, svc.handleSearch)

	return svc, nil
}

// Run executes the HTTP server and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", svc.config.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    svc.config.ListenAddr,
		Handler: svc.router,
	}

	go func() {
		<-ctx.Done()

		_ = srv.Close()
	}()

	svc.config.Logger.WithField("addr", svc.config.ListenAddr).Info(
		"started service",
	)

	if err = srv.Serve(l); err == http.ErrServerClosed {
		// Server closed gracefully.
		err = nil
	}

	return err
}

func (svc *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	svc.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "ranker",
	})
}

// searchResponse is the envelope returned by the search endpoint.
type searchResponse struct {
	Query   string     `json:"query"`
	Results []Result   `json:"results"`
	Meta    searchMeta `json:"meta"`
}

type searchMeta struct {
	Count     int     `json:"count"`
	LatencyMs float64 `json:"latency_ms"`
}

func (svc *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	startedAt := time.Now()

	results, err := svc.engine.Search(r.Context(), query)
	if err != nil {
		svc.config.Logger.WithField("query", query).WithField("err", err).Error(
			"search failed",
		)
		svc.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "search failed",
		})

		return
	}

	latency := time.Since(startedAt)

	svc.writeJSON(w, http.StatusOK, searchResponse{
		Query:   query,
		Results: results,
		Meta: searchMeta{
			Count:     len(results),
			LatencyMs: float64(latency.Microseconds()) / 1000.0,
		},
	})
}

func (svc *Service) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		svc.config.Logger.WithField("err", err).Error(
			fmt.Sprintf("unable to encode %T response", body),
		)
	}
}
