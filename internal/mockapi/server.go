package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/okian/runboard/pkg/logger"
	"github.com/okian/runboard/pkg/metrics"
)

const defaultPageMax = 200

// Server is an HTTP server speaking the upstream leaderboard API
// dialect. Every payload is wrapped in a data envelope and the runs
// endpoint paginates with max and offset query parameters, so a client
// built against the real API works against the mock unchanged.
type Server struct {
	config   *Config
	dataset  *Dataset
	requests atomic.Int64
	limited  atomic.Int64
	log      logger.Logger
}

// NewServer creates a Server for the given dataset.
func NewServer(config *Config, dataset *Dataset, opts ...Option) *Server {
	s := &Server{
		config:  config,
		dataset: dataset,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routing for the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/games/", s.handleGame)
	mux.HandleFunc("/api/v1/users/", s.handleUser)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// ListenAndServe serves the mock API on the configured address.
func (s *Server) ListenAndServe() error {
	server := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info(context.Background(), "mock api listening",
		logger.String("addr", s.config.Addr),
		logger.Int("runs", len(s.dataset.Runs)),
		logger.Int("players", len(s.dataset.Players)))
	return server.ListenAndServe()
}

// Stats reports counters for the current session.
func (s *Server) Stats() Stats {
	return Stats{
		RunsGenerated:    len(s.dataset.Runs),
		RequestsServed:   int(s.requests.Load()),
		RateLimitsIssued: int(s.limited.Load()),
	}
}

// gate applies latency and rate-limit injection. It returns false when
// the request was answered with a 429 and must not proceed.
func (s *Server) gate(w http.ResponseWriter, r *http.Request) bool {
	n := s.requests.Add(1)

	if s.config.Latency > 0 {
		time.Sleep(s.config.Latency)
	}

	if s.config.RateLimitEvery > 0 && n%int64(s.config.RateLimitEvery) == 0 {
		s.limited.Add(1)
		retryAfter := s.config.RetryAfterSeconds
		if retryAfter <= 0 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		w.WriteHeader(http.StatusTooManyRequests)
		if s.config.Verbose {
			s.log.Info(r.Context(), "rate limit injected", logger.String("path", r.URL.Path))
		}
		return false
	}
	return true
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r) {
		return
	}

	if game := r.URL.Query().Get("game"); game != "" && game != s.dataset.GameID {
		writeEnvelope(w, []runDoc{})
		return
	}

	max := queryInt(r, "max", defaultPageMax)
	offset := queryInt(r, "offset", 0)

	runs := s.dataset.Runs
	if offset >= len(runs) {
		writeEnvelope(w, []runDoc{})
		return
	}
	end := offset + max
	if end > len(runs) {
		end = len(runs)
	}
	writeEnvelope(w, runs[offset:end])
}

// handleGame serves the category and level catalogs under
// /api/v1/games/{id}/categories and /api/v1/games/{id}/levels.
func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/games/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] != s.dataset.GameID {
		http.NotFound(w, r)
		return
	}

	switch parts[1] {
	case "categories":
		writeEnvelope(w, s.dataset.Categories)
	case "levels":
		writeEnvelope(w, s.dataset.Levels)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/users/")
	for _, p := range s.dataset.Players {
		if p.ID == id {
			writeEnvelope(w, map[string]any{
				"id":    p.ID,
				"names": map[string]string{"international": p.Name},
			})
			return
		}
	}
	http.NotFound(w, r)
}

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
