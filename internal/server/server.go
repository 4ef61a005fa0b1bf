package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bilal/speedcheck/internal/capture"
	"github.com/bilal/speedcheck/internal/config"
	"github.com/bilal/speedcheck/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Server exposes the interpretation engine and measurement sessions over HTTP.
type Server struct {
	cfg      config.ServerConfig
	registry *capture.Registry
	trend    *metrics.Trend
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	running  int32
	http     *http.Server
}

func New(cfg config.ServerConfig, registry *capture.Registry, trend *metrics.Trend) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		trend:    trend,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadTimeout(),
	}
	return s
}

func (s *Server) SetRunning(ok bool) {
	if ok {
		atomic.StoreInt32(&s.running, 1)
	} else {
		atomic.StoreInt32(&s.running, 0)
	}
}

// Handler returns the routed handler, mostly useful for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/report", s.handleReport)
	mux.Handle("/api/", s.limit(s.apiRoutes()))
	mux.HandleFunc("/ws/sessions/", s.handleWebSocket)
	return mux
}

func (s *Server) apiRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/interpret", s.handleInterpret)
	mux.HandleFunc("/api/trend", s.handleTrend)
	mux.HandleFunc("/api/sessions", s.handleBegin)
	mux.HandleFunc("/api/sessions/", s.handleSession)
	return mux
}

// Serve blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Serve() error {
	log.Info().Str("addr", s.cfg.Address).Msg("http server listening")
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.SetRunning(false)
	return s.http.Shutdown(ctx)
}

func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			log.Warn().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	counts := s.registry.Counts()
	sessions := make(map[string]int, len(counts))
	for state, n := range counts {
		sessions[strings.ToLower(string(state))] = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"running":  atomic.LoadInt32(&s.running) == 1,
		"sessions": sessions,
	})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.trend.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// wait for ping/pong and slow clients
const writeWait = 10 * time.Second
