// Package api exposes the analytics queries over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/liamashdown/polymonitor/internal/analytics"
	"github.com/liamashdown/polymonitor/internal/cache"
	"github.com/liamashdown/polymonitor/internal/config"
	"github.com/liamashdown/polymonitor/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Querier runs the analytics queries
type Querier interface {
	SmartMoney(ctx context.Context, opts analytics.SmartMoneyOptions) ([]analytics.SmartMoneyEntry, error)
	Whales(ctx context.Context, opts analytics.WhaleOptions) ([]analytics.Whale, error)
	TopProfit(ctx context.Context, opts analytics.TopProfitOptions) ([]analytics.ProfitRanking, error)
	HotMarkets(ctx context.Context, opts analytics.HotMarketOptions) ([]analytics.HotMarket, error)
	UserProfit(ctx context.Context, opts analytics.UserProfitOptions) (analytics.UserProfitReport, error)
}

// Syncer refreshes the store on demand
type Syncer interface {
	SyncAll(ctx context.Context) error
}

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers
type Server struct {
	cfg     *config.Config
	queries Querier
	syncer  Syncer
	db      Pinger
	cache   cache.Cache
	log     *logrus.Logger
}

// NewServer creates a server. syncer may be nil, which disables /admin/sync;
// a nil cache disables response caching.
func NewServer(cfg *config.Config, queries Querier, syncer Syncer, db Pinger, c cache.Cache, log *logrus.Logger) *Server {
	if c == nil {
		c = cache.Noop{}
	}
	return &Server{
		cfg:     cfg,
		queries: queries,
		syncer:  syncer,
		db:      db,
		cache:   c,
		log:     log,
	}
}

// Router builds the chi router with all routes mounted
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware(routePattern))

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", metrics.Handler())

	r.Get("/monitor/smart-money", s.smartMoney)
	r.Get("/monitor/whales", s.whales)
	r.Get("/rankings/top-profit", s.topProfit)
	r.Get("/markets/hot", s.hotMarkets)
	r.Get("/users/{userID}/profit", s.userProfit)

	r.Post("/admin/sync", s.adminSync)

	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	metrics.RecordHealthCheck(true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			metrics.RecordHealthCheck(false)
			s.log.WithError(err).Warn("Readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	metrics.RecordHealthCheck(true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) adminSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeError(w, "sync is not configured", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	if err := s.syncer.SyncAll(r.Context()); err != nil {
		s.log.WithError(err).Error("On-demand sync failed")
		writeError(w, "sync failed", http.StatusInternalServerError)
		return
	}
	if err := s.cache.Purge(r.Context()); err != nil {
		s.log.WithError(err).Warn("Failed to purge result cache")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"status":      "ok",
			"duration_ms": time.Since(start).Milliseconds(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
