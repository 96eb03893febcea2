// Package http exposes the thin JSON API the presentation layer talks to:
// ledger mutations, calculation triggering, state snapshots, and estimate
// history.
package http

import (
	"net/http"
	"sync/atomic"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/ledger"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

const historyCacheKey = "history"

type appMetrics struct {
	uptime         time.Time
	totalEstimates int64
	cacheHits      int64
	cacheMisses    int64
}

type Server struct {
	http.Server

	service *services.EstimateService
	ledger  *ledger.Ledger

	rateLimiter  *rateLimiter
	historyCache *cache.LRU[[]storage.EstimateRecord]
	cacheManager *cache.Manager
	historyLimit int

	requestTimeout time.Duration
	appMetrics     *appMetrics
}

// Options tunes server behaviour; zero values fall back to defaults.
type Options struct {
	RequestTimeout  time.Duration
	HistoryCacheTTL time.Duration
	HistoryLimit    int
}

func NewServer(addr string, service *services.EstimateService, l *ledger.Ledger, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.HistoryCacheTTL <= 0 {
		opts.HistoryCacheTTL = 30 * time.Second
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}

	s := &Server{
		service:        service,
		ledger:         l,
		rateLimiter:    newRateLimiter(),
		historyCache:   cache.NewLRU[[]storage.EstimateRecord](4, opts.HistoryCacheTTL),
		cacheManager:   cache.NewManager(),
		historyLimit:   opts.HistoryLimit,
		requestTimeout: opts.RequestTimeout,
		appMetrics:     &appMetrics{uptime: time.Now()},
	}
	s.cacheManager.Register(s.historyCache)
	s.cacheManager.StartCleanup(5 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleAddExpense)
	mux.HandleFunc("PATCH /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("GET /api/expenses/total", s.handleExpenseTotal)

	mux.HandleFunc("POST /api/estimate", s.handleCalculate)
	mux.HandleFunc("GET /api/estimate", s.handleState)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.withMiddleware(mux),
	}

	return s
}

// withMiddleware wraps the mux with request tracing, rate limiting, and
// security headers, innermost first.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return securityHeaders(s.requestLogging(s.rateLimit(next)))
}

// CacheStats reports history cache hit counters for the metrics endpoint.
func (s *Server) cacheStats() (hits, misses int64) {
	return atomic.LoadInt64(&s.appMetrics.cacheHits), atomic.LoadInt64(&s.appMetrics.cacheMisses)
}

// Stop releases server-held resources other than the listener.
func (s *Server) Stop() {
	s.rateLimiter.stop()
	s.cacheManager.Stop()
}
