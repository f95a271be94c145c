package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"tracker/internal/cache"
)

// appMetrics counts successful writes since startup.
type appMetrics struct {
	startedAt time.Time
	created   int64
	updated   int64
	deleted   int64
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := s.svc.Ping(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	cacheEntries := 0
	if c := s.svc.Cache(); c != nil {
		cacheEntries = c.Size()
	}
	checks["cache"] = map[string]any{
		"entries": cacheEntries,
		"status":  "ok",
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	var cacheStats cache.Stats
	cacheEntries := 0
	if c := s.svc.Cache(); c != nil {
		cacheEntries = c.Size()
		cacheStats = c.Stats()
	}

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Total number of 5xx responses\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP transaction_writes_total Successful transaction writes\n")
	fmt.Fprintf(w, "# TYPE transaction_writes_total counter\n")
	fmt.Fprintf(w, "transaction_writes_total{kind=\"created\"} %d\n", atomic.LoadInt64(&s.metrics.created))
	fmt.Fprintf(w, "transaction_writes_total{kind=\"updated\"} %d\n", atomic.LoadInt64(&s.metrics.updated))
	fmt.Fprintf(w, "transaction_writes_total{kind=\"deleted\"} %d\n\n", atomic.LoadInt64(&s.metrics.deleted))

	fmt.Fprintf(w, "# HELP cache_entries Current aggregate cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries %d\n\n", cacheEntries)

	fmt.Fprintf(w, "# HELP cache_lookups_total Aggregate cache lookups by result\n")
	fmt.Fprintf(w, "# TYPE cache_lookups_total counter\n")
	fmt.Fprintf(w, "cache_lookups_total{result=\"hit\"} %d\n", cacheStats.Hits)
	fmt.Fprintf(w, "cache_lookups_total{result=\"miss\"} %d\n\n", cacheStats.Misses)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.metrics.startedAt).Seconds())
}
