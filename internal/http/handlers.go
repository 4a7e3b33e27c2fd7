package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"orcamento/internal/log"
)

// healthTimeout bounds the store ping behind GET /health.
const healthTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// handleHealth reports whether the store answers a ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if s.health == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "unknown"})
		return
	}

	if err := s.health.Ping(ctx); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentStorage).WarnContext(r.Context(), "Health check failed",
			log.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "disconnected"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "connected"})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	expensesSaved := atomic.LoadInt64(&s.appMetrics.expensesSaved)
	expensesDeleted := atomic.LoadInt64(&s.appMetrics.expensesDeleted)
	budgetsSet := atomic.LoadInt64(&s.appMetrics.budgetsSet)
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	writeMetric(w, "http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	writeMetric(w, "http_server_errors_total", "Responses with a 5xx status", "counter", traceMetrics.ServerErrors)
	fmt.Fprintf(w, "# HELP http_response_time_avg_ms Average response time in milliseconds\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_ms gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_ms %.3f\n\n", float64(traceMetrics.AverageResponseTime().Microseconds())/1000)

	writeMetric(w, "expenses_saved_total", "Expenses created or replaced", "counter", expensesSaved)
	writeMetric(w, "expenses_deleted_total", "Expenses deleted", "counter", expensesDeleted)
	writeMetric(w, "budgets_set_total", "Budget limits created or replaced", "counter", budgetsSet)

	writeMetric(w, "rate_limit_hits_total", "Total rate limit hits", "counter", rateLimitMetrics.TotalHits)
	writeMetric(w, "active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rateLimitMetrics.ClientCount)
	writeMetric(w, "rate_limit_evictions_total", "Clients dropped from a full rate limit table", "counter", rateLimitMetrics.Evictions)
	writeMetric(w, "suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	writeMetric(w, "invalid_ip_attempts_total", "Forwarded client addresses that failed to parse", "counter", securityMetrics.InvalidIPAttempts)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}

func writeMetric(w http.ResponseWriter, name, help, kind string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
