package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady runs every registered check under one deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := make(map[string]string, len(s.readyChecks)+1)

	if s.svc.State().Family != nil {
		checks["family"] = "loaded"
	} else {
		checks["family"] = "empty"
	}

	for name, check := range s.readyChecks {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, r, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	sec := s.securityDetector.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	tr := s.traceMiddleware.GetMetrics()

	kids := 0
	if f := s.svc.State().Family; f != nil {
		kids = len(f.Kids)
	}

	type metric struct {
		name, help, kind string
		value            int64
	}
	metrics := []metric{
		{"http_requests_total", "Total number of HTTP requests", "counter", tr.TotalRequests},
		{"http_last_response_time_microseconds", "Duration of the last request", "gauge", tr.LastResponseTimeUS},
		{"actions_applied_total", "Actions applied to the family state", "counter", s.metrics.actionsApplied.Load()},
		{"actions_rejected_total", "Actions rejected by the engine", "counter", s.metrics.actionsRejected.Load()},
		{"kids", "Kids in the loaded family", "gauge", int64(kids)},
		{"rate_limit_hits_total", "Requests refused by the rate limiter", "counter", rl.TotalHits},
		{"rate_limit_clients", "Clients tracked by the rate limiter", "gauge", rl.ClientCount},
		{"security_suspicious_requests_total", "Requests flagged as suspicious", "counter", sec.SuspiciousRequests},
		{"security_blocked_requests_total", "Suspicious requests refused", "counter", sec.BlockedRequests},
		{"uptime_seconds", "Process uptime", "gauge", int64(time.Since(s.metrics.started).Seconds())},
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].name < metrics[j].name })

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}
