package http

import (
	"context"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady probes every registered dependency with a shared deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]any, len(s.deps.Ready)+1)
	for _, c := range s.deps.Ready {
		if err := c.Check(ctx); err != nil {
			checks[c.Name] = "failed: " + err.Error()
			status = "not_ready"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}

	tm := s.tracer.GetMetrics()
	checks["http"] = map[string]any{
		"total_requests":       tm.TotalRequests,
		"in_flight":            tm.InFlight,
		"rate_limited_clients": s.rateLimiter.ActiveClients(),
		"rate_limit_hits":      s.rateLimiter.GetMetrics().TotalHits,
		"blocked_requests":     s.detector.GetMetrics().BlockedRequests,
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}
