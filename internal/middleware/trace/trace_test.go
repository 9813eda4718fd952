package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"finanzas/internal/log"
)

func TestMiddlewareAssignsAndEchoesRequestID(t *testing.T) {
	var seen string
	m := NewMiddleware(func(*http.Request) string { return "10.1.1.1" })
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/transactions", nil))
	assert.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rr.Header().Get(HeaderRequestID))

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	req.Header.Set(HeaderRequestID, "client-abc.1")
	h.ServeHTTP(rr, req)
	assert.Equal(t, "client-abc.1", seen)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/accounts", nil)
	req.Header.Set(HeaderRequestID, "bad id with spaces")
	h.ServeHTTP(rr, req)
	assert.NotEqual(t, "bad id with spaces", seen)

	metrics := m.GetMetrics()
	assert.Equal(t, int64(3), metrics.TotalRequests)
	assert.Equal(t, int64(0), metrics.InFlight)
}

func TestMiddlewareLogsCompletionWithStatusLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Level: log.ParseLevel("debug")})

	m := NewMiddleware(nil)
	h := log.Middleware(logger)(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetLogContext(w, log.WithOwner(r.Context(), "alice"))
		w.WriteHeader(http.StatusNotFound)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/goals/x", nil))

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "HTTP request completed")
	assert.Contains(t, out, "status_code=404")
	assert.Contains(t, out, "owner=alice")
	assert.Contains(t, out, "request_id=req_")
}
