package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	return New(Config{Level: level, Format: "json", Component: ComponentLedger, Output: buf})
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, slog.LevelInfo)
	assert.Equal(t, ComponentLedger, l.Component())

	l.Info("one")
	l.With(FieldOwner, "alice").Info("two")
	l.WithComponent(ComponentHTTP).With(FieldOwner, "bob").Info("three")

	got := lines(t, &buf)
	require.Len(t, got, 3)
	assert.Equal(t, ComponentLedger, got[0][FieldComponent])
	assert.Equal(t, ComponentLedger, got[1][FieldComponent])
	assert.Equal(t, "alice", got[1][FieldOwner])
	assert.Equal(t, ComponentHTTP, got[2][FieldComponent])
	assert.Equal(t, "bob", got[2][FieldOwner])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, slog.LevelWarn)
	l.Info("hidden")
	l.Warn("shown")

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "shown", got[0]["msg"])
}

func TestLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, slog.LevelInfo)
	l.LogError(context.Background(), "apply failed", errors.New("boom"), OpApply, "fatal", nil)

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "ERROR", got[0]["level"])
	assert.Equal(t, "boom", got[0][FieldError])
	assert.Equal(t, "fatal", got[0][FieldErrorClass])
	assert.Equal(t, OpApply, got[0][FieldOperation])
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, slog.LevelInfo)

	ctx := WithOwner(NewContext(context.Background(), l), "alice")
	FromContext(ctx).Info("scoped")

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0][FieldOwner])

	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestLogHTTPEnd_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{503, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		ctx := NewContext(context.Background(), jsonLogger(&buf, slog.LevelDebug))
		r := httptest.NewRequest("GET", "/transactions?limit=5", nil)

		LogHTTPEnd(ctx, r, tt.status, 12, "10.0.0.1")

		got := lines(t, &buf)
		require.Len(t, got, 1)
		assert.Equal(t, tt.level, got[0]["level"], "status %d", tt.status)
		assert.Equal(t, ComponentHTTP, got[0][FieldComponent])
		assert.Equal(t, "/transactions", got[0][FieldPath])
		assert.Equal(t, float64(tt.status), got[0][FieldStatusCode])
	}
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}
