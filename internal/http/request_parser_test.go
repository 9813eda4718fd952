package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"finanzas/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{"defaults to now", url.Values{}, 2024, 3, false},
		{"explicit", url.Values{"year": {"2023"}, "month": {"12"}}, 2023, 12, false},
		{"only month", url.Values{"month": {"7"}}, 2024, 7, false},
		{"bad month", url.Values{"month": {"abc"}}, 0, 0, true},
		{"bad year", url.Values{"year": {"20x4"}}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParams(tt.query, now)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidDate) {
					t.Fatalf("err = %v, want ErrInvalidDate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("got %d-%d, want %d-%d", got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParsePageParams(t *testing.T) {
	p, err := ParsePageParams(url.Values{"limit": {"25"}, "offset": {"50"}})
	if err != nil || p.Limit != 25 || p.Offset != 50 {
		t.Fatalf("got %+v, %v", p, err)
	}
	if _, err := ParsePageParams(url.Values{"limit": {"-1"}}); !errors.Is(err, errBadRequest) {
		t.Fatalf("negative limit: err = %v", err)
	}
	if _, err := ParsePageParams(url.Values{"offset": {"x"}}); !errors.Is(err, errBadRequest) {
		t.Fatalf("bad offset: err = %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     bool
	}{
		{"valid", `{"name":"x"}`, "application/json", false},
		{"charset suffix", `{"name":"x"}`, "application/json; charset=utf-8", false},
		{"no content type", `{"name":"x"}`, "", false},
		{"form content type", `name=x`, "application/x-www-form-urlencoded", true},
		{"empty", ``, "application/json", true},
		{"unknown field", `{"name":"x","admin":true}`, "application/json", true},
		{"trailing object", `{"name":"x"}{"name":"y"}`, "application/json", true},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "application/json", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), r, &p)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("err = %v, want errBadRequest", err)
				}
				return
			}
			if err != nil || p.Name != "x" {
				t.Fatalf("got %+v, %v", p, err)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  caf\x00e\tbar\n "); got != "cafe\tbar" {
		t.Errorf("sanitizeInput = %q", got)
	}
	if sanitizePtr(nil) != nil {
		t.Error("nil stays nil")
	}
}
