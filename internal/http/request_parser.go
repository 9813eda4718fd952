// Package http serves the ledger's JSON API.
//
// This file holds the request decoding helpers shared by every handler.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
)

// maxBodyBytes caps request bodies; ledger payloads are tiny.
const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads year and month from the query, defaulting each to
// the month of now. Values that are present but malformed are rejected.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("%w: year %q", core.ErrInvalidDate, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("%w: month %q", core.ErrInvalidDate, v)
		}
		params.Month = m
	}
	return params, nil
}

// PageParams is a limit/offset window over a list.
type PageParams struct {
	Limit  int
	Offset int
}

// ParsePageParams reads limit and offset; clamping is left to the service.
func ParsePageParams(query url.Values) (PageParams, error) {
	var p PageParams
	for name, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		v := strings.TrimSpace(query.Get(name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
		}
		*dst = n
	}
	return p, nil
}

// DecodeJSON reads one JSON object into dst. Unknown fields are rejected so
// a client cannot believe it changed something the API ignores.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return fmt.Errorf("%w: content type must be application/json", errBadRequest)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxErr.Limit)
		case errors.Is(err, core.ErrInvalidDate):
			return err
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// sanitizeInput trims and strips control characters other than tab and
// newlines from free text.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// sanitizePtr applies sanitizeInput to an optional field.
func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
