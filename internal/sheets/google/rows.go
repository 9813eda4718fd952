package google

import (
	"fmt"
	"strings"
	"sync"
	"time"

	ports "finanzas/internal/sheets"
)

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// columnLetter converts a 1-based column number to its A1 letters.
func columnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// indexRows maps transaction ids in column A to 1-based row numbers and
// reports the last used row. The header row is not indexed.
func indexRows(values [][]interface{}) (map[string]int, int) {
	rows := make(map[string]int, len(values))
	for i, raw := range values {
		if len(raw) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(raw[0]))
		if id == "" || id == ports.Header[0] {
			continue
		}
		rows[id] = i + 1
	}
	return rows, len(values)
}

// rowIndex caches the id to row map between writes so each upsert costs one
// API call instead of two.
type rowIndex struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	rows    map[string]int
	last    int
	fetched time.Time
}

func newRowIndex(ttl time.Duration) *rowIndex {
	return &rowIndex{ttl: ttl, now: time.Now}
}

func (x *rowIndex) get() (map[string]int, int, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.rows == nil || x.now().Sub(x.fetched) > x.ttl {
		return nil, 0, false
	}
	return x.rows, x.last, true
}

func (x *rowIndex) set(rows map[string]int, last int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.rows, x.last, x.fetched = rows, last, x.now()
}

func (x *rowIndex) add(id string, n int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.rows == nil {
		return
	}
	x.rows[id] = n
	if n > x.last {
		x.last = n
	}
}

// removeRow drops id and shifts every row below n up by one.
func (x *rowIndex) removeRow(id string, n int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.rows == nil {
		return
	}
	delete(x.rows, id)
	for k, r := range x.rows {
		if r > n {
			x.rows[k] = r - 1
		}
	}
	if x.last > 0 {
		x.last--
	}
}

func (x *rowIndex) invalidate() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.rows = nil
}
