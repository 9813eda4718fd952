// Package lock serializes ledger work per account. Local guards a single
// process; Redis coordinates several processes sharing one database.
package lock

import (
	"context"
	"sort"
	"sync"
)

// normalize sorts and de-duplicates keys, dropping empty ones. Every
// implementation acquires in this order.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process keyed mutex. Waiting honours context cancellation.
type Local struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewLocal() *Local {
	return &Local{entries: make(map[string]*entry)}
}

func (l *Local) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.release(key, false)
		return ctx.Err()
	}
}

func (l *Local) release(key string, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[key]
	if held {
		<-e.ch
	}
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *Local) WithLocks(ctx context.Context, keys []string, fn func(context.Context) error) error {
	keys = normalize(keys)
	acquired := 0
	defer func() {
		for i := acquired - 1; i >= 0; i-- {
			l.release(keys[i], true)
		}
	}()
	for _, k := range keys {
		if err := l.acquire(ctx, k); err != nil {
			return err
		}
		acquired++
	}
	return fn(ctx)
}
