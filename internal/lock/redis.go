package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

// Options tunes redsync mutexes.
type Options struct {
	Prefix     string
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		Prefix:     "finanzas:lock:",
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 100 * time.Millisecond,
	}
}

// Redis holds one redsync mutex per key for the duration of fn.
type Redis struct {
	rs   *redsync.Redsync
	opts Options
}

func NewRedis(client goredislib.UniversalClient, opts Options) *Redis {
	return &Redis{
		rs:   redsync.New(goredis.NewPool(client)),
		opts: opts,
	}
}

func (r *Redis) WithLocks(ctx context.Context, keys []string, fn func(context.Context) error) error {
	keys = normalize(keys)
	held := make([]*redsync.Mutex, 0, len(keys))

	defer func() {
		// release in reverse; use a fresh context so a cancelled caller still unlocks
		unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if ok, err := held[i].UnlockContext(unlockCtx); !ok || err != nil {
				slog.WarnContext(ctx, "Failed to release lock", "key", held[i].Name(), "ok", ok, "error", err)
			}
		}
	}()

	for _, k := range keys {
		m := r.rs.NewMutex(
			r.opts.Prefix+k,
			redsync.WithExpiry(r.opts.Expiry),
			redsync.WithTries(r.opts.Tries),
			redsync.WithRetryDelay(r.opts.RetryDelay),
		)
		if err := m.LockContext(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("acquire lock %s: %w", k, err)
		}
		held = append(held, m)
	}

	return fn(ctx)
}
