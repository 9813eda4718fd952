package backend

import (
	"errors"

	"finanzas/internal/cache"
	"finanzas/internal/ledger"
	"finanzas/internal/services"
	"finanzas/internal/sheets"
	"finanzas/internal/storage"
)

// Mirror is the spreadsheet copy of the ledger.
type Mirror interface {
	sheets.LedgerMirror
	sheets.MirrorReader
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// App is the wired ledger shared by every binary: storage, locking, the
// engine and the services built on it.
type App struct {
	Repo   *storage.SQLiteRepository
	Locker ledger.Locker
	Engine *ledger.Engine

	Accounts      *services.AccountService
	Categories    *services.CategoryService
	Goals         *services.GoalService
	Subscriptions *services.SubscriptionService
	Transactions  *services.TransactionService
	Summary       *services.SummaryService
	Processor     *services.SubscriptionProcessor

	Caches *cache.Manager

	cleanups []CleanupFunc
}

func (a *App) onClose(fn CleanupFunc) {
	a.cleanups = append(a.cleanups, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}

// LockType selects the ledger.Locker implementation.
type LockType string

const (
	LocalLock LockType = "local"
	RedisLock LockType = "redis"
)

// String implements fmt.Stringer
func (lt LockType) String() string {
	return string(lt)
}

// IsValid returns true if the lock type is valid
func (lt LockType) IsValid() bool {
	switch lt {
	case LocalLock, RedisLock:
		return true
	default:
		return false
	}
}
