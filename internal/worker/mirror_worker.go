package worker

import (
	"context"
	"fmt"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/sheets"
)

const (
	versionCacheSize = 10000
	versionCacheTTL  = 24 * time.Hour
)

// MirrorWorker applies ledger events to the spreadsheet mirror. Messages
// carry the full transaction, so the worker never touches the ledger
// database.
type MirrorWorker struct {
	mirror sheets.LedgerMirror
	// versions remembers the newest event applied per transaction so a
	// redelivered older event cannot resurrect or roll back a row.
	versions cache.Cache[time.Time]
	logger   *log.Logger
}

func NewMirrorWorker(mirror sheets.LedgerMirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		mirror:   mirror,
		versions: cache.NewLRUCache[time.Time](versionCacheSize, versionCacheTTL),
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// VersionCache exposes the version cache so it can be registered for
// periodic cleanup.
func (w *MirrorWorker) VersionCache() cache.Cache[time.Time] {
	return w.versions
}

// HandleLedgerEvent is an amqp.Handler. A returned error requeues the message.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	txID := msg.Transaction.ID
	if txID == "" {
		w.logger.WarnContext(ctx, "Dropping event without transaction", log.FieldEventID, msg.EventID)
		return nil
	}

	if last, ok := w.versions.Get(txID); ok && msg.OccurredAt.Before(last) {
		w.logger.InfoContext(ctx, "Skipping stale ledger event",
			log.FieldEventID, msg.EventID,
			log.FieldTransactionID, txID,
			"type", msg.Type)
		return nil
	}

	var err error
	switch msg.Type {
	case core.EventTransactionDeleted:
		err = w.mirror.Remove(ctx, txID)
	default:
		err = w.mirror.Upsert(ctx, sheets.RowFromTransaction(msg.Transaction))
	}
	if err != nil {
		w.logger.LogError(ctx, "Failed to mirror ledger event", err, log.OpSync, "",
			log.NewFields().WithOwner(msg.Owner).WithTransaction(txID, string(msg.Type), "", "", ""))
		return fmt.Errorf("mirror %s %s: %w", msg.Type, txID, err)
	}

	w.versions.Set(txID, msg.OccurredAt)
	w.logger.InfoContext(ctx, "Mirrored ledger event",
		log.FieldEventID, msg.EventID,
		log.FieldTransactionID, txID,
		log.FieldOwner, msg.Owner,
		"type", msg.Type)
	return nil
}

// ReconcileResult counts what Reconcile changed.
type ReconcileResult struct {
	Upserted int
	Removed  int
}

// Reconcile makes the mirror's rows for owner match want. It is the backup
// path for events lost while the worker was down.
func (w *MirrorWorker) Reconcile(ctx context.Context, reader sheets.MirrorReader, owner string, want []core.Transaction) (ReconcileResult, error) {
	var res ReconcileResult

	have, err := reader.Rows(ctx)
	if err != nil {
		return res, fmt.Errorf("read mirror: %w", err)
	}
	current := make(map[string]sheets.MirrorRow, len(have))
	for _, row := range have {
		if row.Owner == owner {
			current[row.TransactionID] = row
		}
	}

	for _, t := range want {
		row := sheets.RowFromTransaction(t)
		if existing, ok := current[t.ID]; ok {
			delete(current, t.ID)
			if existing == row {
				continue
			}
		}
		if err := w.mirror.Upsert(ctx, row); err != nil {
			return res, fmt.Errorf("upsert %s: %w", t.ID, err)
		}
		res.Upserted++
	}

	for id := range current {
		if err := w.mirror.Remove(ctx, id); err != nil {
			return res, fmt.Errorf("remove %s: %w", id, err)
		}
		res.Removed++
	}

	w.logger.InfoContext(ctx, "Mirror reconciled",
		log.FieldOwner, owner,
		"checked", len(want),
		"upserted", res.Upserted,
		"removed", res.Removed)
	return res, nil
}
