package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

// EventPublisher delivers a ledger event to the broker.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev core.LedgerEvent) error
}

// OutboxPruner is implemented by stores that can drop delivered events.
type OutboxPruner interface {
	PrunePublishedEvents(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRelayConfig holds configuration for the outbox relay
type OutboxRelayConfig struct {
	// PollInterval is how often to check for pending events (default: 2s)
	PollInterval time.Duration

	// BatchSize is the max number of events to publish per poll cycle (default: 50)
	BatchSize int

	// WarnAttempts is the attempt count after which a stuck event is logged at error level (default: 5)
	WarnAttempts int

	// CleanupInterval is how often to prune published events (default: 1h)
	CleanupInterval time.Duration

	// CleanupAge is how old published events must be before pruning (default: 24h)
	CleanupAge time.Duration
}

func DefaultOutboxRelayConfig() OutboxRelayConfig {
	return OutboxRelayConfig{
		PollInterval:    2 * time.Second,
		BatchSize:       50,
		WarnAttempts:    5,
		CleanupInterval: 1 * time.Hour,
		CleanupAge:      24 * time.Hour,
	}
}

// OutboxRelay moves committed ledger events from the database to the
// broker. Events go out in commit order; a failed publish ends the batch so
// a later event never overtakes an earlier one.
type OutboxRelay struct {
	store     OutboxStore
	publisher EventPublisher
	config    OutboxRelayConfig
	logger    *log.Logger
	clock     clock

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewOutboxRelay(store OutboxStore, publisher EventPublisher, config OutboxRelayConfig, logger *log.Logger) *OutboxRelay {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &OutboxRelay{
		store:     store,
		publisher: publisher,
		config:    config,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the relay loop. Returns an error if already running.
func (r *OutboxRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("outbox relay is already running")
	}
	if r.store == nil || r.publisher == nil {
		r.mu.Unlock()
		return fmt.Errorf("outbox relay not properly initialized")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	r.logger.InfoContext(ctx, "Outbox relay started",
		"poll_interval", r.config.PollInterval,
		"batch_size", r.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the current batch to finish.
func (r *OutboxRelay) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	close(r.stopCh)

	select {
	case <-r.doneCh:
		r.logger.InfoContext(ctx, "Outbox relay stopped gracefully")
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Outbox relay stop timed out")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return nil
}

func (r *OutboxRelay) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *OutboxRelay) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	pollTicker := time.NewTicker(r.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(r.config.CleanupInterval)
	defer cleanupTicker.Stop()

	r.RelayBatch(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			r.RelayBatch(ctx)
		case <-cleanupTicker.C:
			r.prune(ctx)
		}
	}
}

// RelayBatch publishes one batch of pending events and returns how many
// went out.
func (r *OutboxRelay) RelayBatch(ctx context.Context) int {
	events, err := r.store.PendingEvents(ctx, r.config.BatchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load pending events", log.FieldError, err.Error())
		return 0
	}
	if len(events) == 0 {
		return 0
	}

	r.logger.DebugContext(ctx, "Relaying outbox batch", "count", len(events))

	published := 0
	for _, ev := range events {
		select {
		case <-r.stopCh:
			return published
		case <-ctx.Done():
			return published
		default:
		}

		if err := r.publisher.PublishLedgerEvent(ctx, ev); err != nil {
			r.handleFailure(ctx, ev, err)
			return published
		}
		if err := r.store.MarkEventPublished(ctx, ev.ID, r.clock.now()); err != nil {
			// The event went out; it will be sent again and consumers see a duplicate.
			r.logger.ErrorContext(ctx, "Failed to mark event published",
				log.FieldEventID, ev.ID, log.FieldError, err.Error())
			return published
		}
		published++
	}
	return published
}

func (r *OutboxRelay) handleFailure(ctx context.Context, ev core.LedgerEvent, publishErr error) {
	if err := r.store.RecordEventAttempt(ctx, ev.ID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to record publish attempt",
			log.FieldEventID, ev.ID, log.FieldError, err.Error())
	}

	attempt := ev.Attempts + 1
	fields := []any{
		log.FieldEventID, ev.ID,
		log.FieldOperation, log.OpPublish,
		"event_type", string(ev.Type),
		"attempt", attempt,
		log.FieldError, publishErr.Error(),
	}
	if r.config.WarnAttempts > 0 && attempt >= r.config.WarnAttempts {
		r.logger.ErrorContext(ctx, "Outbox event keeps failing to publish", fields...)
		return
	}
	r.logger.WarnContext(ctx, "Outbox publish failed, will retry", fields...)
}

func (r *OutboxRelay) prune(ctx context.Context) {
	pruner, ok := r.store.(OutboxPruner)
	if !ok {
		return
	}
	n, err := pruner.PrunePublishedEvents(ctx, r.clock.now().Add(-r.config.CleanupAge))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to prune published events", log.FieldError, err.Error())
		return
	}
	if n > 0 {
		r.logger.InfoContext(ctx, "Pruned published events", "count", n)
	}
}
