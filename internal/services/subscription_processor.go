package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

// DefaultMaxCatchUp bounds how many missed periods one run bills per
// subscription.
const DefaultMaxCatchUp = 12

// ProcessResult summarizes one billing run.
type ProcessResult struct {
	Checked  int
	Charged  int
	Failed   int
	Deferred int
}

// SubscriptionProcessor charges subscriptions that carry a default account
// once their next billing date has arrived.
type SubscriptionProcessor struct {
	store      DueSubscriptionStore
	ledger     Ledger
	maxCatchUp int
	logger     *log.Logger
}

func NewSubscriptionProcessor(store DueSubscriptionStore, l Ledger, maxCatchUp int, logger *log.Logger) *SubscriptionProcessor {
	if maxCatchUp < 1 {
		maxCatchUp = DefaultMaxCatchUp
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &SubscriptionProcessor{
		store:      store,
		ledger:     l,
		maxCatchUp: maxCatchUp,
		logger:     logger.WithComponent(log.ComponentSubscription),
	}
}

// ProcessDue bills every period that is due on now's date. A subscription
// several periods behind is caught up one period at a time, at most
// maxCatchUp periods per run; the rest are left for the next run.
func (p *SubscriptionProcessor) ProcessDue(ctx context.Context, now time.Time) (ProcessResult, error) {
	if p.store == nil || p.ledger == nil {
		return ProcessResult{}, fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(now)
	due, err := p.store.DueSubscriptions(ctx, today)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("failed to get due subscriptions: %w", err)
	}

	p.logger.InfoContext(ctx, "Processing due subscriptions",
		"total_due", len(due),
		"processing_date", today.String())

	var res ProcessResult
	for _, sub := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++
		p.catchUp(ctx, sub, today, &res)
	}

	p.logger.InfoContext(ctx, "Subscription processing complete",
		"charged", res.Charged,
		"failed", res.Failed,
		"deferred", res.Deferred,
		"total_checked", res.Checked)
	return res, nil
}

func (p *SubscriptionProcessor) catchUp(ctx context.Context, sub core.Subscription, today core.Date, res *ProcessResult) {
	for i := 0; i < p.maxCatchUp; i++ {
		charged, updated, err := p.ledger.ChargeDue(ctx, sub.Owner, sub.ID, sub.DefaultAccount, today)
		if errors.Is(err, core.ErrNotDue) {
			return
		}
		if err != nil {
			res.Failed++
			p.logger.ErrorContext(ctx, "Failed to charge subscription",
				log.FieldSubscription, sub.ID,
				log.FieldOwner, sub.Owner,
				log.FieldAccount, sub.DefaultAccount,
				log.FieldError, err.Error(),
				log.FieldErrorClass, string(core.Classify(err)))
			return
		}

		res.Charged++
		p.logger.InfoContext(ctx, "Charged subscription period",
			log.FieldSubscription, sub.ID,
			log.FieldTransactionID, charged.ID,
			log.FieldAmount, charged.Amount.String(),
			"billed", charged.Date.String(),
			"next_billing_date", updated.NextBillingDate.String())

		if updated.NextBillingDate.After(today.Time) {
			return
		}
	}
	res.Deferred++
	p.logger.WarnContext(ctx, "Subscription still behind after catch-up limit",
		log.FieldSubscription, sub.ID,
		"max_catch_up", p.maxCatchUp)
}
