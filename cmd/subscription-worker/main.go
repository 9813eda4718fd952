package main

import (
	"os"
	"time"

	"finanzas/internal/backend"
	"finanzas/internal/cli"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentSubscription)
	logger.Info("Starting subscription-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	app, err := backend.NewFactory(logger).Build(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	interval := cfg.SubscriptionInterval
	logger.Info("Subscription processor configured",
		"interval", interval,
		"max_catch_up", cfg.SubscriptionMaxCatchUp,
		"sqlite_db", cfg.SQLiteDBPath)

	run := func(now time.Time) {
		res, err := app.Processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Billing run failed", log.FieldError, err)
			return
		}
		logRun(logger, res, now.Add(interval))
	}

	run(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Subscription worker stopped")
			return
		case now := <-ticker.C:
			run(now)
		}
	}
}

func logRun(logger *log.Logger, res services.ProcessResult, next time.Time) {
	logger.Info("Billing run complete",
		"checked", res.Checked,
		"charged", res.Charged,
		"failed", res.Failed,
		"deferred", res.Deferred,
		"next_check", next.Format("15:04:05"))
}
