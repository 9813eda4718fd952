package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/backend"
	"finanzas/internal/cli"
	"finanzas/internal/log"
	"finanzas/internal/services"
	"finanzas/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting ledger-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)

	app, err := factory.Build(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	broker, err := factory.NewBroker(bcfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer broker.Close()

	mirror, err := factory.NewMirror(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize ledger mirror", log.FieldError, err)
		os.Exit(1)
	}
	mirrorWorker := worker.NewMirrorWorker(mirror, logger)

	relayCfg := services.DefaultOutboxRelayConfig()
	relayCfg.PollInterval = cfg.OutboxPollInterval
	relayCfg.BatchSize = cfg.OutboxBatchSize
	relay := services.NewOutboxRelay(app.Repo, broker, relayCfg, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := relay.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return relay.Stop(stopCtx)
	})

	g.Go(func() error {
		err := broker.ConsumeLedgerEvents(gctx, mirrorWorker.HandleLedgerEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
