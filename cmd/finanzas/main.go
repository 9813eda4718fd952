package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finanzas/internal/auth"
	"finanzas/internal/backend"
	"finanzas/internal/cli"
	apphttp "finanzas/internal/http"
	"finanzas/internal/log"
	"finanzas/internal/middleware/ratelimit"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	logger.Info("Starting finanzas server")

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
	app.Caches.StartCleanup(ctx, time.Minute)

	authenticator := auth.New(cfg.JWTSecret, cfg.JWTIssuer)
	if cfg.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set - trusting the " + auth.HeaderUserID + " header")
	}

	srv, err := apphttp.NewServer(cfg.Addr(), apphttp.Deps{
		Accounts:      app.Accounts,
		Categories:    app.Categories,
		Goals:         app.Goals,
		Subscriptions: app.Subscriptions,
		Transactions:  app.Transactions,
		Summary:       app.Summary,
		Auth:          authenticator,
		Ready:         []apphttp.ReadinessCheck{{Name: "database", Check: app.Repo.Ping}},
	}, apphttp.Options{
		HideForeignResources: cfg.HideForeignResources,
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		},
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Listening", "addr", cfg.Addr(), "hide_foreign", cfg.HideForeignResources, "lock", cfg.LockBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "addr", cfg.Addr())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
