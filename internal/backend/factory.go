package backend

import (
	"context"
	"fmt"
	"time"

	goredislib "github.com/redis/go-redis/v9"

	"finanzas/internal/amqp"
	"finanzas/internal/cache"
	"finanzas/internal/ledger"
	"finanzas/internal/lock"
	"finanzas/internal/log"
	"finanzas/internal/services"
	gsheet "finanzas/internal/sheets/google"
	"finanzas/internal/sheets/memory"
	"finanzas/internal/storage"
)

// Factory wires the ledger from configuration.
type Factory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Build opens the database, picks the locker and assembles the engine and
// services. The caller owns the returned App and must Close it.
func (f *Factory) Build(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	app := &App{Repo: repo}
	app.onClose(repo.Close)

	locker, closeLocker, err := f.newLocker(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Locker = locker
	if closeLocker != nil {
		app.onClose(closeLocker)
	}

	size, ttl := cfg.SummaryCacheSize, cfg.SummaryCacheTTL
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	summaryCache := cache.NewLRUCache[services.MonthlySummary](size, ttl)
	app.Caches = cache.NewManager()
	app.Caches.Register(summaryCache)
	app.onClose(func() error {
		app.Caches.Stop()
		return nil
	})
	app.Summary = services.NewSummaryService(repo, repo, summaryCache)

	opts := []ledger.Option{
		ledger.WithLogger(f.logger.WithComponent(log.ComponentLedger)),
		ledger.WithCommitHook(app.Summary.Invalidate),
	}
	if cfg.OpTimeout > 0 {
		opts = append(opts, ledger.WithTimeout(cfg.OpTimeout))
	}
	app.Engine = ledger.NewEngine(repo, locker, opts...)

	app.Accounts = services.NewAccountService(repo, locker).OnChange(app.Summary.Invalidate)
	app.Categories = services.NewCategoryService(repo)
	app.Goals = services.NewGoalService(repo)
	app.Subscriptions = services.NewSubscriptionService(repo, app.Engine, locker)
	app.Transactions = services.NewTransactionService(app.Engine, repo)
	app.Processor = services.NewSubscriptionProcessor(repo, app.Engine, cfg.MaxCatchUp, f.logger)

	f.logger.InfoContext(ctx, "Ledger initialized",
		"db_path", cfg.SQLiteDBPath,
		"lock", cfg.Lock.String(),
		"op_timeout", cfg.OpTimeout.String())
	return app, nil
}

func (f *Factory) newLocker(ctx context.Context, cfg Config) (ledger.Locker, CleanupFunc, error) {
	switch cfg.Lock {
	case LocalLock, "":
		return lock.NewLocal(), nil, nil
	case RedisLock:
		opts, err := goredislib.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := goredislib.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		f.logger.InfoContext(ctx, "Using Redis locks", "addr", opts.Addr)
		return lock.NewRedis(client, lock.DefaultOptions()), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported lock type: %s", cfg.Lock)
	}
}

// NewMirror returns the Google Sheets mirror when a spreadsheet is
// configured and an in-memory one otherwise.
func (f *Factory) NewMirror(ctx context.Context, cfg Config) (Mirror, error) {
	if cfg.Sheets.SpreadsheetID == "" {
		f.logger.InfoContext(ctx, "Google Sheets disabled - mirroring in memory")
		return memory.New(), nil
	}
	client, err := gsheet.New(log.NewContext(ctx, f.logger), cfg.Sheets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Google Sheets mirror initialized", "spreadsheet_id", cfg.Sheets.SpreadsheetID)
	return client, nil
}

// NewBroker connects to RabbitMQ.
func (f *Factory) NewBroker(cfg Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		return nil, fmt.Errorf("AMQP URL is required")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}
	return client, nil
}
