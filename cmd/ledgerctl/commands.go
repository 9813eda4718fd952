package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"finanzas/internal/auth"
	"finanzas/internal/backend"
	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/storage"
	"finanzas/internal/worker"
)

// Commands lists every ledgerctl subcommand.
var Commands = []subcommands.Command{
	&migrateCmd{},
	&verifyCmd{},
	&chargeDueCmd{},
	&resyncMirrorCmd{},
	&auditCmd{},
	&tokenCmd{},
}

// loadConfig reads and validates the environment. Logs go to stderr so
// command output stays clean.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func openApp(ctx context.Context) (*config.Config, *backend.Factory, backend.Config, *backend.App, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, backend.Config{}, nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, backend.Config{}, nil, err
	}
	factory := backend.NewFactory(logger)
	app, err := factory.Build(ctx, bcfg)
	if err != nil {
		return nil, nil, backend.Config{}, nil, err
	}
	return cfg, factory, bcfg, app, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending schema migrations" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate

  Applies every embedded migration not yet recorded in SQLITE_DB_PATH and
  prints the resulting schema version.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, _, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
		return fail(err)
	}
	version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("schema version %d (dirty=%t)\n", version, dirty)
	return subcommands.ExitSuccess
}

type verifyCmd struct {
	all bool
}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "recompute account balances and report drift" }
func (*verifyCmd) Usage() string {
	return `ledgerctl verify [-all]

  Recomputes each account's balance from its opening balance and every
  transaction touching it. Exits non-zero when any stored balance drifts.
`
}

func (c *verifyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Print every account, not only the drifting ones.")
}

func (c *verifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, _, _, app, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer app.Close()

	checks, err := app.Repo.VerifyBalances(ctx)
	if err != nil {
		return fail(err)
	}
	drifting := writeChecks(os.Stdout, checks, c.all)
	fmt.Printf("%d accounts checked, %d drifting\n", len(checks), drifting)
	if drifting > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writeChecks(out io.Writer, checks []storage.BalanceCheck, all bool) int {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OWNER\tACCOUNT\tNAME\tSTORED\tEXPECTED\tDRIFT")
	drifting := 0
	for _, c := range checks {
		if !c.OK() {
			drifting++
		} else if !all {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.Owner, c.AccountID, c.Name,
			core.FormatAmount(c.Stored, c.Currency),
			core.FormatAmount(c.Expected, c.Currency),
			c.Drift().StringFixed(2))
	}
	w.Flush()
	return drifting
}

type chargeDueCmd struct {
	date string
}

func (*chargeDueCmd) Name() string     { return "charge-due" }
func (*chargeDueCmd) Synopsis() string { return "bill subscriptions whose billing date has arrived" }
func (*chargeDueCmd) Usage() string {
	return `ledgerctl charge-due [-date YYYY-MM-DD]

  Runs one billing pass, the same one subscription-worker runs on a timer.
`
}

func (c *chargeDueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Bill as of this date (defaults to today).")
}

func (c *chargeDueCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	now := time.Now().UTC()
	if c.date != "" {
		d, err := core.ParseDate(c.date)
		if err != nil {
			return fail(err)
		}
		now = d.Time
	}

	_, _, _, app, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer app.Close()

	res, err := app.Processor.ProcessDue(ctx, now)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("checked %d, charged %d, failed %d, deferred %d\n", res.Checked, res.Charged, res.Failed, res.Deferred)
	if res.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type resyncMirrorCmd struct {
	owner string
}

func (*resyncMirrorCmd) Name() string     { return "resync-mirror" }
func (*resyncMirrorCmd) Synopsis() string { return "rewrite an owner's spreadsheet rows from the ledger" }
func (*resyncMirrorCmd) Usage() string {
	return `ledgerctl resync-mirror -owner <id>

  Upserts every transaction of the owner into the mirror and removes rows
  whose transaction no longer exists.
`
}

func (c *resyncMirrorCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Owner whose rows are rebuilt (required).")
}

const resyncPageSize = 500

func (c *resyncMirrorCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner := strings.TrimSpace(c.owner)
	if owner == "" {
		return fail(fmt.Errorf("-owner is required"))
	}

	_, factory, bcfg, app, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer app.Close()

	var want []core.Transaction
	for offset := 0; ; offset += resyncPageSize {
		page, err := app.Repo.ListTransactions(ctx, owner, resyncPageSize, offset)
		if err != nil {
			return fail(err)
		}
		want = append(want, page...)
		if len(page) < resyncPageSize {
			break
		}
	}

	mirror, err := factory.NewMirror(ctx, bcfg)
	if err != nil {
		return fail(err)
	}
	res, err := worker.NewMirrorWorker(mirror, nil).Reconcile(ctx, mirror, owner, want)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("upserted %d, removed %d\n", res.Upserted, res.Removed)
	return subcommands.ExitSuccess
}

type auditCmd struct {
	owner  string
	action string
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "list balance corrections the ledger skipped" }
func (*auditCmd) Usage() string {
	return `ledgerctl audit -owner <id> [-action skipped_reversal]

  Prints the owner's audit trail, newest first. Each skipped_reversal entry
  is a deleted transaction whose account was already gone, so its balance
  correction was never applied.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Owner whose audit trail is listed (required).")
	f.StringVar(&c.action, "action", "", "Only list entries with this action.")
}

func (c *auditCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner := strings.TrimSpace(c.owner)
	if owner == "" {
		return fail(fmt.Errorf("-owner is required"))
	}

	_, _, _, app, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer app.Close()

	entries, err := app.Repo.ListAuditEntries(ctx, owner)
	if err != nil {
		return fail(err)
	}
	n := writeAudit(os.Stdout, entries, strings.TrimSpace(c.action))
	fmt.Printf("%d entries\n", n)
	return subcommands.ExitSuccess
}

func writeAudit(out io.Writer, entries []core.AuditEntry, action string) int {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tTRANSACTION\tDETAIL")
	n := 0
	for _, e := range entries {
		if action != "" && e.Action != action {
			continue
		}
		n++
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.CreatedAt.UTC().Format(time.RFC3339), e.Action, e.TransactionID, e.Detail)
	}
	w.Flush()
	return n
}

type tokenCmd struct {
	owner string
	ttl   time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "mint a bearer token for an owner" }
func (*tokenCmd) Usage() string {
	return `ledgerctl token -owner <id> [-ttl 24h]

  Signs an HS256 token with AUTH_JWT_SECRET for local testing of the API.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Subject of the token (required).")
	f.DurationVar(&c.ttl, "ttl", 24*time.Hour, "Token lifetime.")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, _, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	if cfg.JWTSecret == "" {
		return fail(fmt.Errorf("AUTH_JWT_SECRET is not set"))
	}
	if strings.TrimSpace(c.owner) == "" {
		return fail(fmt.Errorf("-owner is required"))
	}
	token, err := auth.NewJWT(cfg.JWTSecret, cfg.JWTIssuer).Sign(c.owner, c.ttl, time.Now())
	if err != nil {
		return fail(err)
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}
