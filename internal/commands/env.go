package commands

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tallybook-dev/tallybook/internal/accounts"
	"github.com/tallybook-dev/tallybook/internal/balance"
	"github.com/tallybook-dev/tallybook/internal/config"
	"github.com/tallybook-dev/tallybook/internal/journal"
	"github.com/tallybook-dev/tallybook/internal/logging"
	"github.com/tallybook-dev/tallybook/internal/metrics"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/reconcile"
	"github.com/tallybook-dev/tallybook/internal/statements"
	"github.com/tallybook-dev/tallybook/internal/store"
)

const dateFormat = "2006-01-02"

// env wires the services a command needs from one config file.
type env struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      *store.DB
	accounts   *accounts.Service
	journal    *journal.Service
	balance    *balance.Service
	statements *statements.Generator
	reconcile  *reconcile.Service
}

func addConfigFlag(cmd *cobra.Command) *string {
	return cmd.Flags().String("config", "tallybook.yaml", "path to config file")
}

func openEnv(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	m := metrics.New("tallybook", prometheus.NewRegistry())

	categories := make(map[string]model.CashFlowCategory, len(cfg.Reports.CashFlowCategories))
	for code, category := range cfg.Reports.CashFlowCategories {
		categories[code] = model.CashFlowCategory(category)
	}

	return &env{
		cfg:      cfg,
		logger:   logger,
		store:    db,
		accounts: accounts.NewService(db, logger),
		journal: journal.NewService(db, logger, m, journal.Options{
			LockTimeout: cfg.Ledger.LockTimeout,
			PostRetries: cfg.Ledger.PostRetries,
		}),
		balance: balance.NewService(db, logger),
		statements: statements.NewGenerator(db, logger, statements.Options{
			PeriodBasis:     statements.PeriodBasis(cfg.Reports.PeriodBasis),
			FiscalYearStart: cfg.Fiscal.YearStart,
			CashAccounts:    cfg.Reports.CashAccounts,
			Categories:      categories,
		}),
		reconcile: reconcile.NewService(db, logger, m),
	}, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q (want YYYY-MM-DD): %w", value, err)
	}
	return t, nil
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
