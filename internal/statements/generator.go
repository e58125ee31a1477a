// Package statements derives the balance sheet, income statement and
// cash-flow statement from account balances and the posted entry log.
package statements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// ErrUnbalancedSheet reports ledger corruption: the balance sheet
// identity failed even though current earnings are folded into equity.
var ErrUnbalancedSheet = errors.New("ledger corrupted: balance sheet does not balance")

// PeriodBasis controls what a missing start date means on period reports.
type PeriodBasis string

const (
	// BasisInception treats a missing start date as all activity up to
	// the end date.
	BasisInception PeriodBasis = "inception"
	// BasisFiscalYear starts the period at the configured fiscal year
	// start for the end date's fiscal year.
	BasisFiscalYear PeriodBasis = "fiscal_year"
)

// Options configures period conventions and the cash-flow classification.
type Options struct {
	// PeriodBasis applies when a report's start date is omitted.
	PeriodBasis PeriodBasis
	// FiscalYearStart is "MM-DD"; used only with BasisFiscalYear.
	FiscalYearStart string
	// CashAccounts lists the account codes treated as cash equivalents.
	CashAccounts []string
	// Categories maps account codes to cash-flow categories, overriding
	// the type-based default.
	Categories map[string]model.CashFlowCategory
}

// Generator produces financial statements.
type Generator struct {
	store  store.Store
	logger *zap.Logger
	opts   Options
}

// NewGenerator creates a statement Generator. A nil logger disables
// logging.
func NewGenerator(st store.Store, logger *zap.Logger, opts Options) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PeriodBasis == "" {
		opts.PeriodBasis = BasisInception
	}
	return &Generator{store: st, logger: logger, opts: opts}
}

// BalanceSheet reports assets, liabilities and equity as of a date.
// Because books are never closed here, net income to date is folded into
// equity as a synthetic "Current Period Earnings" line; IsBalanced false
// therefore signals corruption, not merely unclosed books.
func (g *Generator) BalanceSheet(ctx context.Context, asOf time.Time) (model.BalanceSheetReport, error) {
	report := model.BalanceSheetReport{
		AsOf:             asOf,
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}

	err := g.store.Transact(ctx, func(tx store.Store) error {
		all, balances, err := balancesAsOf(ctx, tx, &asOf)
		if err != nil {
			return err
		}

		earnings := decimal.Zero
		for _, a := range all {
			bal := balances[a.ID]
			line := model.ReportLine{
				AccountID:   a.ID,
				AccountCode: a.Code,
				AccountName: a.Name,
				Amount:      bal,
			}
			switch a.Type {
			case model.AccountTypeAsset:
				if !bal.IsZero() {
					report.Assets = append(report.Assets, line)
				}
				report.TotalAssets = report.TotalAssets.Add(bal)
			case model.AccountTypeLiability:
				if !bal.IsZero() {
					report.Liabilities = append(report.Liabilities, line)
				}
				report.TotalLiabilities = report.TotalLiabilities.Add(bal)
			case model.AccountTypeEquity:
				if !bal.IsZero() {
					report.Equity = append(report.Equity, line)
				}
				report.TotalEquity = report.TotalEquity.Add(bal)
			case model.AccountTypeRevenue:
				earnings = earnings.Add(bal)
			case model.AccountTypeExpense:
				earnings = earnings.Sub(bal)
			}
		}

		if !earnings.IsZero() {
			report.Equity = append(report.Equity, model.ReportLine{
				AccountName: "Current Period Earnings",
				Amount:      earnings,
			})
			report.TotalEquity = report.TotalEquity.Add(earnings)
		}
		return nil
	})
	if err != nil {
		return model.BalanceSheetReport{}, err
	}

	report.IsBalanced = report.TotalAssets.Equal(report.TotalLiabilities.Add(report.TotalEquity))
	if !report.IsBalanced {
		g.logger.Error("balance sheet does not balance",
			zap.String("assets", report.TotalAssets.String()),
			zap.String("liabilities", report.TotalLiabilities.String()),
			zap.String("equity", report.TotalEquity.String()))
		return report, fmt.Errorf("assets %s, liabilities %s, equity %s: %w",
			report.TotalAssets, report.TotalLiabilities, report.TotalEquity, ErrUnbalancedSheet)
	}
	return report, nil
}

// IncomeStatement sums revenue and expense activity in [start, end]. A
// nil start falls back to the configured period basis.
func (g *Generator) IncomeStatement(ctx context.Context, start *time.Time, end time.Time) (model.IncomeStatementReport, error) {
	start, err := g.resolveStart(start, end)
	if err != nil {
		return model.IncomeStatementReport{}, err
	}

	report := model.IncomeStatementReport{
		Start:         start,
		End:           end,
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}

	err = g.store.Transact(ctx, func(tx store.Store) error {
		all, err := tx.Accounts(ctx)
		if err != nil {
			return err
		}
		activity, err := activityIn(ctx, tx, all, start, end)
		if err != nil {
			return err
		}

		for _, a := range all {
			amount := activity[a.ID]
			if amount.IsZero() {
				continue
			}
			line := model.ReportLine{
				AccountID:   a.ID,
				AccountCode: a.Code,
				AccountName: a.Name,
				Amount:      amount,
			}
			switch a.Type {
			case model.AccountTypeRevenue:
				report.Revenue = append(report.Revenue, line)
				report.TotalRevenue = report.TotalRevenue.Add(amount)
			case model.AccountTypeExpense:
				report.Expenses = append(report.Expenses, line)
				report.TotalExpenses = report.TotalExpenses.Add(amount)
			}
		}
		return nil
	})
	if err != nil {
		return model.IncomeStatementReport{}, err
	}

	report.NetIncome = report.TotalRevenue.Sub(report.TotalExpenses)
	return report, nil
}

// resolveStart applies the configured convention when no start is given.
func (g *Generator) resolveStart(start *time.Time, end time.Time) (*time.Time, error) {
	if start != nil || g.opts.PeriodBasis == BasisInception {
		return start, nil
	}

	fy, err := time.Parse("01-02", g.opts.FiscalYearStart)
	if err != nil {
		return nil, fmt.Errorf("parsing fiscal year start %q: %w", g.opts.FiscalYearStart, err)
	}
	resolved := time.Date(end.Year(), fy.Month(), fy.Day(), 0, 0, 0, 0, end.Location())
	if resolved.After(end) {
		resolved = resolved.AddDate(-1, 0, 0)
	}
	return &resolved, nil
}

// balancesAsOf recomputes every account's balance from entries dated at
// or before asOf (all entries when asOf is nil).
func balancesAsOf(ctx context.Context, tx store.Store, asOf *time.Time) ([]model.Account, map[uuid.UUID]decimal.Decimal, error) {
	all, err := tx.Accounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]model.Account, len(all))
	balances := make(map[uuid.UUID]decimal.Decimal, len(all))
	for _, a := range all {
		byID[a.ID] = a
		balances[a.ID] = decimal.Zero
	}

	entries, err := tx.Entries(ctx, store.EntryFilter{To: asOf})
	if err != nil {
		return nil, nil, err
	}
	for _, entry := range entries {
		for _, line := range entry.Lines {
			account := byID[line.AccountID]
			balances[line.AccountID] = balances[line.AccountID].
				Add(account.DeltaFor(line.Direction, line.Amount))
		}
	}
	return all, balances, nil
}

// activityIn sums each account's normal-side activity within the window.
func activityIn(ctx context.Context, tx store.Store, all []model.Account, start *time.Time, end time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	byID := make(map[uuid.UUID]model.Account, len(all))
	activity := make(map[uuid.UUID]decimal.Decimal, len(all))
	for _, a := range all {
		byID[a.ID] = a
		activity[a.ID] = decimal.Zero
	}

	entries, err := tx.Entries(ctx, store.EntryFilter{From: start, To: &end})
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		for _, line := range entry.Lines {
			account := byID[line.AccountID]
			activity[line.AccountID] = activity[line.AccountID].
				Add(account.DeltaFor(line.Direction, line.Amount))
		}
	}
	return activity, nil
}
