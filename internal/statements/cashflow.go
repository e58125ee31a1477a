package statements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// CashFlowStatement classifies cash movement in [start, end] into
// operating, investing and financing activities. Classification of the
// non-cash side of each entry comes from the configured code mapping,
// falling back to account type: revenue and expenses are operating,
// non-cash assets investing, liabilities and equity financing.
//
// EndingCash equals BeginningCash plus NetCashFlow by construction:
// every window entry's cash movement is mirrored exactly by its
// categorized non-cash lines, because entries balance.
func (g *Generator) CashFlowStatement(ctx context.Context, start *time.Time, end time.Time) (model.CashFlowReport, error) {
	start, err := g.resolveStart(start, end)
	if err != nil {
		return model.CashFlowReport{}, err
	}

	report := model.CashFlowReport{
		Start:             start,
		End:               end,
		OperatingCashFlow: decimal.Zero,
		InvestingCashFlow: decimal.Zero,
		FinancingCashFlow: decimal.Zero,
		NetCashFlow:       decimal.Zero,
		BeginningCash:     decimal.Zero,
		EndingCash:        decimal.Zero,
	}

	err = g.store.Transact(ctx, func(tx store.Store) error {
		all, err := tx.Accounts(ctx)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]model.Account, len(all))
		cash := make(map[uuid.UUID]bool)
		for _, a := range all {
			byID[a.ID] = a
			for _, code := range g.opts.CashAccounts {
				if a.Code == code {
					cash[a.ID] = true
				}
			}
		}

		if start != nil {
			before := start.Add(-time.Nanosecond)
			prior, err := tx.Entries(ctx, store.EntryFilter{To: &before})
			if err != nil {
				return err
			}
			for _, entry := range prior {
				report.BeginningCash = report.BeginningCash.Add(cashDelta(entry, cash))
			}
		}

		window, err := tx.Entries(ctx, store.EntryFilter{From: start, To: &end})
		if err != nil {
			return err
		}

		// Per-category, per-account accumulation in chart order.
		amounts := make(map[model.CashFlowCategory]map[uuid.UUID]decimal.Decimal)
		for _, entry := range window {
			if cashDelta(entry, cash).IsZero() {
				continue
			}
			for _, line := range entry.Lines {
				if cash[line.AccountID] {
					continue
				}
				category := g.categoryFor(byID[line.AccountID])
				if amounts[category] == nil {
					amounts[category] = make(map[uuid.UUID]decimal.Decimal)
				}
				// Debits and credits across an entry cancel, so the negated
				// non-cash movement is exactly this line's share of the cash
				// movement.
				amounts[category][line.AccountID] = amounts[category][line.AccountID].
					Sub(signedAmount(line))
			}
		}

		build := func(category model.CashFlowCategory) ([]model.ReportLine, decimal.Decimal) {
			var lines []model.ReportLine
			total := decimal.Zero
			for _, a := range all {
				amount, ok := amounts[category][a.ID]
				if !ok || amount.IsZero() {
					continue
				}
				lines = append(lines, model.ReportLine{
					AccountID:   a.ID,
					AccountCode: a.Code,
					AccountName: a.Name,
					Amount:      amount,
				})
				total = total.Add(amount)
			}
			return lines, total
		}

		report.OperatingActivities, report.OperatingCashFlow = build(model.CashFlowOperating)
		report.InvestingActivities, report.InvestingCashFlow = build(model.CashFlowInvesting)
		report.FinancingActivities, report.FinancingCashFlow = build(model.CashFlowFinancing)
		return nil
	})
	if err != nil {
		return model.CashFlowReport{}, err
	}

	report.NetCashFlow = report.OperatingCashFlow.
		Add(report.InvestingCashFlow).
		Add(report.FinancingCashFlow)
	report.EndingCash = report.BeginningCash.Add(report.NetCashFlow)
	return report, nil
}

func (g *Generator) categoryFor(a model.Account) model.CashFlowCategory {
	if category, ok := g.opts.Categories[a.Code]; ok {
		return category
	}
	switch a.Type {
	case model.AccountTypeRevenue, model.AccountTypeExpense:
		return model.CashFlowOperating
	case model.AccountTypeAsset:
		return model.CashFlowInvesting
	default:
		return model.CashFlowFinancing
	}
}

// cashDelta is the entry's net movement across the cash accounts, in
// debit-positive terms.
func cashDelta(entry model.JournalEntry, cash map[uuid.UUID]bool) decimal.Decimal {
	delta := decimal.Zero
	for _, line := range entry.Lines {
		if cash[line.AccountID] {
			delta = delta.Add(signedAmount(line))
		}
	}
	return delta
}

func signedAmount(line model.JournalEntryLine) decimal.Decimal {
	if line.Direction == model.Debit {
		return line.Amount
	}
	return line.Amount.Neg()
}
