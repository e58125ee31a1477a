// Package balance derives per-account balances and the trial balance
// from the account directory and the entry log.
package balance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tallybook-dev/tallybook/internal/accounts"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// ErrOutOfBalance reports ledger corruption: total debits and credits of
// the trial balance diverged. This is a defect, never a user error, and
// must not be swallowed.
var ErrOutOfBalance = errors.New("ledger corrupted: trial balance out of balance")

// Service computes balances and trial balances.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates a balance Service. A nil logger disables logging.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// Balance returns an account's balance. With a nil asOf it is the stored
// current balance; otherwise it is recomputed from entries dated at or
// before asOf.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID, asOf *time.Time) (decimal.Decimal, error) {
	var result decimal.Decimal
	err := s.store.Transact(ctx, func(tx store.Store) error {
		account, err := tx.Account(ctx, accountID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("account %s: %w", accountID, accounts.ErrNotFound)
			}
			return err
		}
		if asOf == nil {
			result = account.Balance
			return nil
		}

		entries, err := tx.Entries(ctx, store.EntryFilter{To: asOf, AccountID: &accountID})
		if err != nil {
			return err
		}
		result = decimal.Zero
		for _, entry := range entries {
			for _, line := range entry.Lines {
				if line.AccountID == accountID {
					result = result.Add(account.DeltaFor(line.Direction, line.Amount))
				}
			}
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return result, nil
}

// TrialBalance lists every account's own posted balance (no roll-up, so
// parent accounts do not double-count descendants) with debit/credit
// column totals. A divergence between the totals is surfaced as
// ErrOutOfBalance.
func (s *Service) TrialBalance(ctx context.Context, asOf *time.Time) (model.TrialBalance, error) {
	var tb model.TrialBalance
	err := s.store.Transact(ctx, func(tx store.Store) error {
		all, err := tx.Accounts(ctx)
		if err != nil {
			return err
		}

		balances := make(map[uuid.UUID]decimal.Decimal, len(all))
		if asOf == nil {
			for _, a := range all {
				balances[a.ID] = a.Balance
			}
		} else {
			byID := make(map[uuid.UUID]model.Account, len(all))
			for _, a := range all {
				byID[a.ID] = a
				balances[a.ID] = decimal.Zero
			}
			entries, err := tx.Entries(ctx, store.EntryFilter{To: asOf})
			if err != nil {
				return err
			}
			for _, entry := range entries {
				for _, line := range entry.Lines {
					account := byID[line.AccountID]
					balances[line.AccountID] = balances[line.AccountID].
						Add(account.DeltaFor(line.Direction, line.Amount))
				}
			}
		}

		tb = model.TrialBalance{AsOf: asOf, TotalDebits: decimal.Zero, TotalCredits: decimal.Zero}
		for _, a := range all {
			row := model.TrialBalanceRow{
				AccountID:   a.ID,
				AccountCode: a.Code,
				AccountName: a.Name,
				AccountType: a.Type,
			}
			bal := balances[a.ID]
			// A positive balance sits on the account's normal side; a
			// negative one flips to the other column.
			side := a.Type.NormalSide()
			if bal.IsNegative() {
				side = side.Opposite()
				bal = bal.Neg()
			}
			if side == model.Debit {
				row.Debit = bal
				tb.TotalDebits = tb.TotalDebits.Add(bal)
			} else {
				row.Credit = bal
				tb.TotalCredits = tb.TotalCredits.Add(bal)
			}
			tb.Rows = append(tb.Rows, row)
		}
		return nil
	})
	if err != nil {
		return model.TrialBalance{}, err
	}

	if !tb.TotalDebits.Equal(tb.TotalCredits) {
		s.logger.Error("trial balance does not balance",
			zap.String("total_debits", tb.TotalDebits.String()),
			zap.String("total_credits", tb.TotalCredits.String()))
		return model.TrialBalance{}, fmt.Errorf("debits %s, credits %s: %w",
			tb.TotalDebits, tb.TotalCredits, ErrOutOfBalance)
	}
	return tb, nil
}
