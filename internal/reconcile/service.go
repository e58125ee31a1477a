// Package reconcile compares book balances against externally supplied
// statement balances and records the outcome. Reconciling never mutates
// the account balance.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tallybook-dev/tallybook/internal/accounts"
	"github.com/tallybook-dev/tallybook/internal/metrics"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// Service runs reconciliations and keeps their history.
type Service struct {
	store   store.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewService creates a reconciliation Service. Logger and metrics may be
// nil.
func NewService(st store.Store, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger, metrics: m}
}

// Reconcile reads the account's current book balance, compares it with
// the statement balance and persists an immutable record of the result.
// Difference is statement minus book; Reconciled means they agree
// exactly.
func (s *Service) Reconcile(ctx context.Context, accountID uuid.UUID, statementBalance decimal.Decimal, statementDate time.Time) (model.ReconciliationRecord, error) {
	var record model.ReconciliationRecord
	err := s.store.Transact(ctx, func(tx store.Store) error {
		account, err := tx.Account(ctx, accountID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("account %s: %w", accountID, accounts.ErrNotFound)
			}
			return err
		}

		difference := statementBalance.Sub(account.Balance)
		record = model.ReconciliationRecord{
			ID:               uuid.New(),
			AccountID:        accountID,
			StatementBalance: statementBalance,
			BookBalance:      account.Balance,
			Difference:       difference,
			StatementDate:    statementDate,
			Reconciled:       difference.IsZero(),
			CreatedAt:        time.Now(),
		}
		return tx.CreateReconciliation(ctx, &record)
	})
	if err != nil {
		return model.ReconciliationRecord{}, err
	}

	s.metrics.Reconciliation(record.Reconciled)
	s.logger.Info("account reconciled",
		zap.String("account", accountID.String()),
		zap.String("difference", record.Difference.String()),
		zap.Bool("reconciled", record.Reconciled))
	return record, nil
}

// History returns an account's reconciliation records, newest first.
func (s *Service) History(ctx context.Context, accountID uuid.UUID) ([]model.ReconciliationRecord, error) {
	if _, err := s.store.Account(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("account %s: %w", accountID, accounts.ErrNotFound)
		}
		return nil, err
	}
	return s.store.Reconciliations(ctx, accountID)
}
