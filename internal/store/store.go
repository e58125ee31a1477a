// Package store defines the persistence boundary for the ledger: the
// chart of accounts with its balances, the immutable journal-entry log,
// and reconciliation records. Everything derived (trial balance,
// statements) is recomputed from this state.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("duplicate record")
)

// EntryFilter narrows Entries queries. Nil fields match everything;
// From and To are inclusive and compare against the entry date.
type EntryFilter struct {
	From      *time.Time
	To        *time.Time
	AccountID *uuid.UUID
}

// Store is the persistence interface shared by the durable gorm
// implementation and the in-memory one used in tests.
type Store interface {
	// Transact runs fn against a transactional view of the store. For
	// the durable implementation all mutations inside fn commit or roll
	// back together; reads inside fn see a consistent snapshot.
	Transact(ctx context.Context, fn func(Store) error) error

	CreateAccount(ctx context.Context, a *model.Account) error
	UpdateAccount(ctx context.Context, a *model.Account) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	Account(ctx context.Context, id uuid.UUID) (model.Account, error)
	AccountByCode(ctx context.Context, code string) (model.Account, error)
	// Accounts returns every account ordered by code.
	Accounts(ctx context.Context) ([]model.Account, error)
	// AddToBalance adjusts an account balance by a signed delta. Only the
	// posting engine calls this, from inside Transact.
	AddToBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	// AccountHasLines reports whether any journal-entry line references
	// the account.
	AccountHasLines(ctx context.Context, id uuid.UUID) (bool, error)

	CreateEntry(ctx context.Context, e *model.JournalEntry) error
	// SetReversedBy marks an entry as compensated by a reversal entry.
	SetReversedBy(ctx context.Context, entryID, reversalID uuid.UUID) error
	Entry(ctx context.Context, id uuid.UUID) (model.JournalEntry, error)
	EntryByCode(ctx context.Context, code string) (model.JournalEntry, error)
	// Entries returns matching entries with lines, ordered by date then code.
	Entries(ctx context.Context, f EntryFilter) ([]model.JournalEntry, error)
	// NextEntrySeq returns the next sequence number for entry codes in a
	// calendar year.
	NextEntrySeq(ctx context.Context, year int) (int, error)

	CreateReconciliation(ctx context.Context, r *model.ReconciliationRecord) error
	// Reconciliations returns an account's records, newest first.
	Reconciliations(ctx context.Context, accountID uuid.UUID) ([]model.ReconciliationRecord, error)
}
