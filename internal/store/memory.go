package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/id"
	"github.com/tallybook-dev/tallybook/internal/model"
)

// Memory is an in-memory Store. It backs tests and gives the posting
// engine a fake with the same contract as the durable store.
//
// Transact serializes callers under one lock rather than keeping an undo
// log, so mutations made before fn fails are not rolled back. That is
// sufficient here because every caller validates before mutating; the
// durable store provides real rollback.
type Memory struct {
	mu sync.RWMutex
	tx memTx
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tx: memTx{
			accounts: make(map[uuid.UUID]model.Account),
			entries:  make(map[uuid.UUID]model.JournalEntry),
		},
	}
}

func (m *Memory) Transact(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&m.tx)
}

func (m *Memory) CreateAccount(ctx context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.CreateAccount(ctx, a)
}

func (m *Memory) UpdateAccount(ctx context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.UpdateAccount(ctx, a)
}

func (m *Memory) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.DeleteAccount(ctx, accountID)
}

func (m *Memory) Account(ctx context.Context, accountID uuid.UUID) (model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tx.Account(ctx, accountID)
}

func (m *Memory) AccountByCode(ctx context.Context, code string) (model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tx.AccountByCode(ctx, code)
}

func (m *Memory) Accounts(ctx context.Context) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tx.Accounts(ctx)
}

func (m *Memory) AddToBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.AddToBalance(ctx, accountID, delta)
}

func (m *Memory) AccountHasLines(ctx context.Context, accountID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tx.AccountHasLines(ctx, accountID)
}

func (m *Memory) CreateEntry(ctx context.Context, e *model.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.CreateEntry(ctx, e)
}

func (m *Memory) SetReversedBy(ctx context.Context, entryID, reversalID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.SetReversedBy(ctx, entryID, reversalID)
}

func (m *Memory) Entry(ctx context.Context, entryID uuid.UUID) (model.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tx.Entry(ctx, entryID)
}

func (m *Memory) EntryByCode(ctx context.Context, code string) (model.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tx.EntryByCode(ctx, code)
}

func (m *Memory) Entries(ctx context.Context, f EntryFilter) ([]model.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tx.Entries(ctx, f)
}

func (m *Memory) NextEntrySeq(ctx context.Context, year int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tx.NextEntrySeq(ctx, year)
}

func (m *Memory) CreateReconciliation(ctx context.Context, r *model.ReconciliationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.CreateReconciliation(ctx, r)
}

func (m *Memory) Reconciliations(ctx context.Context, accountID uuid.UUID) ([]model.ReconciliationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tx.Reconciliations(ctx, accountID)
}

// memTx holds the data and implements Store without locking; Memory
// wraps every call with its lock, and Transact hands callers the bare
// view while holding the lock.
type memTx struct {
	accounts        map[uuid.UUID]model.Account
	entries         map[uuid.UUID]model.JournalEntry
	reconciliations []model.ReconciliationRecord
}

func (t *memTx) Transact(_ context.Context, fn func(Store) error) error {
	// Already inside the store lock.
	return fn(t)
}

func (t *memTx) CreateAccount(_ context.Context, a *model.Account) error {
	for _, existing := range t.accounts {
		if existing.Code == a.Code {
			return fmt.Errorf("account code %q: %w", a.Code, ErrDuplicate)
		}
	}
	t.accounts[a.ID] = *a
	return nil
}

func (t *memTx) UpdateAccount(_ context.Context, a *model.Account) error {
	existing, ok := t.accounts[a.ID]
	if !ok {
		return fmt.Errorf("account %s: %w", a.ID, ErrNotFound)
	}
	existing.Code = a.Code
	existing.Name = a.Name
	existing.Type = a.Type
	existing.ParentID = a.ParentID
	existing.UpdatedAt = time.Now()
	t.accounts[a.ID] = existing
	return nil
}

func (t *memTx) DeleteAccount(_ context.Context, accountID uuid.UUID) error {
	if _, ok := t.accounts[accountID]; !ok {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	delete(t.accounts, accountID)
	return nil
}

func (t *memTx) Account(_ context.Context, accountID uuid.UUID) (model.Account, error) {
	a, ok := t.accounts[accountID]
	if !ok {
		return model.Account{}, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return a, nil
}

func (t *memTx) AccountByCode(_ context.Context, code string) (model.Account, error) {
	for _, a := range t.accounts {
		if a.Code == code {
			return a, nil
		}
	}
	return model.Account{}, fmt.Errorf("account code %q: %w", code, ErrNotFound)
}

func (t *memTx) Accounts(_ context.Context) ([]model.Account, error) {
	accounts := make([]model.Account, 0, len(t.accounts))
	for _, a := range t.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
	return accounts, nil
}

func (t *memTx) AddToBalance(_ context.Context, accountID uuid.UUID, delta decimal.Decimal) error {
	a, ok := t.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = time.Now()
	t.accounts[accountID] = a
	return nil
}

func (t *memTx) AccountHasLines(_ context.Context, accountID uuid.UUID) (bool, error) {
	for _, e := range t.entries {
		for _, l := range e.Lines {
			if l.AccountID == accountID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (t *memTx) CreateEntry(_ context.Context, e *model.JournalEntry) error {
	stored := *e
	stored.Lines = append([]model.JournalEntryLine(nil), e.Lines...)
	t.entries[e.ID] = stored
	return nil
}

func (t *memTx) SetReversedBy(_ context.Context, entryID, reversalID uuid.UUID) error {
	e, ok := t.entries[entryID]
	if !ok {
		return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	rid := reversalID
	e.ReversedByID = &rid
	e.UpdatedAt = time.Now()
	t.entries[entryID] = e
	return nil
}

func (t *memTx) Entry(_ context.Context, entryID uuid.UUID) (model.JournalEntry, error) {
	e, ok := t.entries[entryID]
	if !ok {
		return model.JournalEntry{}, fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	return copyEntry(e), nil
}

func (t *memTx) EntryByCode(_ context.Context, code string) (model.JournalEntry, error) {
	for _, e := range t.entries {
		if e.Code == code {
			return copyEntry(e), nil
		}
	}
	return model.JournalEntry{}, fmt.Errorf("entry code %q: %w", code, ErrNotFound)
}

func (t *memTx) Entries(_ context.Context, f EntryFilter) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	for _, e := range t.entries {
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		if f.AccountID != nil && !touchesAccount(e, *f.AccountID) {
			continue
		}
		entries = append(entries, copyEntry(e))
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].Code < entries[j].Code
	})
	return entries, nil
}

func (t *memTx) NextEntrySeq(_ context.Context, year int) (int, error) {
	maxSeq := 0
	for _, e := range t.entries {
		entryYear, seq, err := id.ParseEntryCode(e.Code)
		if err != nil || entryYear != year {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1, nil
}

func (t *memTx) CreateReconciliation(_ context.Context, r *model.ReconciliationRecord) error {
	t.reconciliations = append(t.reconciliations, *r)
	return nil
}

func (t *memTx) Reconciliations(_ context.Context, accountID uuid.UUID) ([]model.ReconciliationRecord, error) {
	var records []model.ReconciliationRecord
	for _, r := range t.reconciliations {
		if r.AccountID == accountID {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	return records, nil
}

func copyEntry(e model.JournalEntry) model.JournalEntry {
	out := e
	out.Lines = append([]model.JournalEntryLine(nil), e.Lines...)
	return out
}

func touchesAccount(e model.JournalEntry, accountID uuid.UUID) bool {
	for _, l := range e.Lines {
		if l.AccountID == accountID {
			return true
		}
	}
	return false
}
