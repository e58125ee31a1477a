// Package journal is the posting engine: the only writer of account
// balances. It guarantees the double-entry invariant and serializability
// per account for concurrent posts.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tallybook-dev/tallybook/internal/id"
	"github.com/tallybook-dev/tallybook/internal/metrics"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

const (
	defaultLockTimeout = 5 * time.Second
	defaultPostRetries = 3
	retryBackoff       = 25 * time.Millisecond
)

// Options tunes the engine's concurrency behavior.
type Options struct {
	// LockTimeout bounds how long a post waits for account locks before
	// failing with ErrBusy. Zero means the default of five seconds.
	LockTimeout time.Duration
	// PostRetries is how many times an ErrBusy post is retried internally
	// before it surfaces. Zero means the default of three.
	PostRetries int
}

// Service validates and atomically applies journal entries.
type Service struct {
	store       store.Store
	logger      *zap.Logger
	metrics     *metrics.Metrics
	locks       *lockTable
	lockTimeout time.Duration
	postRetries int
}

// NewService creates a posting engine over a Store. Logger and metrics
// may be nil.
func NewService(st store.Store, logger *zap.Logger, m *metrics.Metrics, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	if opts.PostRetries <= 0 {
		opts.PostRetries = defaultPostRetries
	}
	return &Service{
		store:       st,
		logger:      logger,
		metrics:     m,
		locks:       newLockTable(),
		lockTimeout: opts.LockTimeout,
		postRetries: opts.PostRetries,
	}
}

// PostParams holds the input for posting a journal entry.
type PostParams struct {
	Date        time.Time
	Reference   string
	Description string
	Lines       []LineParams

	// reverses links a reversal to its original entry; only Reverse sets it.
	reverses *uuid.UUID
}

// Post validates the entry and applies it atomically. Validation runs
// before any lock is taken and mutates nothing; after it passes, every
// line's balance delta and the entry record commit as one unit.
func (s *Service) Post(ctx context.Context, params PostParams) (model.JournalEntry, error) {
	if err := validateShape(params.Lines); err != nil {
		s.rejected(err)
		return model.JournalEntry{}, err
	}
	if err := s.resolveAccounts(ctx, s.store, params.Lines); err != nil {
		s.rejected(err)
		return model.JournalEntry{}, err
	}
	if err := checkBalanced(params.Lines); err != nil {
		s.rejected(err)
		return model.JournalEntry{}, err
	}

	var entry model.JournalEntry
	err := s.withAccountLocks(ctx, accountIDs(params.Lines), func() error {
		return s.store.Transact(ctx, func(tx store.Store) error {
			var err error
			entry, err = s.apply(ctx, tx, params)
			return err
		})
	})
	if err != nil {
		return model.JournalEntry{}, err
	}

	s.metrics.EntryPosted()
	s.logger.Info("journal entry posted",
		zap.String("code", entry.Code),
		zap.Int("lines", len(entry.Lines)),
		zap.String("debits", entry.TotalDebits().String()))
	return entry, nil
}

// Reverse posts a compensating entry that mirrors the original with
// directions flipped, restoring every touched balance to its prior
// value. The original entry is never removed.
func (s *Service) Reverse(ctx context.Context, entryID uuid.UUID) (model.JournalEntry, error) {
	original, err := s.Entry(ctx, entryID)
	if err != nil {
		return model.JournalEntry{}, err
	}
	if original.IsReversed() {
		return model.JournalEntry{}, fmt.Errorf("entry %s: %w", original.Code, ErrAlreadyReversed)
	}

	ids := make([]uuid.UUID, len(original.Lines))
	for i, line := range original.Lines {
		ids[i] = line.AccountID
	}

	var reversal model.JournalEntry
	err = s.withAccountLocks(ctx, ids, func() error {
		return s.store.Transact(ctx, func(tx store.Store) error {
			// Re-read under the transaction: a concurrent reversal may have
			// won the race for the lock.
			current, err := tx.Entry(ctx, entryID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
				}
				return err
			}
			if current.IsReversed() {
				return fmt.Errorf("entry %s: %w", current.Code, ErrAlreadyReversed)
			}

			lines := make([]LineParams, len(current.Lines))
			for i, line := range current.Lines {
				lines[i] = LineParams{
					AccountID:   line.AccountID,
					Direction:   line.Direction.Opposite(),
					Amount:      line.Amount,
					Description: line.Description,
				}
			}

			originalID := current.ID
			reversal, err = s.apply(ctx, tx, PostParams{
				Date:        time.Now(),
				Reference:   current.Code,
				Description: fmt.Sprintf("Reversal of %s", current.Code),
				Lines:       lines,
				reverses:    &originalID,
			})
			if err != nil {
				return err
			}
			return tx.SetReversedBy(ctx, current.ID, reversal.ID)
		})
	})
	if err != nil {
		return model.JournalEntry{}, err
	}

	s.metrics.EntryReversed()
	s.logger.Info("journal entry reversed",
		zap.String("original", original.Code),
		zap.String("reversal", reversal.Code))
	return reversal, nil
}

// Entry returns a posted entry with its lines.
func (s *Service) Entry(ctx context.Context, entryID uuid.UUID) (model.JournalEntry, error) {
	entry, err := s.store.Entry(ctx, entryID)
	if errors.Is(err, store.ErrNotFound) {
		return model.JournalEntry{}, fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	return entry, err
}

// ByCode returns a posted entry by its human-readable code.
func (s *Service) ByCode(ctx context.Context, code string) (model.JournalEntry, error) {
	entry, err := s.store.EntryByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return model.JournalEntry{}, fmt.Errorf("entry %q: %w", code, ErrNotFound)
	}
	return entry, err
}

// List returns posted entries matching the filter, ordered by date.
func (s *Service) List(ctx context.Context, f store.EntryFilter) ([]model.JournalEntry, error) {
	return s.store.Entries(ctx, f)
}

// apply assigns the next entry code, persists the entry and adjusts every
// touched balance. Callers hold the account locks and run it inside a
// store transaction.
func (s *Service) apply(ctx context.Context, tx store.Store, params PostParams) (model.JournalEntry, error) {
	seq, err := tx.NextEntrySeq(ctx, params.Date.Year())
	if err != nil {
		return model.JournalEntry{}, err
	}

	entry := model.JournalEntry{
		ID:          uuid.New(),
		Code:        id.FormatEntryCode(params.Date.Year(), seq),
		Date:        params.Date,
		Reference:   params.Reference,
		Description: params.Description,
		ReversesID:  params.reverses,
	}
	for i, line := range params.Lines {
		entry.Lines = append(entry.Lines, model.JournalEntryLine{
			ID:          uuid.New(),
			EntryID:     entry.ID,
			AccountID:   line.AccountID,
			Direction:   line.Direction,
			Amount:      line.Amount,
			Description: line.Description,
			Position:    i,
		})
	}

	if err := tx.CreateEntry(ctx, &entry); err != nil {
		return model.JournalEntry{}, err
	}

	for _, line := range entry.Lines {
		account, err := tx.Account(ctx, line.AccountID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return model.JournalEntry{}, fmt.Errorf("account %s: %w", line.AccountID, ErrUnknownAccount)
			}
			return model.JournalEntry{}, err
		}
		delta := account.DeltaFor(line.Direction, line.Amount)
		if err := tx.AddToBalance(ctx, line.AccountID, delta); err != nil {
			return model.JournalEntry{}, err
		}
	}
	return entry, nil
}

// withAccountLocks runs fn while holding exclusive locks on the given
// accounts, retrying a bounded number of times when the locks cannot be
// acquired before the timeout.
func (s *Service) withAccountLocks(ctx context.Context, ids []uuid.UUID, fn func() error) error {
	var err error
	for attempt := 0; attempt <= s.postRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var release func()
		release, err = s.locks.acquire(ctx, ids, s.lockTimeout)
		if errors.Is(err, ErrBusy) {
			s.metrics.LockTimeout()
			continue
		}
		if err != nil {
			return err
		}

		err = fn()
		release()
		return err
	}
	return err
}

// resolveAccounts checks that every line references an existing account.
func (s *Service) resolveAccounts(ctx context.Context, st store.Store, lines []LineParams) error {
	for i, line := range lines {
		if _, err := st.Account(ctx, line.AccountID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("line %d: account %s: %w", i+1, line.AccountID, ErrUnknownAccount)
			}
			return err
		}
	}
	return nil
}

func (s *Service) rejected(err error) {
	switch {
	case errors.Is(err, ErrInsufficientLines):
		s.metrics.PostRejected("insufficient_lines")
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidDirection):
		s.metrics.PostRejected("invalid_amount")
	case errors.Is(err, ErrUnknownAccount):
		s.metrics.PostRejected("unknown_account")
	case errors.Is(err, ErrUnbalanced):
		s.metrics.PostRejected("unbalanced")
	}
}
