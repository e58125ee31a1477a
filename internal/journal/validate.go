package journal

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/model"
)

var (
	// ErrInsufficientLines is returned for entries with fewer than two lines.
	ErrInsufficientLines = errors.New("journal entry requires at least two lines")
	// ErrInvalidAmount is returned when a line amount is zero or negative.
	ErrInvalidAmount = errors.New("line amount must be positive")
	// ErrInvalidDirection is returned when a line direction is neither
	// debit nor credit.
	ErrInvalidDirection = errors.New("line direction must be debit or credit")
	// ErrUnknownAccount is returned when a line references a missing account.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrUnbalanced is returned when total debits do not equal total credits.
	ErrUnbalanced = errors.New("debits do not equal credits")
	// ErrNotFound is returned when the journal entry does not exist.
	ErrNotFound = errors.New("journal entry not found")
	// ErrAlreadyReversed is returned when reversing an entry twice.
	ErrAlreadyReversed = errors.New("journal entry already reversed")
	// ErrBusy is returned when account locks could not be acquired in time.
	// It is transient; callers may retry.
	ErrBusy = errors.New("ledger busy")
)

// LineParams is one proposed leg of an entry to post.
type LineParams struct {
	AccountID   uuid.UUID
	Direction   model.Direction
	Amount      decimal.Decimal
	Description string
}

// validateShape runs the side-effect-free checks that need no storage
// access: line count, directions and amounts, and the double-entry
// balance. Account resolution happens separately against the store.
func validateShape(lines []LineParams) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: got %d", ErrInsufficientLines, len(lines))
	}

	for i, line := range lines {
		if !line.Direction.Valid() {
			return fmt.Errorf("line %d: direction %q: %w", i+1, line.Direction, ErrInvalidDirection)
		}
		if !line.Amount.IsPositive() {
			return fmt.Errorf("line %d: amount %s: %w", i+1, line.Amount, ErrInvalidAmount)
		}
	}
	return nil
}

// checkBalanced enforces exact decimal equality of debit and credit totals.
func checkBalanced(lines []LineParams) error {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, line := range lines {
		if line.Direction == model.Debit {
			debits = debits.Add(line.Amount)
		} else {
			credits = credits.Add(line.Amount)
		}
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("debits %s, credits %s: %w", debits, credits, ErrUnbalanced)
	}
	return nil
}

func accountIDs(lines []LineParams) []uuid.UUID {
	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.AccountID
	}
	return ids
}
