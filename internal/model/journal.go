package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the side of a journal-entry line.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Debit || d == Credit
}

// Opposite returns the other side.
func (d Direction) Opposite() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

// JournalEntry is an atomic, balanced accounting transaction. Once posted
// it is immutable; the only way to undo it is a compensating reversal
// entry, linked through ReversesID/ReversedByID.
type JournalEntry struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Code         string             `gorm:"type:varchar(20);not null;uniqueIndex"`
	Date         time.Time          `gorm:"not null;index"`
	Reference    string             `gorm:"type:varchar(100)"`
	Description  string             `gorm:"type:text"`
	Lines        []JournalEntryLine `gorm:"foreignKey:EntryID;references:ID"`
	ReversesID   *uuid.UUID         `gorm:"type:uuid;index"`
	ReversedByID *uuid.UUID         `gorm:"type:uuid"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TotalDebits sums the amounts of all debit lines.
func (e JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		if l.Direction == Debit {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// TotalCredits sums the amounts of all credit lines.
func (e JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		if l.Direction == Credit {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// Balanced reports whether total debits equal total credits exactly.
func (e JournalEntry) Balanced() bool {
	return e.TotalDebits().Equal(e.TotalCredits())
}

// IsReversal reports whether this entry compensates an earlier one.
func (e JournalEntry) IsReversal() bool {
	return e.ReversesID != nil
}

// IsReversed reports whether a later entry has compensated this one.
func (e JournalEntry) IsReversed() bool {
	return e.ReversedByID != nil
}

// JournalEntryLine is one leg of a journal entry. Amount is always
// strictly positive; the sign of its balance effect comes from Direction
// and the account's normal side.
type JournalEntryLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EntryID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Direction   Direction       `gorm:"type:varchar(6);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description string          `gorm:"type:text"`
	Position    int             `gorm:"not null"`
}
