package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationRecord captures one comparison of an account's book
// balance against an externally supplied statement balance. Records are
// immutable; a new attempt creates a new record rather than rewriting
// history.
type ReconciliationRecord struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	StatementBalance decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BookBalance      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Difference       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	StatementDate    time.Time       `gorm:"not null"`
	Reconciled       bool            `gorm:"not null"`
	CreatedAt        time.Time
}
