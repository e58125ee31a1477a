package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// AccountTypes lists all valid account types in presentation order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalSide returns the direction that increases a balance of this type.
// Assets and expenses are debit-normal; liabilities, equity and revenue
// are credit-normal.
func (t AccountType) NormalSide() Direction {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return Debit
	default:
		return Credit
	}
}

// Account is a node in the chart of accounts. Balance is stored in the
// normal-balance convention for the account's type and is mutated only by
// the posting engine.
type Account struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Code      string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Type      AccountType     `gorm:"type:varchar(20);not null;index"`
	ParentID  *uuid.UUID      `gorm:"type:uuid;index"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeltaFor returns the signed balance adjustment a posted line causes:
// +amount when the line direction matches the account's normal side,
// -amount otherwise.
func (a Account) DeltaFor(d Direction, amount decimal.Decimal) decimal.Decimal {
	if d == a.Type.NormalSide() {
		return amount
	}
	return amount.Neg()
}
