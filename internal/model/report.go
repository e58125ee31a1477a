package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one account's line in a trial balance. The balance
// lands in the debit or credit column according to the account's normal
// side and the sign of its balance, so that column totals match.
type TrialBalanceRow struct {
	AccountID   uuid.UUID
	AccountCode string
	AccountName string
	AccountType AccountType
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// TrialBalance lists every account's balance with column totals.
// TotalDebits always equals TotalCredits for an uncorrupted ledger.
type TrialBalance struct {
	AsOf         *time.Time
	Rows         []TrialBalanceRow
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
}

// ReportLine is an account with its amount on a financial statement.
type ReportLine struct {
	AccountID   uuid.UUID
	AccountCode string
	AccountName string
	Amount      decimal.Decimal
}

// BalanceSheetReport is the statement of financial position as of a date.
type BalanceSheetReport struct {
	AsOf             time.Time
	Assets           []ReportLine
	Liabilities      []ReportLine
	Equity           []ReportLine
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	TotalEquity      decimal.Decimal
	IsBalanced       bool
}

// IncomeStatementReport summarizes revenue and expense activity over a
// period. Start is nil for an inception-to-date view.
type IncomeStatementReport struct {
	Start         *time.Time
	End           time.Time
	Revenue       []ReportLine
	Expenses      []ReportLine
	TotalRevenue  decimal.Decimal
	TotalExpenses decimal.Decimal
	NetIncome     decimal.Decimal
}

// CashFlowCategory classifies non-cash activity on a cash-flow statement.
type CashFlowCategory string

const (
	CashFlowOperating CashFlowCategory = "operating"
	CashFlowInvesting CashFlowCategory = "investing"
	CashFlowFinancing CashFlowCategory = "financing"
)

// CashFlowReport breaks cash movement over a period into operating,
// investing and financing activities. EndingCash always equals
// BeginningCash plus NetCashFlow.
type CashFlowReport struct {
	Start                *time.Time
	End                  time.Time
	OperatingActivities  []ReportLine
	InvestingActivities  []ReportLine
	FinancingActivities  []ReportLine
	OperatingCashFlow    decimal.Decimal
	InvestingCashFlow    decimal.Decimal
	FinancingCashFlow    decimal.Decimal
	NetCashFlow          decimal.Decimal
	BeginningCash        decimal.Decimal
	EndingCash           decimal.Decimal
}
