package accounts

import (
	"context"

	"github.com/tallybook-dev/tallybook/internal/model"
)

type defaultAccount struct {
	Code       string
	Name       string
	Type       model.AccountType
	ParentCode string
}

// defaultChart is the starter chart of accounts for a retail business.
func defaultChart() []defaultAccount {
	return []defaultAccount{
		{Code: "1000", Name: "Cash", Type: model.AccountTypeAsset},
		{Code: "1010", Name: "Business Checking", Type: model.AccountTypeAsset, ParentCode: "1000"},
		{Code: "1020", Name: "Business Savings", Type: model.AccountTypeAsset, ParentCode: "1000"},
		{Code: "1100", Name: "Accounts Receivable", Type: model.AccountTypeAsset},
		{Code: "1200", Name: "Inventory", Type: model.AccountTypeAsset},
		{Code: "1500", Name: "Equipment", Type: model.AccountTypeAsset},
		{Code: "2000", Name: "Accounts Payable", Type: model.AccountTypeLiability},
		{Code: "2100", Name: "Credit Card", Type: model.AccountTypeLiability},
		{Code: "2500", Name: "Loans Payable", Type: model.AccountTypeLiability},
		{Code: "3000", Name: "Owner's Equity", Type: model.AccountTypeEquity},
		{Code: "3100", Name: "Retained Earnings", Type: model.AccountTypeEquity},
		{Code: "4000", Name: "Sales Revenue", Type: model.AccountTypeRevenue},
		{Code: "4100", Name: "Service Revenue", Type: model.AccountTypeRevenue},
		{Code: "5000", Name: "Cost of Goods Sold", Type: model.AccountTypeExpense},
		{Code: "5100", Name: "Rent", Type: model.AccountTypeExpense},
		{Code: "5200", Name: "Software & Subscriptions", Type: model.AccountTypeExpense},
		{Code: "5300", Name: "Office Supplies", Type: model.AccountTypeExpense},
		{Code: "5400", Name: "Professional Services", Type: model.AccountTypeExpense},
	}
}

// SeedDefaultChart creates the starter chart. Parents are created before
// children, so codes listed as ParentCode must appear earlier in the chart.
func (s *Service) SeedDefaultChart(ctx context.Context) error {
	for _, d := range defaultChart() {
		params := CreateParams{Code: d.Code, Name: d.Name, Type: d.Type}
		if d.ParentCode != "" {
			parent, err := s.ByCode(ctx, d.ParentCode)
			if err != nil {
				return err
			}
			parentID := parent.ID
			params.ParentID = &parentID
		}
		if _, err := s.Create(ctx, params); err != nil {
			return err
		}
	}
	return nil
}
