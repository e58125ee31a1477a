package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/model"
)

func newTrialBalanceCommand() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Show the trial balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			e, err := openEnv(configPath)
			if err != nil {
				return err
			}
			defer e.close()

			asOfDate, err := parseOptionalDate(asOf)
			if err != nil {
				return err
			}

			tb, err := e.balance.TrialBalance(cmd.Context(), asOfDate)
			if err != nil {
				return err
			}

			fmt.Printf("%-8s %-35s %12s %12s\n", "CODE", "ACCOUNT", "DEBIT", "CREDIT")
			for _, row := range tb.Rows {
				fmt.Printf("%-8s %-35s %12s %12s\n",
					row.AccountCode, row.AccountName,
					row.Debit.StringFixed(2), row.Credit.StringFixed(2))
			}
			fmt.Printf("%-44s %12s %12s\n", "TOTAL",
				tb.TotalDebits.StringFixed(2), tb.TotalCredits.StringFixed(2))
			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().StringVar(&asOf, "as-of", "", "balance date YYYY-MM-DD (default current)")
	return cmd
}

func newBalanceSheetCommand() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Show the balance sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			e, err := openEnv(configPath)
			if err != nil {
				return err
			}
			defer e.close()

			asOfDate := time.Now()
			if asOf != "" {
				asOfDate, err = parseDate(asOf)
				if err != nil {
					return err
				}
			}

			report, err := e.statements.BalanceSheet(cmd.Context(), asOfDate)
			if err != nil {
				return err
			}

			printSection("ASSETS", report.Assets)
			fmt.Printf("Total assets:      %12s\n\n", report.TotalAssets.StringFixed(2))
			printSection("LIABILITIES", report.Liabilities)
			fmt.Printf("Total liabilities: %12s\n\n", report.TotalLiabilities.StringFixed(2))
			printSection("EQUITY", report.Equity)
			fmt.Printf("Total equity:      %12s\n", report.TotalEquity.StringFixed(2))
			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().StringVar(&asOf, "as-of", "", "statement date YYYY-MM-DD (default today)")
	return cmd
}

func newIncomeCommand() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "income",
		Short: "Show the income statement",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			e, err := openEnv(configPath)
			if err != nil {
				return err
			}
			defer e.close()

			startDate, err := parseOptionalDate(start)
			if err != nil {
				return err
			}
			endDate := time.Now()
			if end != "" {
				endDate, err = parseDate(end)
				if err != nil {
					return err
				}
			}

			report, err := e.statements.IncomeStatement(cmd.Context(), startDate, endDate)
			if err != nil {
				return err
			}

			printSection("REVENUE", report.Revenue)
			fmt.Printf("Total revenue:  %12s\n\n", report.TotalRevenue.StringFixed(2))
			printSection("EXPENSES", report.Expenses)
			fmt.Printf("Total expenses: %12s\n\n", report.TotalExpenses.StringFixed(2))
			fmt.Printf("Net income:     %12s\n", report.NetIncome.StringFixed(2))
			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().StringVar(&start, "start", "", "period start YYYY-MM-DD (default per period basis)")
	cmd.Flags().StringVar(&end, "end", "", "period end YYYY-MM-DD (default today)")
	return cmd
}

func newCashFlowCommand() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "cashflow",
		Short: "Show the cash-flow statement",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			e, err := openEnv(configPath)
			if err != nil {
				return err
			}
			defer e.close()

			startDate, err := parseOptionalDate(start)
			if err != nil {
				return err
			}
			endDate := time.Now()
			if end != "" {
				endDate, err = parseDate(end)
				if err != nil {
					return err
				}
			}

			report, err := e.statements.CashFlowStatement(cmd.Context(), startDate, endDate)
			if err != nil {
				return err
			}

			printSection("OPERATING ACTIVITIES", report.OperatingActivities)
			fmt.Printf("Operating cash flow: %12s\n\n", report.OperatingCashFlow.StringFixed(2))
			printSection("INVESTING ACTIVITIES", report.InvestingActivities)
			fmt.Printf("Investing cash flow: %12s\n\n", report.InvestingCashFlow.StringFixed(2))
			printSection("FINANCING ACTIVITIES", report.FinancingActivities)
			fmt.Printf("Financing cash flow: %12s\n\n", report.FinancingCashFlow.StringFixed(2))
			fmt.Printf("Net cash flow:  %12s\n", report.NetCashFlow.StringFixed(2))
			fmt.Printf("Beginning cash: %12s\n", report.BeginningCash.StringFixed(2))
			fmt.Printf("Ending cash:    %12s\n", report.EndingCash.StringFixed(2))
			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().StringVar(&start, "start", "", "period start YYYY-MM-DD (default per period basis)")
	cmd.Flags().StringVar(&end, "end", "", "period end YYYY-MM-DD (default today)")
	return cmd
}

func printSection(title string, lines []model.ReportLine) {
	fmt.Println(title)
	for _, line := range lines {
		fmt.Printf("  %-8s %-35s %12s\n", line.AccountCode, line.AccountName, line.Amount.StringFixed(2))
	}
}
