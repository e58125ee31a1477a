package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newReconcileCommand() *cobra.Command {
	var statementBalance, statementDate string
	var history bool

	cmd := &cobra.Command{
		Use:   "reconcile <account-code>",
		Short: "Reconcile an account against a statement balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			e, err := openEnv(configPath)
			if err != nil {
				return err
			}
			defer e.close()

			account, err := e.accounts.ByCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if history {
				records, err := e.reconcile.History(cmd.Context(), account.ID)
				if err != nil {
					return err
				}
				for _, r := range records {
					status := "MISMATCH"
					if r.Reconciled {
						status = "OK"
					}
					fmt.Printf("%s statement %12s book %12s diff %12s %s\n",
						r.StatementDate.Format(dateFormat),
						r.StatementBalance.StringFixed(2), r.BookBalance.StringFixed(2),
						r.Difference.StringFixed(2), status)
				}
				return nil
			}

			if statementBalance == "" {
				return fmt.Errorf("--balance is required")
			}
			balanceValue, err := decimal.NewFromString(statementBalance)
			if err != nil {
				return fmt.Errorf("invalid balance %q: %w", statementBalance, err)
			}
			date := time.Now()
			if statementDate != "" {
				date, err = parseDate(statementDate)
				if err != nil {
					return err
				}
			}

			record, err := e.reconcile.Reconcile(cmd.Context(), account.ID, balanceValue, date)
			if err != nil {
				return err
			}

			if record.Reconciled {
				fmt.Printf("Account %s reconciled: book balance matches statement (%s)\n",
					account.Code, record.BookBalance.StringFixed(2))
			} else {
				fmt.Printf("Account %s NOT reconciled: statement %s, book %s, difference %s\n",
					account.Code, record.StatementBalance.StringFixed(2),
					record.BookBalance.StringFixed(2), record.Difference.StringFixed(2))
			}
			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().StringVar(&statementBalance, "balance", "", "statement balance")
	cmd.Flags().StringVar(&statementDate, "date", "", "statement date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&history, "history", false, "show past reconciliations instead")

	return cmd
}
