package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/journal"
	"github.com/tallybook-dev/tallybook/internal/model"
)

func newPostCommand() *cobra.Command {
	var date, reference, description string
	var debits, credits []string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a balanced journal entry",
		Example: `  tallybook post --debit 1010=500.00 --credit 4000=500.00 --desc "Cash sale"
  tallybook post --debit 5100=1200.00 --credit 1010=1000.00 --credit 2000=200.00 --desc "Rent, partly on account"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			e, err := openEnv(configPath)
			if err != nil {
				return err
			}
			defer e.close()

			entryDate := time.Now()
			if date != "" {
				entryDate, err = parseDate(date)
				if err != nil {
					return err
				}
			}

			var lines []journal.LineParams
			for _, spec := range debits {
				line, err := parseLine(cmd, e, spec, model.Debit)
				if err != nil {
					return err
				}
				lines = append(lines, line)
			}
			for _, spec := range credits {
				line, err := parseLine(cmd, e, spec, model.Credit)
				if err != nil {
					return err
				}
				lines = append(lines, line)
			}

			entry, err := e.journal.Post(cmd.Context(), journal.PostParams{
				Date:        entryDate,
				Reference:   reference,
				Description: description,
				Lines:       lines,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Posted %s (%s debits = %s credits)\n",
				entry.Code, entry.TotalDebits().StringFixed(2), entry.TotalCredits().StringFixed(2))
			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().StringVar(&date, "date", "", "entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&reference, "ref", "", "external reference")
	cmd.Flags().StringVar(&description, "desc", "", "entry description")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, "debit line as CODE=AMOUNT (repeatable)")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "credit line as CODE=AMOUNT (repeatable)")

	return cmd
}

// parseLine turns "CODE=AMOUNT" into a line against the coded account.
func parseLine(cmd *cobra.Command, e *env, spec string, direction model.Direction) (journal.LineParams, error) {
	code, amountStr, ok := strings.Cut(spec, "=")
	if !ok {
		return journal.LineParams{}, fmt.Errorf("invalid line %q (want CODE=AMOUNT)", spec)
	}

	account, err := e.accounts.ByCode(cmd.Context(), code)
	if err != nil {
		return journal.LineParams{}, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return journal.LineParams{}, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}

	return journal.LineParams{
		AccountID: account.ID,
		Direction: direction,
		Amount:    amount,
	}, nil
}

func newReverseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reverse <entry-code>",
		Short: "Reverse a posted entry with a compensating entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			e, err := openEnv(configPath)
			if err != nil {
				return err
			}
			defer e.close()

			original, err := e.journal.ByCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reversal, err := e.journal.Reverse(cmd.Context(), original.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Reversed %s with %s\n", original.Code, reversal.Code)
			return nil
		},
	}

	addConfigFlag(cmd)
	return cmd
}
