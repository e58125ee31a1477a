package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tallybook",
		Short:   "Double-entry ledger for small retail back offices",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountCommand(),
		newPostCommand(),
		newReverseCommand(),
		newTrialBalanceCommand(),
		newBalanceSheetCommand(),
		newIncomeCommand(),
		newCashFlowCommand(),
		newReconcileCommand(),
	)

	return rootCmd
}
