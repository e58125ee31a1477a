package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/accounts"
	"github.com/tallybook-dev/tallybook/internal/store"
)

const defaultConfigYAML = `database:
  path: tallybook.db
log:
  level: info
  format: console
fiscal:
  year_start: "01-01"
ledger:
  lock_timeout: 5s
  post_retries: 3
reports:
  period_basis: inception
  cash_accounts: ["1000", "1010", "1020"]
  cash_flow_categories: {}
`

func newInitCommand() *cobra.Command {
	var skipChart bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(cmd, absDir, skipChart)
		},
	}

	cmd.Flags().BoolVar(&skipChart, "skip-chart", false, "do not seed the default chart of accounts")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, skipChart bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	configPath := filepath.Join(dir, "tallybook.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("ledger already initialized: %s exists", configPath)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	db, err := store.Open(filepath.Join(dir, "tallybook.db"))
	if err != nil {
		return err
	}

	if !skipChart {
		svc := accounts.NewService(db, nil)
		if err := svc.SeedDefaultChart(cmd.Context()); err != nil {
			return fmt.Errorf("seeding chart of accounts: %w", err)
		}
	}

	fmt.Printf("Initialized ledger at %s\n", dir)
	return nil
}
