package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/accounts"
	"github.com/tallybook-dev/tallybook/internal/model"
)

func newAccountCommand() *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Chart of accounts operations",
	}
	accountCmd.AddCommand(
		newAccountAddCommand(),
		newAccountListCommand(),
		newAccountTreeCommand(),
		newAccountDeleteCommand(),
	)
	return accountCmd
}

func newAccountAddCommand() *cobra.Command {
	var code, name, accountType, parentCode string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			e, err := openEnv(configPath)
			if err != nil {
				return err
			}
			defer e.close()

			params := accounts.CreateParams{
				Code: code,
				Name: name,
				Type: model.AccountType(accountType),
			}
			if parentCode != "" {
				parent, err := e.accounts.ByCode(cmd.Context(), parentCode)
				if err != nil {
					return err
				}
				parentID := parent.ID
				params.ParentID = &parentID
			}

			account, err := e.accounts.Create(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Printf("Created account %s %s (%s)\n", account.Code, account.Name, account.Type)
			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().StringVar(&code, "code", "", "account code (required)")
	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	cmd.Flags().StringVar(&accountType, "type", "", "asset, liability, equity, revenue or expense (required)")
	cmd.Flags().StringVar(&parentCode, "parent", "", "parent account code")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newAccountListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			e, err := openEnv(configPath)
			if err != nil {
				return err
			}
			defer e.close()

			all, err := e.accounts.All(cmd.Context())
			if err != nil {
				return err
			}
			for _, a := range all {
				fmt.Printf("%-8s %-10s %-35s %12s\n", a.Code, a.Type, a.Name, a.Balance.StringFixed(2))
			}
			return nil
		},
	}

	addConfigFlag(cmd)
	return cmd
}

func newAccountTreeCommand() *cobra.Command {
	var rollUp bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the account hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			e, err := openEnv(configPath)
			if err != nil {
				return err
			}
			defer e.close()

			cursor, err := e.accounts.Tree(cmd.Context())
			if err != nil {
				return err
			}
			for {
				node, ok := cursor.Next()
				if !ok {
					break
				}
				bal := node.Account.Balance
				if rollUp {
					bal, err = e.accounts.Balance(cmd.Context(), node.Account.ID, true)
					if err != nil {
						return err
					}
				}
				indent := strings.Repeat("  ", node.Depth)
				fmt.Printf("%s%-8s %-35s %12s\n", indent, node.Account.Code, node.Account.Name, bal.StringFixed(2))
			}
			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().BoolVar(&rollUp, "roll-up", false, "show parents as the sum of themselves and their descendants")
	return cmd
}

func newAccountDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete an unused account",
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
			if err := e.accounts.Delete(cmd.Context(), account.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted account %s\n", account.Code)
			return nil
		},
	}

	addConfigFlag(cmd)
	return cmd
}
