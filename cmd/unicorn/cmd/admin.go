package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/devprozorov/unicorn/internal/cli"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative operations (admin accounts only)",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List all accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}
		users, err := api.AdminListUsers(ctx)
		if err != nil {
			return err
		}
		table := cli.NewTable(cmd.OutOrStdout(), "ID", "Login", "Name", "Type", "Blocked")
		for _, u := range users {
			blocked := ""
			if u.Blocked {
				blocked = "yes"
			}
			table.AddRow(u.UserID, u.Login, u.DisplayName, u.Type, blocked)
		}
		table.Render()
		return nil
	},
}

var adminBlockCmd = &cobra.Command{
	Use:   "block <user-id>",
	Short: "Block an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}
		if err := api.AdminBlockUser(ctx, args[0]); err != nil {
			return err
		}
		color.Green("Blocked %s", args[0])
		return nil
	},
}

var adminUnblockCmd = &cobra.Command{
	Use:   "unblock <user-id>",
	Short: "Unblock an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}
		if err := api.AdminUnblockUser(ctx, args[0]); err != nil {
			return err
		}
		color.Green("Unblocked %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminBlockCmd)
	adminCmd.AddCommand(adminUnblockCmd)
}
