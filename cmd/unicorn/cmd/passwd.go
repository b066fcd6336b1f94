package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/devprozorov/unicorn/internal/cli"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the account password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}
		current, err := cli.ReadPassword("Current password: ")
		if err != nil {
			return err
		}
		next, err := cli.ReadPassword("New password: ")
		if err != nil {
			return err
		}
		confirm, err := cli.ReadPassword("Confirm new password: ")
		if err != nil {
			return err
		}
		if next != confirm {
			return fmt.Errorf("passwords do not match")
		}
		if err := api.ChangePassword(ctx, current, next); err != nil {
			return err
		}
		color.Green("Password changed")
		color.Yellow("Other sessions were signed out; log in again where needed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}
