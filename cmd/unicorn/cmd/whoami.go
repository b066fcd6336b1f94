package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity behind the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}
		ident, err := api.Me(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", ident.DisplayName, ident.AccountType)
		fmt.Fprintf(out, "id: %s\n", ident.UserID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
