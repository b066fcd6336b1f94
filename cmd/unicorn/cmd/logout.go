package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the session and forget the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		api.Bootstrap(ctx)
		if err := api.Logout(ctx); err != nil {
			// The local token is gone either way.
			logger.Debug("server-side logout failed", "error", err)
		}
		color.Green("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
