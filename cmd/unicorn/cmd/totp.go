package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/devprozorov/unicorn/internal/cli"
)

var totpCmd = &cobra.Command{
	Use:   "totp",
	Short: "Manage two-factor authentication",
}

var totpEnrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Start two-factor enrollment",
	Long: `Request a new authenticator secret. Add it to an authenticator app,
then confirm with 'unicorn totp enable' before the secret expires.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}
		enrollment, err := api.TOTPEnroll(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Secret:  %s\n", enrollment.Secret)
		fmt.Fprintf(out, "URL:     %s\n", enrollment.OTPAuthURL)
		fmt.Fprintf(out, "Expires: %ds\n", enrollment.ExpiresIn)
		color.Yellow("Confirm with 'unicorn totp enable' before the secret expires.")
		return nil
	},
}

var totpEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Confirm enrollment with a one-time code",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}
		code, err := cli.ReadLine("One-time code: ")
		if err != nil {
			return err
		}
		if err := api.TOTPEnable(ctx, code); err != nil {
			return err
		}
		color.Green("Two-factor authentication enabled")
		color.Yellow("Other sessions were signed out; log in again where needed.")
		return nil
	},
}

var totpDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn two-factor authentication off",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}
		code, err := cli.ReadLine("One-time code: ")
		if err != nil {
			return err
		}
		if err := api.TOTPDisable(ctx, code); err != nil {
			return err
		}
		color.Green("Two-factor authentication disabled")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(totpCmd)
	totpCmd.AddCommand(totpEnrollCmd)
	totpCmd.AddCommand(totpEnableCmd)
	totpCmd.AddCommand(totpDisableCmd)
}
