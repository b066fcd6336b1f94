package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/devprozorov/unicorn/internal/cli"
)

var loginCmd = &cobra.Command{
	Use:   "login <login>",
	Short: "Log in and store the access token",
	Long: `Authenticate with the backend and keep the access token in the local
token file. When the account has two-factor auth enabled a one-time
code is prompted for.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().String("password", "", "password (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		var err error
		password, err = cli.ReadPassword("Password: ")
		if err != nil {
			return err
		}
	}

	res, err := api.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	if res.MFARequired {
		code, err := cli.ReadLine("One-time code: ")
		if err != nil {
			return err
		}
		res, err = api.VerifyTOTP(ctx, code)
		if err != nil {
			return err
		}
	}

	color.Green("Logged in as %s (%s)", res.Identity.DisplayName, res.Identity.AccountType)
	fmt.Fprintf(cmd.OutOrStdout(), "Token stored in %s\n", cfg.Token.Path)
	return nil
}
