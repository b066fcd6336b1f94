package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/devprozorov/unicorn/client"
	"github.com/devprozorov/unicorn/internal/cli"
)

var registerCmd = &cobra.Command{
	Use:   "register <login>",
	Short: "Create an account and log in",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().String("name", "", "display name")
	registerCmd.Flags().String("type", "user", "account type: user or company")
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, _ := cmd.Flags().GetString("name")
	accountType, _ := cmd.Flags().GetString("type")
	if accountType != "user" && accountType != "company" {
		return fmt.Errorf("invalid account type %q: must be user or company", accountType)
	}
	if name == "" {
		name = args[0]
	}

	password, err := cli.ReadPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := cli.ReadPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	res, err := api.Register(ctx, client.RegisterParams{
		Login:       args[0],
		Password:    password,
		DisplayName: name,
		Type:        accountType,
	})
	if err != nil {
		return err
	}
	color.Green("Account created; logged in as %s", res.Identity.DisplayName)
	return nil
}
