package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/devprozorov/unicorn/internal/cli"
)

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "List your resumes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}
		resumes, err := api.MyResumes(ctx)
		if err != nil {
			return err
		}
		table := cli.NewTable(cmd.OutOrStdout(), "ID", "Title", "Status", "Skills")
		for _, r := range resumes {
			table.AddRow(r.ResumeID, r.Title, r.Status, strings.Join(r.Skills, ", "))
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumesCmd)
}
