package cmd

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/devprozorov/unicorn/internal/cli"
)

var vacanciesCmd = &cobra.Command{
	Use:   "vacancies [tag...]",
	Short: "List active vacancies",
	Long: `List vacancies, optionally filtered by tag. The listing is public;
no login is required. Premium vacancies are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		api.Bootstrap(ctx)

		vacancies, err := api.ListVacancies(ctx, args...)
		if err != nil {
			return err
		}
		premium := color.New(color.FgYellow).SprintFunc()
		table := cli.NewTable(cmd.OutOrStdout(), "ID", "Title", "Location", "Tags")
		for _, v := range vacancies {
			title := v.Title
			if v.IsPremium {
				title = premium(title + " *")
			}
			table.AddRow(v.VacancyID, title, v.Location, strings.Join(v.Tags, ", "))
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vacanciesCmd)
}
