package cmd

import (
	"github.com/spf13/cobra"
)

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Outputs the ranked project list as JSON",
		Long: `Fetches the organization's repositories, drops archived and excluded ones, orders them by stars
and marks the top six as featured. Falls back to the built-in project list when GitHub is unavailable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := a.aggregator.FetchProjects(cmd.Context())
			a.metrics.SetProjects(len(result.Value))
			return writeJSON(cmd, result.Value)
		},
	}
	cmd.Flags().String("output", "", "write the JSON to this file instead of stdout")
	return cmd
}
