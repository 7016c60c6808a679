package cmd

import (
	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Outputs projects and organization stats as JSON",
		Long: `Builds the full site snapshot: the ranked project list, the org totals (stars, forks, project count)
and the field added by the configured stats strategy (package downloads or member count).
The "source" field reports whether the projects are live or the built-in fallback.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot := a.aggregator.Snapshot(cmd.Context())
			a.logger.WithField("source", snapshot.Source).Info("Snapshot built.")
			return writeJSON(cmd, snapshot)
		},
	}
	cmd.Flags().String("output", "", "write the JSON to this file instead of stdout")
	return cmd
}
