// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/beam-community/org-site-data/internal/config"
	"github.com/beam-community/org-site-data/internal/gateway"
	"github.com/beam-community/org-site-data/internal/metrics"
	"github.com/beam-community/org-site-data/internal/usecase"
)

// app holds the dependencies shared by every subcommand, built once the config is loaded.
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	metrics    *metrics.Metrics
	aggregator *usecase.Aggregator
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	loader := config.NewLoader()
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "org-site-data",
		Short: "Builds the project and stats data for the organization website.",
		Long: `org-site-data fetches the organization's repositories from GitHub, ranks them by stars,
marks the featured ones and computes org-wide statistics. When an upstream API is unavailable
it falls back to static data, so the site build never fails because of it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, loader, cfgFile)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg == nil || a.cfg.Metrics.File == "" {
				return nil
			}
			if err := a.metrics.WriteTextfile(a.cfg.Metrics.File); err != nil {
				return fmt.Errorf("failed to write metrics file: %w", err)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .org-site-data.yml)")
	flags.BoolP("verbose", "v", false, "Enable verbose/debug logging")
	flags.StringP("org", "o", "", "GitHub organization (default beam-community)")
	flags.String("strategy", "", "stats strategy: none, downloads, members, members-graphql")
	flags.String("metrics-file", "", "write Prometheus metrics to this file after the run")
	for key, name := range map[string]string{
		"org":            "org",
		"stats.strategy": "strategy",
		"metrics.file":   "metrics-file",
	} {
		// Binding a flag that was just defined cannot fail.
		_ = loader.BindFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(newProjectsCmd(a), newStatsCmd(a))
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, loader *config.Loader, cfgFile string) error {
	cfg, err := loader.Load(cfgFile)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	level, _ := logrus.ParseLevel(cfg.Log.Level) // validated by Load
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if used := loader.ConfigFileUsed(); used != "" {
		logger.WithField("path", used).Debug("Using config file")
	}

	m := metrics.New()
	githubGateway, err := gateway.NewGitHubGateway(gateway.GitHubOptions{
		Token:         cfg.GitHub.Token,
		BaseURL:       cfg.GitHub.BaseURL,
		GraphQLURL:    cfg.GitHub.GraphQLURL,
		WaitRateLimit: cfg.GitHub.WaitRateLimit,
		Timeout:       cfg.HTTP.Timeout,
	}, logger, m)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.metrics = m
	a.aggregator = usecase.NewAggregator(cfg.Org, githubGateway, newStrategy(cfg, githubGateway, logger, m), logger, m)
	return nil
}

func newStrategy(cfg *config.Config, fetcher gateway.Fetcher, logger logrus.FieldLogger, m *metrics.Metrics) usecase.StatsStrategy {
	switch cfg.Stats.Strategy {
	case config.StrategyDownloads:
		hex := gateway.NewHexGateway(cfg.Hex.BaseURL, cfg.HTTP.Timeout, logger, m)
		return usecase.NewDownloadsStrategy(hex, cfg.Hex.Concurrency, logger, m)
	case config.StrategyMembers:
		return usecase.NewMembersStrategy(cfg.Org, fetcher, logger, m)
	case config.StrategyMembersGraphQL:
		return usecase.NewGraphQLMembersStrategy(cfg.Org, fetcher, logger, m)
	default:
		return usecase.NoAugment{}
	}
}

// writeJSON writes v as indented JSON to the --output file, or to stdout when it is empty.
func writeJSON(cmd *cobra.Command, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		if err := os.WriteFile(output, jsonData, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	if _, err := cmd.OutOrStdout().Write(jsonData); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
