// Package config loads the application configuration from flags, environment and an
// optional YAML file.
//
// Precedence, highest first:
//  1. command-line flags bound with BindFlags
//  2. ORGSITE_* environment variables (ORGSITE_HEX_CONCURRENCY for hex.concurrency);
//     GITHUB_TOKEN is also accepted for github.token
//  3. the config file (--config, or .org-site-data.yml in the working directory)
//  4. defaults
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/beam-community/org-site-data/internal/domain"
	"github.com/beam-community/org-site-data/internal/gateway"
)

// Stats strategies.
const (
	StrategyNone           = "none"
	StrategyDownloads      = "downloads"
	StrategyMembers        = "members"
	StrategyMembersGraphQL = "members-graphql"
)

// Strategies lists every accepted stats.strategy value.
var Strategies = []string{StrategyNone, StrategyDownloads, StrategyMembers, StrategyMembersGraphQL}

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "ORGSITE"

// Config is the full application configuration.
type Config struct {
	Org     string        `mapstructure:"org"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	Hex     HexConfig     `mapstructure:"hex"`
	Stats   StatsConfig   `mapstructure:"stats"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// GitHubConfig configures the GitHub REST and GraphQL clients.
type GitHubConfig struct {
	Token         string `mapstructure:"token"`
	BaseURL       string `mapstructure:"base_url"`
	GraphQLURL    string `mapstructure:"graphql_url"`
	WaitRateLimit bool   `mapstructure:"wait_rate_limit"`
}

// HexConfig configures the Hex package registry lookups.
type HexConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Concurrency int    `mapstructure:"concurrency"`
}

// StatsConfig selects how org stats are augmented.
type StatsConfig struct {
	Strategy string `mapstructure:"strategy"`
}

// HTTPConfig holds settings shared by every outbound client.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// File is where the Prometheus textfile is written after a run; empty disables it.
	File string `mapstructure:"file"`
}

// LogConfig sets the logrus level and formatter.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Loader wraps a viper instance so flags can be bound before Load.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader with defaults and environment binding set up.
func NewLoader() *Loader {
	v := viper.New()
	v.SetDefault("org", domain.DefaultOrg)
	v.SetDefault("github.base_url", "")
	v.SetDefault("github.graphql_url", "")
	v.SetDefault("github.wait_rate_limit", false)
	v.SetDefault("hex.base_url", gateway.DefaultHexBaseURL)
	v.SetDefault("hex.concurrency", 10)
	v.SetDefault("stats.strategy", StrategyDownloads)
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("metrics.file", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional variable name wins over nothing but loses to ORGSITE_GITHUB_TOKEN.
	_ = v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")

	return &Loader{v: v}
}

// BindFlag binds a single flag to a config key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for config key %q", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the config file, if any, and returns the validated configuration.
// An empty path searches for .org-site-data.yml in the working directory and tolerates
// its absence; an explicit path must exist.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.AddConfigPath(".")
		l.v.SetConfigType("yaml")
		l.v.SetConfigName(".org-site-data")
	}
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Validate rejects configurations the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Org) == "" {
		errs = append(errs, errors.New("org must not be empty"))
	}
	if !slices.Contains(Strategies, c.Stats.Strategy) {
		errs = append(errs, fmt.Errorf("unknown stats strategy %q (want one of %s)", c.Stats.Strategy, strings.Join(Strategies, ", ")))
	}
	if c.Hex.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("hex.concurrency must not be negative, got %d", c.Hex.Concurrency))
	}
	if c.HTTP.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http.timeout must not be negative, got %s", c.HTTP.Timeout))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log.level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log.format %q (want text or json)", c.Log.Format))
	}
	return errors.Join(errs...)
}
