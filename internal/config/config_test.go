package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-community/org-site-data/internal/gateway"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GITHUB_TOKEN", "")

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)

	assert.Equal(t, "beam-community", cfg.Org)
	assert.Equal(t, StrategyDownloads, cfg.Stats.Strategy)
	assert.Equal(t, gateway.DefaultHexBaseURL, cfg.Hex.BaseURL)
	assert.Equal(t, 10, cfg.Hex.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.GitHub.WaitRateLimit)
	assert.Empty(t, cfg.GitHub.Token)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
org: from-file
stats:
  strategy: members
hex:
  concurrency: 3
http:
  timeout: 30s
`)
	t.Setenv("ORGSITE_HEX_CONCURRENCY", "5")
	t.Setenv("GITHUB_TOKEN", "env-token")

	loader := NewLoader()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("org", "", "")
	require.NoError(t, loader.BindFlag("org", flags.Lookup("org")))
	require.NoError(t, flags.Parse([]string{"--org", "from-flag"}))

	cfg, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Org, "flag beats file")
	assert.Equal(t, 5, cfg.Hex.Concurrency, "env beats file")
	assert.Equal(t, StrategyMembers, cfg.Stats.Strategy, "file beats default")
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, path, loader.ConfigFileUsed())
}

func TestLoad_PrefixedTokenWins(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GITHUB_TOKEN", "plain")
	t.Setenv("ORGSITE_GITHUB_TOKEN", "prefixed")

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.GitHub.Token)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		missingFile    bool
		expectedErrMsg string
	}{
		{
			name:           "explicit file must exist",
			missingFile:    true,
			expectedErrMsg: "failed to read config",
		},
		{
			name:           "unknown strategy",
			body:           "stats:\n  strategy: guess\n",
			expectedErrMsg: `unknown stats strategy "guess"`,
		},
		{
			name:           "negative concurrency",
			body:           "hex:\n  concurrency: -1\n",
			expectedErrMsg: "hex.concurrency must not be negative",
		},
		{
			name:           "empty org",
			body:           "org: \"\"\n",
			expectedErrMsg: "org must not be empty",
		},
		{
			name:           "bad log level",
			body:           "log:\n  level: loud\n",
			expectedErrMsg: "invalid log.level",
		},
		{
			name:           "bad log format",
			body:           "log:\n  format: xml\n",
			expectedErrMsg: `unknown log.format "xml"`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.yml")
			if !tc.missingFile {
				path = writeConfig(t, tc.body)
			}
			cfg, err := NewLoader().Load(path)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)
		})
	}
}
