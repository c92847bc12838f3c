package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soliplex/flasharb/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ValidateConfig())

	assert.Equal(t, 5*time.Second, cfg.ScanInterval())
	assert.Equal(t, time.Minute, cfg.PriceMaxAge())
	assert.Equal(t, types.PriorityHigh, cfg.Priority())
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero scan interval", func(c *Config) { c.ScanIntervalSeconds = 0 }},
		{"zero price max age", func(c *Config) { c.PriceMaxAgeSeconds = 0 }},
		{"negative profit threshold", func(c *Config) { c.MinProfitThreshold = -1 }},
		{"confidence above one", func(c *Config) { c.MinConfidence = 1.5 }},
		{"unknown priority", func(c *Config) { c.PriorityLevel = "urgent" }},
		{"zero executions per cycle", func(c *Config) { c.MaxExecutionsPerCycle = 0 }},
		{"zero history size", func(c *Config) { c.HistorySize = 0 }},
		{"zero rate limit", func(c *Config) { c.QuoteRateLimit.RequestsPerSecond = 0 }},
		{"prometheus without endpoint", func(c *Config) {
			c.PrometheusEnabled = true
			c.PrometheusEndpoint = ""
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.ValidateConfig())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().ScanIntervalSeconds, cfg.ScanIntervalSeconds)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := `
scan_interval_seconds: 2
min_profit_threshold: 0.25
priority_level: low
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.ScanInterval())
		assert.Equal(t, 0.25, cfg.MinProfitThreshold)
		assert.Equal(t, types.PriorityLow, cfg.Priority())
		// untouched fields keep their defaults
		assert.Equal(t, 10, cfg.HistorySize)
	})

	t.Run("invalid file is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("scan_interval_seconds: -1\n"), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestRegistryOverrides(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("defaults when unset", func(t *testing.T) {
		venues := cfg.BuildVenueRegistry()
		_, ok := venues.Lookup("Jupiter")
		assert.True(t, ok)

		providers := cfg.BuildProviderRegistry()
		_, ok = providers.Lookup("Solend")
		assert.True(t, ok)
	})

	t.Run("overrides replace the built-in tables", func(t *testing.T) {
		cfg.Venues = []VenueConfig{{
			Name:                  "TestDEX",
			Assets:                []string{"SOL", "USDC"},
			FeeRate:               0.001,
			SlippageRate:          0.0005,
			PriorityFeeMultiplier: 1.0,
			Major:                 true,
		}}
		cfg.LoanProviders = []ProviderConfig{{
			Name:          "TestLender",
			MaxLoanAmount: 5000,
			Assets:        []string{"USDC"},
			FeeRate:       0.0001,
		}}

		venues := cfg.BuildVenueRegistry()
		require.Len(t, venues.Venues(), 1)
		v, ok := venues.Lookup("TestDEX")
		require.True(t, ok)
		assert.True(t, v.Supports("SOL"))

		providers := cfg.BuildProviderRegistry()
		require.Len(t, providers.Providers(), 1)
		p, err := providers.CheapestFor("USDC")
		require.NoError(t, err)
		assert.Equal(t, "TestLender", p.Name)
	})
}
