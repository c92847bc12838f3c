package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/soliplex/flasharb/registry"
	"github.com/soliplex/flasharb/types"
)

type Config struct {
	// Scan loop settings
	ScanIntervalSeconds int `yaml:"scan_interval_seconds"`
	PriceMaxAgeSeconds  int `yaml:"price_max_age_seconds"`

	// Acceptance thresholds
	MinProfitThreshold float64 `yaml:"min_profit_threshold"`
	MinConfidence      float64 `yaml:"min_confidence"`

	// Execution settings
	PriorityLevel         string `yaml:"priority_level"`
	MaxExecutionsPerCycle int    `yaml:"max_executions_per_cycle"`
	HistorySize           int    `yaml:"history_size"`

	// Quote source settings
	QuoteRateLimit RateLimitConfig `yaml:"quote_rate_limit"`
	PricesFile     string          `yaml:"prices_file"`

	// Feature flags
	PrometheusEnabled  bool   `yaml:"prometheus_enabled"`
	PrometheusEndpoint string `yaml:"prometheus_endpoint"`

	// Optional registry overrides; built-in tables are used when empty.
	Venues        []VenueConfig    `yaml:"venues"`
	LoanProviders []ProviderConfig `yaml:"loan_providers"`

	// Internal components
	Logger *zap.Logger `yaml:"-"`
}

type VenueConfig struct {
	Name                  string   `yaml:"name"`
	Assets                []string `yaml:"assets"`
	FeeRate               float64  `yaml:"fee_rate"`
	SlippageRate          float64  `yaml:"slippage_rate"`
	PriorityFeeMultiplier float64  `yaml:"priority_fee_multiplier"`
	Major                 bool     `yaml:"major"`
}

type ProviderConfig struct {
	Name          string   `yaml:"name"`
	MaxLoanAmount float64  `yaml:"max_loan_amount"`
	Assets        []string `yaml:"assets"`
	FeeRate       float64  `yaml:"fee_rate"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

func (r *RateLimitConfig) Validate() error {
	if r.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if r.BurstSize <= 0 {
		return fmt.Errorf("burst size must be positive")
	}
	return nil
}

func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

func (c *Config) PriceMaxAge() time.Duration {
	return time.Duration(c.PriceMaxAgeSeconds) * time.Second
}

func (c *Config) Priority() types.PriorityLevel {
	return types.PriorityLevel(c.PriorityLevel)
}

func (c *Config) ValidateConfig() error {
	var errors []string

	if c.ScanIntervalSeconds <= 0 {
		errors = append(errors, "scan_interval_seconds must be positive")
	}
	if c.PriceMaxAgeSeconds <= 0 {
		errors = append(errors, "price_max_age_seconds must be positive")
	}
	if c.MinProfitThreshold < 0 {
		errors = append(errors, "min_profit_threshold must not be negative")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errors = append(errors, "min_confidence must be within [0, 1]")
	}
	switch types.PriorityLevel(c.PriorityLevel) {
	case types.PriorityHigh, types.PriorityMedium, types.PriorityLow:
	default:
		errors = append(errors, fmt.Sprintf("unsupported priority_level %q", c.PriorityLevel))
	}
	if c.MaxExecutionsPerCycle <= 0 {
		errors = append(errors, "max_executions_per_cycle must be positive")
	}
	if c.HistorySize <= 0 {
		errors = append(errors, "history_size must be positive")
	}
	if err := c.QuoteRateLimit.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("quote rate limit error: %v", err))
	}
	if c.PrometheusEnabled && c.PrometheusEndpoint == "" {
		errors = append(errors, "prometheus_endpoint must be set when prometheus is enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}
	return nil
}

// BuildVenueRegistry materializes the venue table, falling back to the
// built-in defaults when no override is configured.
func (c *Config) BuildVenueRegistry() *registry.VenueRegistry {
	if len(c.Venues) == 0 {
		return registry.NewVenueRegistry(registry.DefaultVenues()...)
	}
	venues := make([]*registry.Venue, 0, len(c.Venues))
	for _, vc := range c.Venues {
		assets := make(map[string]bool, len(vc.Assets))
		for _, a := range vc.Assets {
			assets[a] = true
		}
		venues = append(venues, &registry.Venue{
			Name:                  vc.Name,
			Assets:                assets,
			FeeRate:               vc.FeeRate,
			SlippageRate:          vc.SlippageRate,
			PriorityFeeMultiplier: vc.PriorityFeeMultiplier,
			Major:                 vc.Major,
		})
	}
	return registry.NewVenueRegistry(venues...)
}

// BuildProviderRegistry materializes the loan provider table.
func (c *Config) BuildProviderRegistry() *registry.LoanProviderRegistry {
	if len(c.LoanProviders) == 0 {
		return registry.NewLoanProviderRegistry(registry.DefaultLoanProviders()...)
	}
	providers := make([]*registry.LoanProvider, 0, len(c.LoanProviders))
	for _, pc := range c.LoanProviders {
		assets := make(map[string]bool, len(pc.Assets))
		for _, a := range pc.Assets {
			assets[a] = true
		}
		providers = append(providers, &registry.LoanProvider{
			Name:          pc.Name,
			MaxLoanAmount: pc.MaxLoanAmount,
			Assets:        assets,
			FeeRate:       pc.FeeRate,
		})
	}
	return registry.NewLoanProviderRegistry(providers...)
}

// LoadConfig reads a yaml config file, applying defaults for anything unset.
// An empty path returns the defaults.
func LoadConfig(cfgFile string) (*Config, error) {
	config := DefaultConfig()
	if cfgFile == "" {
		return config, nil
	}

	raw, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", cfgFile, err)
	}

	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}
	return config, nil
}

func DefaultConfig() *Config {
	return &Config{
		Logger:                zap.NewNop(),
		ScanIntervalSeconds:   5,
		PriceMaxAgeSeconds:    60,
		MinProfitThreshold:    1.0,
		MinConfidence:         0.6,
		PriorityLevel:         string(types.PriorityHigh),
		MaxExecutionsPerCycle: 3,
		HistorySize:           10,
		QuoteRateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			BurstSize:         40,
		},
		PrometheusEnabled:  false,
		PrometheusEndpoint: "",
	}
}
