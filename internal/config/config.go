// Package config provides configuration management for the scanner.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	yaml "gopkg.in/yaml.v3"

	"github.com/eddiefleurent/pmcc_scout/internal/scan"
)

const (
	// defaultScanInterval is used when scan.interval is unset.
	defaultScanInterval = 15 * time.Minute
	// defaultParallelism bounds concurrent symbol scans when unset.
	defaultParallelism = 4
)

// Config represents the complete application configuration.
//
// Precision-sensitive thresholds are YAML strings parsed into decimals at
// load time so values like "0.33" survive exactly as written.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Provider    ProviderConfig    `yaml:"provider"`
	Scan        ScanConfig        `yaml:"scan"`
	Risk        RiskConfig        `yaml:"risk"`
	Storage     StorageConfig     `yaml:"storage"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	Mode     string `yaml:"mode"`      // paper | live
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// ProviderConfig defines market data API settings.
type ProviderConfig struct {
	Name    string `yaml:"name"` // tradier | mock
	APIKey  string `yaml:"api_key"`
	Sandbox bool   `yaml:"sandbox"`
}

// ScanConfig defines what to scan and how to gate candidates.
type ScanConfig struct {
	Symbols          []string `yaml:"symbols"`
	Interval         string   `yaml:"interval"`
	Parallelism      int      `yaml:"parallelism"`
	MaxOpportunities int      `yaml:"max_opportunities"`

	MinRiskReward      string `yaml:"min_risk_reward"`
	MinPremiumCoverage string `yaml:"min_premium_coverage_ratio"`

	LEAPS   CriteriaConfig       `yaml:"leaps"`
	Short   CriteriaConfig       `yaml:"short"`
	Weights *scan.ScoringWeights `yaml:"weights"`
}

// CriteriaConfig overrides individual candidate gates. Empty fields keep the
// built-in defaults for the pool.
type CriteriaConfig struct {
	MinDTE             int    `yaml:"min_dte"`
	MaxDTE             int    `yaml:"max_dte"`
	MinDelta           string `yaml:"min_delta"`
	MaxDelta           string `yaml:"max_delta"`
	MaxBidAskSpreadPct string `yaml:"max_bid_ask_spread_pct"`
	MinOpenInterest    int64  `yaml:"min_open_interest"`
	MinVolume          int64  `yaml:"min_volume"`
	MaxPremiumPct      string `yaml:"max_premium_pct"`   // LEAPS only
	MaxExtrinsicPct    string `yaml:"max_extrinsic_pct"` // LEAPS only
}

// RiskConfig defines risk analytics inputs.
type RiskConfig struct {
	AccountSize     string `yaml:"account_size"`
	RiskFreeRatePct string `yaml:"risk_free_rate_pct"`
}

// StorageConfig defines storage settings for scan history.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// DashboardConfig defines the report server settings.
type DashboardConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
	AuthToken  string `yaml:"auth_token"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.Environment.Mode != "paper" && c.Environment.Mode != "live" {
		return fmt.Errorf("environment.mode must be 'paper' or 'live'")
	}

	switch c.Provider.Name {
	case "tradier":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider.api_key is required for tradier")
		}
	case "mock":
		if c.Environment.Mode == "live" {
			return fmt.Errorf("provider.name 'mock' cannot be used in live mode")
		}
	default:
		return fmt.Errorf("provider.name must be 'tradier' or 'mock'")
	}

	if len(c.Scan.Symbols) == 0 {
		return fmt.Errorf("scan.symbols must list at least one symbol")
	}
	for _, symbol := range c.Scan.Symbols {
		if strings.TrimSpace(symbol) == "" {
			return fmt.Errorf("scan.symbols must not contain blank entries")
		}
	}
	if c.Scan.Interval != "" {
		if _, err := time.ParseDuration(c.Scan.Interval); err != nil {
			return fmt.Errorf("scan.interval invalid: %w", err)
		}
	}
	if c.Scan.Parallelism < 0 {
		return fmt.Errorf("scan.parallelism must be non-negative")
	}
	if c.Scan.MaxOpportunities < 0 {
		return fmt.Errorf("scan.max_opportunities must be non-negative")
	}

	// Decimal fields must parse; range checks happen in scan.Config.Validate.
	decimalFields := map[string]string{
		"scan.min_risk_reward":            c.Scan.MinRiskReward,
		"scan.min_premium_coverage_ratio": c.Scan.MinPremiumCoverage,
		"risk.account_size":               c.Risk.AccountSize,
		"risk.risk_free_rate_pct":         c.Risk.RiskFreeRatePct,
	}
	for _, pool := range []struct {
		prefix string
		crit   CriteriaConfig
	}{{"scan.leaps", c.Scan.LEAPS}, {"scan.short", c.Scan.Short}} {
		decimalFields[pool.prefix+".min_delta"] = pool.crit.MinDelta
		decimalFields[pool.prefix+".max_delta"] = pool.crit.MaxDelta
		decimalFields[pool.prefix+".max_bid_ask_spread_pct"] = pool.crit.MaxBidAskSpreadPct
		decimalFields[pool.prefix+".max_premium_pct"] = pool.crit.MaxPremiumPct
		decimalFields[pool.prefix+".max_extrinsic_pct"] = pool.crit.MaxExtrinsicPct
	}
	for field, value := range decimalFields {
		if value == "" {
			continue
		}
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("%s invalid: %w", field, err)
		}
		if parsed.Sign() < 0 {
			return fmt.Errorf("%s must be non-negative", field)
		}
	}

	if c.Dashboard.Enabled && c.Dashboard.ListenAddr == "" {
		return fmt.Errorf("dashboard.listen_addr is required when the dashboard is enabled")
	}

	return nil
}

// IsPaper returns true when the scanner runs against synthetic or sandbox data.
func (c *Config) IsPaper() bool {
	return c.Environment.Mode == "paper"
}

// ScanInterval returns the configured scan interval duration.
func (c *Config) ScanInterval() time.Duration {
	d, err := time.ParseDuration(c.Scan.Interval)
	if err != nil || d <= 0 {
		return defaultScanInterval
	}
	return d
}

// Parallelism returns the configured symbol-scan parallelism.
func (c *Config) Parallelism() int {
	if c.Scan.Parallelism <= 0 {
		return defaultParallelism
	}
	return c.Scan.Parallelism
}

// ToScanConfig converts the YAML settings into the engine's configuration,
// applying built-in defaults for every unset gate. Validate must have passed.
func (c *Config) ToScanConfig() scan.Config {
	cfg := scan.DefaultConfig()

	applyCriteria := func(src CriteriaConfig, minDTE, maxDTE *int, minDelta, maxDelta, maxSpread *decimal.Decimal, minOI, minVolume *int64) {
		if src.MinDTE > 0 {
			*minDTE = src.MinDTE
		}
		if src.MaxDTE > 0 {
			*maxDTE = src.MaxDTE
		}
		overrideDecimal(minDelta, src.MinDelta)
		overrideDecimal(maxDelta, src.MaxDelta)
		overrideDecimal(maxSpread, src.MaxBidAskSpreadPct)
		if src.MinOpenInterest > 0 {
			*minOI = src.MinOpenInterest
		}
		if src.MinVolume > 0 {
			*minVolume = src.MinVolume
		}
	}

	applyCriteria(c.Scan.LEAPS,
		&cfg.LEAPS.MinDTE, &cfg.LEAPS.MaxDTE,
		&cfg.LEAPS.MinDelta, &cfg.LEAPS.MaxDelta, &cfg.LEAPS.MaxBidAskSpreadPct,
		&cfg.LEAPS.MinOpenInterest, &cfg.LEAPS.MinVolume)
	overrideDecimal(&cfg.LEAPS.MaxPremiumPct, c.Scan.LEAPS.MaxPremiumPct)
	overrideDecimal(&cfg.LEAPS.MaxExtrinsicPct, c.Scan.LEAPS.MaxExtrinsicPct)

	applyCriteria(c.Scan.Short,
		&cfg.Short.MinDTE, &cfg.Short.MaxDTE,
		&cfg.Short.MinDelta, &cfg.Short.MaxDelta, &cfg.Short.MaxBidAskSpreadPct,
		&cfg.Short.MinOpenInterest, &cfg.Short.MinVolume)

	overrideDecimal(&cfg.Pair.MinRiskReward, c.Scan.MinRiskReward)
	overrideDecimal(&cfg.Pair.MinPremiumCoverage, c.Scan.MinPremiumCoverage)
	overrideDecimal(&cfg.Short.MinPremiumCoverageRatio, c.Scan.MinPremiumCoverage)

	if c.Scan.MaxOpportunities > 0 {
		cfg.MaxOpportunities = c.Scan.MaxOpportunities
	}
	if c.Scan.Weights != nil {
		cfg.Weights = *c.Scan.Weights
	}

	return cfg
}

// AccountSize returns the configured account size, zero when unset (the risk
// analyzer applies its own default).
func (c *Config) AccountSize() decimal.Decimal {
	return parseDecimalOrZero(c.Risk.AccountSize)
}

// RiskFreeRatePct returns the configured risk-free rate in percent.
func (c *Config) RiskFreeRatePct() decimal.Decimal {
	return parseDecimalOrZero(c.Risk.RiskFreeRatePct)
}

func overrideDecimal(dst *decimal.Decimal, value string) {
	if value == "" {
		return
	}
	if parsed, err := decimal.NewFromString(value); err == nil {
		*dst = parsed
	}
}

func parseDecimalOrZero(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}
