package util

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	ProviderYahoo = "yahoo"
	ProviderCsv   = "csv"

	RiskFreeSourceTnx      = "tnx"
	RiskFreeSourceTreasury = "treasury"
)

type Config struct {
	// S&P 500 long run average, about 10% annually
	MarketReturn       float64 `json:"marketReturn"`
	TerminalGrowthRate float64 `json:"terminalGrowthRate"`
	DefaultYears       int     `json:"defaultYears"`

	Provider       string      `json:"provider"`
	SnapshotFile   string      `json:"snapshotFile"`
	RiskFreeSource string      `json:"riskFreeSource"`
	Yahoo          YahooConfig `json:"yahoo"`
	TreasuryURL    string      `json:"treasuryUrl"`

	Port int `json:"port"`
}

type YahooConfig struct {
	BaseURL           string `json:"baseUrl"`
	RequestsPerSecond int    `json:"requestsPerSecond"`
	TimeoutSeconds    int    `json:"timeoutSeconds"`
}

func NewDefaultConfig() *Config {
	return &Config{
		MarketReturn:       0.1,
		TerminalGrowthRate: 0.03,
		DefaultYears:       10,
		Provider:           ProviderYahoo,
		RiskFreeSource:     RiskFreeSourceTnx,
		Yahoo: YahooConfig{
			BaseURL:           "https://query2.finance.yahoo.com",
			RequestsPerSecond: 2,
			TimeoutSeconds:    10,
		},
		TreasuryURL: "https://www.ustreasuryyieldcurve.com",
		Port:        3009,
	}
}

// LoadConfig reads .env (if present), then the JSON file at $DCF_CONFIG over
// the defaults, then individual env overrides.
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := NewDefaultConfig()

	if configFile := os.Getenv("DCF_CONFIG"); configFile != "" {
		f, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("could not open %s: %w", configFile, err)
		}
		err = json.Unmarshal(f, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configFile, err)
		}
	}

	if v := os.Getenv("DCF_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("DCF_SNAPSHOT_FILE"); v != "" {
		cfg.SnapshotFile = v
	}
	if v := os.Getenv("DCF_RISK_FREE_SOURCE"); v != "" {
		cfg.RiskFreeSource = v
	}
	if v := os.Getenv("DCF_YAHOO_BASE_URL"); v != "" {
		cfg.Yahoo.BaseURL = v
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.MarketReturn <= -1 || c.MarketReturn >= 1 {
		return fmt.Errorf("market return must be between -1 and 1, got %f", c.MarketReturn)
	}
	if c.TerminalGrowthRate <= -1 || c.TerminalGrowthRate >= 1 {
		return fmt.Errorf("terminal growth rate must be between -1 and 1, got %f", c.TerminalGrowthRate)
	}
	if c.DefaultYears <= 0 {
		return fmt.Errorf("default years must be positive")
	}

	switch c.Provider {
	case ProviderYahoo:
		if c.Yahoo.BaseURL == "" {
			return fmt.Errorf("yahoo base url is required")
		}
		if c.Yahoo.RequestsPerSecond <= 0 {
			return fmt.Errorf("yahoo requests per second must be positive")
		}
		if c.Yahoo.TimeoutSeconds <= 0 {
			return fmt.Errorf("yahoo timeout must be positive")
		}
	case ProviderCsv:
		if c.SnapshotFile == "" {
			return fmt.Errorf("snapshot file is required for the csv provider")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch c.RiskFreeSource {
	case RiskFreeSourceTnx, RiskFreeSourceTreasury:
	default:
		return fmt.Errorf("unknown risk free source %q", c.RiskFreeSource)
	}

	return nil
}
