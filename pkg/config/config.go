// Package config loads application configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	Port        string `mapstructure:"port"`
	LockDir     string `mapstructure:"lock_dir"`

	// Valuation units. Base is what the rate table is quoted in; secondary
	// is derived through the base at valuation time.
	BaseCurrency      string `mapstructure:"base_currency"`
	SecondaryCurrency string `mapstructure:"secondary_currency"`

	// Quote source identity used for symbol mappings and rate provenance.
	RateSource   string `mapstructure:"rate_source"`
	QuoteBaseURL string `mapstructure:"quote_base_url"`

	// Exchange REST credentials.
	ExchangeBaseURL   string `mapstructure:"exchange_base_url"`
	ExchangeAPIKey    string `mapstructure:"exchange_api_key"`
	ExchangeAPISecret string `mapstructure:"exchange_api_secret"`
	ExchangeAccount   string `mapstructure:"exchange_account"`

	// Google Sheets: manual balance input and dashboard export.
	SheetsCredentialsFile string `mapstructure:"sheets_credentials_file"`
	SheetsSpreadsheetID   string `mapstructure:"sheets_spreadsheet_id"`
	SheetsBalanceRange    string `mapstructure:"sheets_balance_range"`
	SheetsExportRange     string `mapstructure:"sheets_export_range"`
	SheetsAccount         string `mapstructure:"sheets_account"`
}

// LoadConfig reads configuration from the environment (PFT_ prefix). A .env
// file in the working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("lock_dir", "/tmp")
	v.SetDefault("base_currency", "USD")
	v.SetDefault("secondary_currency", "IDR")
	v.SetDefault("rate_source", "tradingview")
	v.SetDefault("quote_base_url", "https://scanner.tradingview.com")
	v.SetDefault("exchange_base_url", "https://api.binance.com")
	v.SetDefault("exchange_account", "Binance")
	v.SetDefault("sheets_balance_range", "Balances!A2:C")
	v.SetDefault("sheets_export_range", "Dashboard!A1")
	v.SetDefault("sheets_account", "Manual")

	// Bind explicitly: AutomaticEnv alone doesn't surface keys to Unmarshal.
	for _, key := range []string{
		"database_url", "port", "lock_dir",
		"base_currency", "secondary_currency",
		"rate_source", "quote_base_url",
		"exchange_base_url", "exchange_api_key", "exchange_api_secret", "exchange_account",
		"sheets_credentials_file", "sheets_spreadsheet_id",
		"sheets_balance_range", "sheets_export_range", "sheets_account",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings every database-backed command needs.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("PFT_DATABASE_URL is not set")
	}
	return nil
}
