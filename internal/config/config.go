// Package config loads tallybook.yaml with environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level tallybook.yaml configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Fiscal   FiscalConfig   `mapstructure:"fiscal"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Reports  ReportsConfig  `mapstructure:"reports"`
}

// DatabaseConfig locates the ledger database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls process logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FiscalConfig defines the fiscal year boundary.
type FiscalConfig struct {
	YearStart string `mapstructure:"year_start"` // "MM-DD", e.g. "01-01"
}

// LedgerConfig tunes the posting engine.
type LedgerConfig struct {
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	PostRetries int           `mapstructure:"post_retries"`
}

// ReportsConfig controls statement conventions. PeriodBasis is
// "inception" or "fiscal_year"; CashFlowCategories maps account codes to
// "operating", "investing" or "financing".
type ReportsConfig struct {
	PeriodBasis        string            `mapstructure:"period_basis"`
	CashAccounts       []string          `mapstructure:"cash_accounts"`
	CashFlowCategories map[string]string `mapstructure:"cash_flow_categories"`
}

// Load reads a config file with TALLYBOOK_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("TALLYBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration a new ledger starts with.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; failing to decode them is a programming error.
		panic(fmt.Sprintf("decoding default config: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "tallybook.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("fiscal.year_start", "01-01")
	v.SetDefault("ledger.lock_timeout", 5*time.Second)
	v.SetDefault("ledger.post_retries", 3)
	v.SetDefault("reports.period_basis", "inception")
	v.SetDefault("reports.cash_accounts", []string{"1000", "1010", "1020"})
	v.SetDefault("reports.cash_flow_categories", map[string]string{})
}
