// Package config loads salesctl settings from defaults, an optional config
// file, SALES_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// Viper keys.
const (
	KeyServerAddr        = "server.addr"
	KeyDatabaseDriver    = "database.driver"
	KeyDatabaseDSN       = "database.dsn"
	KeyImportBatchSize   = "import.batch_size"
	KeyImportDelimiter   = "import.delimiter"
	KeyImportDateLayouts = "import.date_layouts"
)

// EnvPrefix prefixes every environment variable, e.g. SALES_DATABASE_DSN.
const EnvPrefix = "SALES"

// DefaultDateLayouts cover the public sales CSV exports: month-first with a
// two-digit year, and day-first dates.
var DefaultDateLayouts = []string{
	"01/02/06 15:04",
	"02/01/2006",
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Import   ImportConfig   `mapstructure:"import"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	// Driver is one of memory, postgres or mysql.
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ImportConfig struct {
	BatchSize   int      `mapstructure:"batch_size"`
	Delimiter   string   `mapstructure:"delimiter"`
	DateLayouts []string `mapstructure:"date_layouts"`
}

// NewViper returns a viper instance with defaults and environment lookup set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyServerAddr, ":8081")
	v.SetDefault(KeyDatabaseDriver, "memory")
	v.SetDefault(KeyDatabaseDSN, "")
	v.SetDefault(KeyImportBatchSize, 500)
	v.SetDefault(KeyImportDelimiter, ",")
	v.SetDefault(KeyImportDateLayouts, DefaultDateLayouts)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file, if not empty, into v and decodes the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "postgres", "mysql":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Import.BatchSize <= 0 {
		return errors.New("import.batch_size must be positive")
	}
	if utf8.RuneCountInString(c.Import.Delimiter) != 1 {
		return fmt.Errorf("import.delimiter must be a single character, got %q", c.Import.Delimiter)
	}
	return nil
}

// DelimiterRune returns the import delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Import.Delimiter)
	return r
}
