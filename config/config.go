// Package config loads xlbind service configuration from YAML and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/javajack/xlbind"
	"github.com/javajack/xlbind/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. XLBIND_SERVER_PORT.
const EnvPrefix = "XLBIND"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Import   ImportConfig   `mapstructure:"import"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUpload    int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig holds the template store configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
	Format string `mapstructure:"format"`
}

// ImportConfig sizes imported and blank sheets.
type ImportConfig struct {
	MinRows           int     `mapstructure:"min_rows"`
	MinColumns        int     `mapstructure:"min_columns"`
	Padding           int     `mapstructure:"padding"`
	WidthFactor       float64 `mapstructure:"width_factor"`
	DefaultFontFamily string  `mapstructure:"default_font_family"`
}

// Load reads configuration from a YAML file, then applies environment
// overrides. An empty path loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_bytes", 32<<20)

	v.SetDefault("database.path", "data/xlbind.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("import.min_rows", xlbind.DefaultMinRows)
	v.SetDefault("import.min_columns", xlbind.DefaultMinColumns)
	v.SetDefault("import.padding", xlbind.DefaultPadding)
	v.SetDefault("import.width_factor", xlbind.DefaultWidthFactor)
	v.SetDefault("import.default_font_family", "")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}
	if c.Import.MinRows <= 0 || c.Import.MinColumns <= 0 {
		return fmt.Errorf("import.min_rows and import.min_columns must be positive")
	}
	if c.Import.Padding < 0 {
		return fmt.Errorf("import.padding must not be negative")
	}
	if c.Import.WidthFactor <= 0 {
		return fmt.Errorf("import.width_factor must be positive")
	}
	return nil
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Logging converts the logger section for logging.New.
func (c LoggerConfig) Logging() logging.Config {
	return logging.Config{Level: c.Level, Output: c.Output, Format: c.Format}
}

// Options turns the import section into conversion options.
func (c *Config) Options(logger *zap.Logger) []xlbind.Option {
	opts := []xlbind.Option{
		xlbind.WithMinExtent(c.Import.MinRows, c.Import.MinColumns),
		xlbind.WithPadding(c.Import.Padding),
		xlbind.WithWidthFactor(c.Import.WidthFactor),
	}
	if c.Import.DefaultFontFamily != "" {
		opts = append(opts, xlbind.WithDefaultFontFamily(c.Import.DefaultFontFamily))
	}
	if logger != nil {
		opts = append(opts, xlbind.WithLogger(logger))
	}
	return opts
}
