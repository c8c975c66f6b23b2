package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Backend   BackendConfig    `mapstructure:"backend"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Logger    LoggerConfig     `mapstructure:"logger"`
	Document  DocumentConfig   `mapstructure:"document"`
	Customer  CustomerConfig   `mapstructure:"customer"`
	Retry     RetryConfig      `mapstructure:"retry"`
	Lark      LarkConfig       `mapstructure:"lark"`
	Companies []entity.Company `mapstructure:"companies"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BackendConfig holds the remote billing backend configuration
type BackendConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	Token     string        `mapstructure:"token"`
}

// DatabaseConfig holds local state database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// DocumentConfig holds document composition configuration
type DocumentConfig struct {
	OutputDir       string        `mapstructure:"output_dir"`
	LogoDir         string        `mapstructure:"logo_dir"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Terms           []string      `mapstructure:"terms"`
	Signatory       string        `mapstructure:"signatory"`
	Creator         string        `mapstructure:"creator"`
	PreviewDPI      float64       `mapstructure:"preview_dpi"`
	PreviewMaxWidth int           `mapstructure:"preview_max_width"`
}

// CustomerConfig holds customer lookup configuration
type CustomerConfig struct {
	DefaultRegion string        `mapstructure:"default_region"`
	Debounce      time.Duration `mapstructure:"debounce"`
	MinChars      int           `mapstructure:"min_chars"`
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
}

// RetryConfig holds the save retry policy
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
}

// LarkConfig holds Lark chat notification configuration
type LarkConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	ChatID    string `mapstructure:"chat_id"`
	BaseURL   string `mapstructure:"base_url"`
}

// Load loads configuration from file, an optional .env file and environment variables
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	err := gotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Backend defaults
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("backend.user_agent", "billing-workflow/1.0")

	// Database defaults
	v.SetDefault("database.path", "data/billing.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Document defaults
	v.SetDefault("document.output_dir", "documents")
	v.SetDefault("document.logo_dir", "logos")
	v.SetDefault("document.timeout", 20*time.Second)
	v.SetDefault("document.creator", "billing-workflow")
	v.SetDefault("document.preview_dpi", 110)
	v.SetDefault("document.preview_max_width", 1200)

	// Customer defaults
	v.SetDefault("customer.default_region", "IN")
	v.SetDefault("customer.debounce", 500*time.Millisecond)
	v.SetDefault("customer.min_chars", 3)
	v.SetDefault("customer.search_timeout", 10*time.Second)

	// Retry defaults
	v.SetDefault("retry.max_retries", 1)
	v.SetDefault("retry.backoff", 0)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	v.BindEnv("backend.base_url", "BILLING_BACKEND_URL")
	v.BindEnv("backend.token", "BILLING_BACKEND_TOKEN")
	v.BindEnv("lark.app_id", "LARK_APP_ID")
	v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	v.BindEnv("lark.chat_id", "LARK_CHAT_ID")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}

	if len(c.Companies) == 0 {
		return fmt.Errorf("at least one company is required")
	}
	seen := make(map[string]bool, len(c.Companies))
	for i, company := range c.Companies {
		name := strings.ToLower(strings.TrimSpace(company.Name))
		if name == "" {
			return fmt.Errorf("companies[%d].name is required", i)
		}
		if strings.TrimSpace(company.Prefix) == "" {
			return fmt.Errorf("companies[%d].prefix is required", i)
		}
		if seen[name] {
			return fmt.Errorf("companies[%d]: duplicate company %q", i, company.Name)
		}
		seen[name] = true
	}

	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
		if c.Lark.ChatID == "" {
			return fmt.Errorf("lark.chat_id is required")
		}
	}

	return nil
}

// Address returns the host:port the HTTP server listens on
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
