package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"workflow-sync/backend/internal/logging"
)

// EnvPrefix is prepended to every environment override,
// e.g. WORKFLOW_SYNC_UNIVERSAL_LOADER_USER_SECRET.
const EnvPrefix = "WORKFLOW_SYNC"

// Config holds the configuration for the application.
type Config struct {
	Server struct {
		Addr            string        `mapstructure:"addr" validate:"required"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		TLS             struct {
			Enabled bool `mapstructure:"enabled"`
			// CertFile is generated from Hostnames when missing.
			CertFile  string   `mapstructure:"cert_file" validate:"required_if=Enabled true"`
			KeyFile   string   `mapstructure:"key_file" validate:"required_if=Enabled true"`
			Hostnames []string `mapstructure:"hostnames"`
		} `mapstructure:"tls"`
	} `mapstructure:"server"`
	DB struct {
		Host     string `mapstructure:"host" validate:"required"`
		Port     int    `mapstructure:"port" validate:"gt=0"`
		User     string `mapstructure:"user" validate:"required"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name" validate:"required"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns" validate:"gte=0"`
	} `mapstructure:"db"`
	UniversalLoader struct {
		BaseURL    string        `mapstructure:"base_url" validate:"required,url"`
		CompanyID  string        `mapstructure:"company_id" validate:"required"`
		UserID     string        `mapstructure:"user_id" validate:"required"`
		UserSecret string        `mapstructure:"user_secret" validate:"required"`
		Timeout    time.Duration `mapstructure:"timeout"`
	} `mapstructure:"universal_loader"`
	Sync struct {
		IntervalSeconds int `mapstructure:"interval_seconds" validate:"gt=0"`
	} `mapstructure:"sync"`
	Log     logging.Config `mapstructure:"log"`
	APIAuth struct {
		// Issuer enables bearer verification of inbound API calls when set.
		Issuer string `mapstructure:"issuer" validate:"omitempty,url"`
	} `mapstructure:"api_auth"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
	MCP struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"mcp"`
}

// SyncInterval returns the configured time between reconciliation passes.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.IntervalSeconds) * time.Second
}

// DSN builds a postgres URL. Values are escaped, so empty passwords and
// passwords with spaces or reserved characters survive parsing.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DB.User, c.DB.Password),
		Host:   net.JoinHostPort(c.DB.Host, strconv.Itoa(c.DB.Port)),
		Path:   "/" + c.DB.Name,
	}
	if c.DB.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.DB.SSLMode}}.Encode()
	}
	return u.String()
}

// LoadConfig loads the configuration from a file and the environment.
// When configFile is empty, config.yaml is looked up in . and ./config;
// a missing file is not an error so the service can run from env alone.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	config.UniversalLoader.BaseURL = normalizeBaseURL(config.UniversalLoader.BaseURL)
	config.APIAuth.Issuer = normalizeBaseURL(config.APIAuth.Issuer)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override values that
// are absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.cert_file", "")
	v.SetDefault("server.tls.key_file", "")
	v.SetDefault("server.tls.hostnames", []string{})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "workflow_sync")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_conns", 0)

	v.SetDefault("universal_loader.base_url", "")
	v.SetDefault("universal_loader.company_id", "")
	v.SetDefault("universal_loader.user_id", "")
	v.SetDefault("universal_loader.user_secret", "")
	v.SetDefault("universal_loader.timeout", 30*time.Second)

	v.SetDefault("sync.interval_seconds", 1800)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)

	v.SetDefault("api_auth.issuer", "")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("mcp.enabled", false)
}

// normalizeBaseURL strips surrounding whitespace and any trailing slash so
// paths can be appended without doubling separators.
func normalizeBaseURL(input string) string {
	return strings.TrimRight(strings.TrimSpace(input), "/")
}
