package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the CLI and fixture settings loaded from configs/.env and the environment.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	LogLevel string `mapstructure:"log_level"`

	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AccessToken  string `mapstructure:"access_token"`
	APIURL       string `mapstructure:"api_url"`
	APIVersion   string `mapstructure:"api_version"`
	SignKey      string `mapstructure:"sign_key"`
	SSLVerify    bool   `mapstructure:"ssl_verify"`

	TimeoutSeconds     int64         `mapstructure:"timeout_seconds"`
	ReadTimeoutSeconds int64         `mapstructure:"read_timeout_seconds"`
	Timeout            time.Duration `mapstructure:"-"`
	ReadTimeout        time.Duration `mapstructure:"-"`

	CassetteMode           string        `mapstructure:"cassette_mode"`
	CassettePath           string        `mapstructure:"cassette_path"`
	CassetteTTLSeconds     int64         `mapstructure:"cassette_ttl_seconds"`
	CassetteCleanupSeconds int64         `mapstructure:"cassette_cleanup_interval_seconds"`
	CassetteTTL            time.Duration `mapstructure:"-"`
	CassetteCleanup        time.Duration `mapstructure:"-"`

	OutputFormat string `mapstructure:"output_format"`
	FixtureAddr  string `mapstructure:"fixture_addr"`
}

// Load reads configuration from configs/.env and environment variables.
func Load() (*Config, error) {
	return LoadFrom("configs/.env")
}

// LoadFrom is Load with an explicit dotenv file. A missing file is not an error.
func LoadFrom(envFile string) (*Config, error) {
	_ = godotenv.Load(envFile)

	v := viper.New()

	v.SetDefault("app_name", "kokoroe-sdk-go")
	v.SetDefault("log_level", "info")
	v.SetDefault("client_id", "")
	v.SetDefault("client_secret", "")
	v.SetDefault("access_token", "")
	v.SetDefault("api_url", "https://api.kokoroe.co")
	v.SetDefault("api_version", "v1.0")
	v.SetDefault("sign_key", "")
	v.SetDefault("ssl_verify", true)
	v.SetDefault("timeout_seconds", 60)
	v.SetDefault("read_timeout_seconds", 0)
	v.SetDefault("cassette_mode", "off")
	v.SetDefault("cassette_path", "./data/cassette.db")
	v.SetDefault("cassette_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("cassette_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("output_format", "json")
	v.SetDefault("fixture_addr", ":1337")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid timeout_seconds (must be positive seconds)")
	}
	if cfg.ReadTimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid read_timeout_seconds (must be zero or positive seconds)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	cfg.ReadTimeout = time.Duration(cfg.ReadTimeoutSeconds) * time.Second

	if cfg.CassetteTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid cassette_ttl_seconds (must be positive seconds)")
	}
	if cfg.CassetteCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid cassette_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.CassetteTTL = time.Duration(cfg.CassetteTTLSeconds) * time.Second
	cfg.CassetteCleanup = time.Duration(cfg.CassetteCleanupSeconds) * time.Second

	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	switch cfg.OutputFormat {
	case "json", "yaml", "raw":
	default:
		return nil, fmt.Errorf("invalid output_format %q (want json, yaml or raw)", cfg.OutputFormat)
	}

	return &cfg, nil
}
