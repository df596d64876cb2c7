package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment variables or config files.
type Config struct {
	AppEnv   string `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	HTTPAddr string `mapstructure:"HTTP_ADDR" validate:"required,hostname_port"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER" validate:"required,oneof=sqlite postgres"`
	DatabaseURL    string `mapstructure:"DATABASE_URL" validate:"required_if=DatabaseDriver postgres"`
	SqlitePath     string `mapstructure:"SQLITE_PATH" validate:"required_if=DatabaseDriver sqlite"`

	RegistryTimeout     time.Duration `mapstructure:"REGISTRY_TIMEOUT" validate:"gt=0"`
	RegistryMaxRetries  int           `mapstructure:"REGISTRY_MAX_RETRIES" validate:"gte=0,lte=10"`
	ConfirmationTimeout time.Duration `mapstructure:"CONFIRMATION_TIMEOUT" validate:"gt=0"`
	WaitForReceipt      bool          `mapstructure:"WAIT_FOR_RECEIPT"`

	SignerPrivateKey string `mapstructure:"SIGNER_PRIVATE_KEY"`
	RPCURLs          string `mapstructure:"RPC_URLS"`
	ValidatorURLs    string `mapstructure:"VALIDATOR_URLS"`

	JwksURI string `mapstructure:"JWKS_URI" validate:"omitempty,url"`
	// PublicURL and OAuthIssuer are advertised as OAuth protected resource metadata
	PublicURL   string `mapstructure:"PUBLIC_URL" validate:"omitempty,url"`
	OAuthIssuer string `mapstructure:"OAUTH_ISSUER" validate:"omitempty,url"`
	// Identity is used by the CLI when no bearer token is involved
	Identity string `mapstructure:"STUDIO_IDENTITY"`

	// Parsed from RPCURLs and ValidatorURLs
	RPCURLMap       map[int64]string `mapstructure:"-"`
	ValidatorURLMap map[int64]string `mapstructure:"-"`
}

var (
	validate = validator.New(validator.WithRequiredStructEnabled())

	keys = []string{
		"APP_ENV",
		"HTTP_ADDR",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"DATABASE_DRIVER",
		"DATABASE_URL",
		"SQLITE_PATH",
		"REGISTRY_TIMEOUT",
		"REGISTRY_MAX_RETRIES",
		"CONFIRMATION_TIMEOUT",
		"WAIT_FOR_RECEIPT",
		"SIGNER_PRIVATE_KEY",
		"RPC_URLS",
		"VALIDATOR_URLS",
		"JWKS_URI",
		"PUBLIC_URL",
		"OAUTH_ISSUER",
		"STUDIO_IDENTITY",
	}
)

// Load initializes configuration using Viper. It loads from .env if present,
// applies defaults, binds env vars, and validates the result.
func Load() (*Config, error) {
	// Load .env if present (non-fatal)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("studio")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", "0.0.0.0:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("SQLITE_PATH", "./data/studio.db")
	v.SetDefault("REGISTRY_TIMEOUT", "15s")
	v.SetDefault("REGISTRY_MAX_RETRIES", 3)
	v.SetDefault("CONFIRMATION_TIMEOUT", "5m")
	v.SetDefault("WAIT_FOR_RECEIPT", true)

	// Optional config file
	_ = v.ReadInConfig()

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	var err error
	if c.RPCURLMap, err = ParseChainURLs(c.RPCURLs); err != nil {
		return nil, fmt.Errorf("invalid RPC_URLS: %w", err)
	}
	if c.ValidatorURLMap, err = ParseChainURLs(c.ValidatorURLs); err != nil {
		return nil, fmt.Errorf("invalid VALIDATOR_URLS: %w", err)
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// ParseChainURLs parses "chainId=url" pairs separated by commas.
func ParseChainURLs(s string) (map[int64]string, error) {
	urls := map[int64]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, url, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(url) == "" {
			return nil, fmt.Errorf("expected chainId=url, got %q", pair)
		}
		chainID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil || chainID <= 0 {
			return nil, fmt.Errorf("invalid chain id %q", id)
		}
		urls[chainID] = strings.TrimSpace(url)
	}
	return urls, nil
}
