// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	APIBaseURL          string        `mapstructure:"API_BASE_URL"`
	Port                string        `mapstructure:"PORT"`
	Env                 string        `mapstructure:"APP_ENV"`
	RedisURL            string        `mapstructure:"REDIS_URL"`
	SessionTTL          time.Duration `mapstructure:"SESSION_TTL"`
	CookieSecure        bool          `mapstructure:"COOKIE_SECURE"`
	ViewTimeout         time.Duration `mapstructure:"VIEW_TIMEOUT"`
	ViewIdleTTL         time.Duration `mapstructure:"VIEW_IDLE_TTL"`
	PageSize            int           `mapstructure:"PAGE_SIZE"`
	FeatureFlags        string        `mapstructure:"FEATURE_FLAGS"`
	AvatarMaxUploadMB   int           `mapstructure:"AVATAR_MAX_UPLOAD_MB"`
	AvatarMaxSize       int           `mapstructure:"AVATAR_MAX_SIZE"`
	LoginRateLimit      int           `mapstructure:"LOGIN_RATE_LIMIT"`
	TracingEnabled      bool          `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string        `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64       `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config.%s.yml: %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	viper.SetDefault("API_BASE_URL", "http://localhost:8080")
	viper.SetDefault("PORT", "5173")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("SESSION_TTL", "24h")
	viper.SetDefault("COOKIE_SECURE", false)
	viper.SetDefault("VIEW_TIMEOUT", "15s")
	viper.SetDefault("VIEW_IDLE_TTL", "30m")
	viper.SetDefault("PAGE_SIZE", 5)
	viper.SetDefault("FEATURE_FLAGS", "comment_likes=on,profile_images=on")
	viper.SetDefault("AVATAR_MAX_UPLOAD_MB", 5)
	viper.SetDefault("AVATAR_MAX_SIZE", 512)
	viper.SetDefault("LOGIN_RATE_LIMIT", 10)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.APIBaseURL = strings.TrimRight(strings.TrimSpace(config.APIBaseURL), "/")
	config.Env = strings.ToLower(strings.TrimSpace(config.Env))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// IsProduction reports whether the app runs with a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and sane.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("API_BASE_URL %q must be an absolute http(s) URL", c.APIBaseURL)
	}
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.PageSize <= 0 {
		return errors.New("PAGE_SIZE must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.AvatarMaxUploadMB <= 0 {
		return errors.New("AVATAR_MAX_UPLOAD_MB must be positive")
	}

	if c.IsProduction() {
		if !c.CookieSecure {
			return errors.New("COOKIE_SECURE must be enabled in production")
		}
		if u.Scheme != "https" {
			log.Println("WARNING: API_BASE_URL is not https in production. Bearer tokens will travel in clear text.")
		}
	}

	return nil
}
