package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings. Values come from an optional app.env
// file in the given path, overridden by environment variables.
type Config struct {
	AppName      string `mapstructure:"APP_NAME"`
	ServerPort   string `mapstructure:"SERVER_PORT"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	// Trip-planning backend
	BackendBaseURL string        `mapstructure:"BACKEND_BASE_URL"`
	TripEndpoint   string        `mapstructure:"TRIP_ENDPOINT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"` // 0 = no timeout
	MaxRetries     int           `mapstructure:"MAX_RETRIES"`     // 0 = no retry
	RetryBackoff   time.Duration `mapstructure:"RETRY_BACKOFF"`

	BackendOAuthTokenURL     string `mapstructure:"BACKEND_OAUTH_TOKEN_URL"`
	BackendOAuthClientID     string `mapstructure:"BACKEND_OAUTH_CLIENT_ID"`
	BackendOAuthClientSecret string `mapstructure:"BACKEND_OAUTH_CLIENT_SECRET"`
	BackendOAuthScopes       string `mapstructure:"BACKEND_OAUTH_SCOPES"` // comma separated

	// Sessions
	SessionSecret  string        `mapstructure:"SESSION_SECRET"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	SessionIdleTTL time.Duration `mapstructure:"SESSION_IDLE_TTL"`
	CookieSecure   bool          `mapstructure:"COOKIE_SECURE"`

	// Trip history (disabled when DatabaseURL is empty)
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	HistoryRetention  time.Duration `mapstructure:"HISTORY_RETENTION"`
	AdminUsername     string        `mapstructure:"ADMIN_USERNAME"`
	AdminPasswordHash string        `mapstructure:"ADMIN_PASSWORD_HASH"` // bcrypt

	// Trip summary e-mail (disabled unless both are set)
	SESRegion    string `mapstructure:"SES_REGION"`
	SESFromEmail string `mapstructure:"SES_FROM_EMAIL"`
}

var defaults = map[string]any{
	"APP_NAME":                    "trip-planner",
	"SERVER_PORT":                 "8080",
	"CLIENT_ORIGIN":               "http://localhost:8080",
	"LOG_LEVEL":                   "info",
	"BACKEND_BASE_URL":            "http://localhost:8000",
	"TRIP_ENDPOINT":               "/api/trip/",
	"REQUEST_TIMEOUT":             "0s",
	"MAX_RETRIES":                 0,
	"RETRY_BACKOFF":               "500ms",
	"BACKEND_OAUTH_TOKEN_URL":     "",
	"BACKEND_OAUTH_CLIENT_ID":     "",
	"BACKEND_OAUTH_CLIENT_SECRET": "",
	"BACKEND_OAUTH_SCOPES":        "",
	"SESSION_SECRET":              "",
	"SESSION_TTL":                 "24h",
	"SESSION_IDLE_TTL":            "2h",
	"COOKIE_SECURE":               false,
	"DATABASE_URL":                "",
	"HISTORY_RETENTION":           "720h",
	"ADMIN_USERNAME":              "admin",
	"ADMIN_PASSWORD_HASH":         "",
	"SES_REGION":                  "",
	"SES_FROM_EMAIL":              "",
}

// LoadConfig reads app.env from path (if present) and the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.LoadConfig read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.LoadConfig unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: BACKEND_BASE_URL must be an absolute URL, got %q", c.BackendBaseURL)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("config: REQUEST_TIMEOUT must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("config: MAX_RETRIES must not be negative")
	}
	return nil
}

// HistoryEnabled reports whether a database is configured for trip history.
func (c *Config) HistoryEnabled() bool { return c.DatabaseURL != "" }

// EmailEnabled reports whether trip summaries can be e-mailed.
func (c *Config) EmailEnabled() bool { return c.SESRegion != "" && c.SESFromEmail != "" }

// BackendOAuthEnabled reports whether backend calls carry client-credential tokens.
func (c *Config) BackendOAuthEnabled() bool { return c.BackendOAuthTokenURL != "" }

// OAuthScopes splits BACKEND_OAUTH_SCOPES into a list.
func (c *Config) OAuthScopes() []string {
	var scopes []string
	for _, s := range strings.Split(c.BackendOAuthScopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
