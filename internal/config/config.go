// Path: internal/config/config.go
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Backend  BackendConfig
	Refresh  RefreshConfig
	Logging  LoggingConfig
	Display  DisplayConfig
}

// ServerConfig holds the portal HTTP server settings.
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds the database connection settings.
type DatabaseConfig struct {
	URI                  string `mapstructure:"uri"`
	Name                 string `mapstructure:"name"`
	SavedQueryCollection string `mapstructure:"saved_query_collection"`
	StatusCollection     string `mapstructure:"status_collection"`
}

// BackendConfig holds settings for the pastry backend API client.
type BackendConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	RequestsPerSecond int    `mapstructure:"requests_per_second"`
	BurstLimit        int    `mapstructure:"burst_limit"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
}

// RefreshConfig holds settings for the periodic snapshot refresh.
type RefreshConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
}

// LoggingConfig selects log verbosity and output format ("text" or "json").
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DisplayConfig holds presentation settings.
type DisplayConfig struct {
	// Locale is a BCP 47 tag used for text ordering, e.g. "en" or "fr-CA".
	Locale string `mapstructure:"locale"`
}

// LocaleTag parses Locale, falling back to English.
func (d DisplayConfig) LocaleTag() language.Tag {
	tag, err := language.Parse(d.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("DATABASE.URI", "mongodb://localhost:27017")
	v.SetDefault("DATABASE.NAME", "pastry-portal")
	v.SetDefault("DATABASE.SAVED_QUERY_COLLECTION", "saved_queries")
	v.SetDefault("DATABASE.STATUS_COLLECTION", "_status")
	v.SetDefault("BACKEND.BASE_URL", "http://localhost:5170/api")
	v.SetDefault("BACKEND.REQUESTS_PER_SECOND", 5)
	v.SetDefault("BACKEND.BURST_LIMIT", 10)
	v.SetDefault("BACKEND.TIMEOUT_SECONDS", 30)
	v.SetDefault("REFRESH.INTERVAL_MINUTES", 5)
	v.SetDefault("LOGGING.LEVEL", "info")
	v.SetDefault("LOGGING.FORMAT", "text")
	v.SetDefault("DISPLAY.LOCALE", "en")
}

// Load loads the configuration from .env, the config file and environment
// variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load on a caller-provided viper instance, so command-line
// flags bound to v take part in resolution.
func LoadFrom(v *viper.Viper) (*Config, error) {
	// A missing .env is the normal case outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	SetDefaults(v)

	// Load from config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err // Only return error if it's not a "file not found" error
		}
	}

	// Load from environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
