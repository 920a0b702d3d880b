// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultGeocodeBaseURL  = "https://api.zippopotam.us"
	DefaultForecastBaseURL = "https://api.open-meteo.com/v1/forecast"
	DefaultTimezone        = "America/New_York"
	DefaultMaxForecastDays = 16
	DefaultZipcode         = "02148"
	DefaultDays            = 1
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top and
// applies environment overrides (APIS_GEOCODE_BASE_URL and friends). A missing
// config file is not an error.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	registerKeys(v)
	return v
}

// registerKeys makes every leaf key known to viper so AutomaticEnv overrides
// apply even when no config file sets them.
func registerKeys(v *viper.Viper) {
	v.SetDefault("app.name", "weather-workers")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.max_jobs_active", 0)
	v.SetDefault("camunda.timeout", 0)
	v.SetDefault("camunda.request_timeout", 0)
	v.SetDefault("camunda.use_plaintext", true)

	v.SetDefault("apis.geocode.base_url", DefaultGeocodeBaseURL)
	v.SetDefault("apis.geocode.country", "us")
	v.SetDefault("apis.geocode.timeout", 0)
	v.SetDefault("apis.forecast.base_url", DefaultForecastBaseURL)
	v.SetDefault("apis.forecast.timezone", DefaultTimezone)
	v.SetDefault("apis.forecast.max_days", DefaultMaxForecastDays)
	v.SetDefault("apis.forecast.timeout", 0)

	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.output", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.address", "")

	v.SetDefault("notifications.email.enabled", false)
	v.SetDefault("notifications.email.from_email", "")
	v.SetDefault("notifications.sms.enabled", false)
	v.SetDefault("notifications.sms.sender_id", "")
	v.SetDefault("notifications.aws.region", "")

	v.SetDefault("registry.path", "")

	v.SetDefault("cli.default_zipcode", DefaultZipcode)
	v.SetDefault("cli.default_days", DefaultDays)
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Upstream API defaults
	if cfg.APIs.Geocode.BaseURL == "" {
		cfg.APIs.Geocode.BaseURL = DefaultGeocodeBaseURL
	}
	if cfg.APIs.Geocode.Country == "" {
		cfg.APIs.Geocode.Country = "us"
	}
	if cfg.APIs.Geocode.Timeout == 0 {
		cfg.APIs.Geocode.Timeout = 10000
	}
	if cfg.APIs.Forecast.BaseURL == "" {
		cfg.APIs.Forecast.BaseURL = DefaultForecastBaseURL
	}
	if cfg.APIs.Forecast.Timezone == "" {
		cfg.APIs.Forecast.Timezone = DefaultTimezone
	}
	if cfg.APIs.Forecast.MaxDays == 0 {
		cfg.APIs.Forecast.MaxDays = DefaultMaxForecastDays
	}
	if cfg.APIs.Forecast.Timeout == 0 {
		cfg.APIs.Forecast.Timeout = 10000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}

	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "us-east-1"
	}

	if cfg.CLI.DefaultZipcode == "" {
		cfg.CLI.DefaultZipcode = DefaultZipcode
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if err := validateBaseURL("apis.geocode.base_url", cfg.APIs.Geocode.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("apis.forecast.base_url", cfg.APIs.Forecast.BaseURL); err != nil {
		return err
	}
	if cfg.APIs.Forecast.MaxDays < 0 || cfg.APIs.Forecast.MaxDays > DefaultMaxForecastDays {
		return fmt.Errorf("apis.forecast.max_days must be between 0 and %d, got %d",
			DefaultMaxForecastDays, cfg.APIs.Forecast.MaxDays)
	}
	if cfg.APIs.Geocode.Timeout < 0 || cfg.APIs.Forecast.Timeout < 0 {
		return fmt.Errorf("apis timeouts must not be negative")
	}
	if cfg.CLI.DefaultDays < 0 || cfg.CLI.DefaultDays > cfg.APIs.Forecast.MaxDays {
		return fmt.Errorf("cli.default_days must be between 0 and %d, got %d",
			cfg.APIs.Forecast.MaxDays, cfg.CLI.DefaultDays)
	}
	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.FromEmail == "" {
		return fmt.Errorf("notifications.email.from_email is required when email is enabled")
	}
	return nil
}

// RequireBroker fails when no Zeebe gateway is configured. Only processes that
// host workers need one; the CLI runs without it.
func RequireBroker(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	return nil
}

func validateBaseURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", key, raw)
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := lookupWorker(cfg, workerName); exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := lookupWorker(cfg, workerName); exists {
		return worker.Enabled
	}
	return true
}

// viper lowercases map keys, so job types are matched case-insensitively.
func lookupWorker(cfg *Config, workerName string) (WorkerConfig, bool) {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker, true
	}
	worker, exists := cfg.Workers[strings.ToLower(workerName)]
	return worker, exists
}
