// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Metrics       MetricsConfig           `mapstructure:"metrics"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Registry      RegistryConfig          `mapstructure:"registry"`
	CLI           CLIConfig               `mapstructure:"cli"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	UsePlaintext   bool   `mapstructure:"use_plaintext"`
}

// WorkerConfig holds the core settings applicable to every tool worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// APIsConfig holds the upstream data services the forecast pipeline calls.
type APIsConfig struct {
	Geocode struct {
		BaseURL string `mapstructure:"base_url"`
		Country string `mapstructure:"country"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"geocode"`

	Forecast struct {
		BaseURL  string `mapstructure:"base_url"`
		Timezone string `mapstructure:"timezone"`
		MaxDays  int    `mapstructure:"max_days"`
		Timeout  int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"forecast"`
}

// NotificationConfig holds settings for the forecast-notify worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// RegistryConfig points at the tool manifest written by registry-updater.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// CLIConfig holds the defaults used when weather-forecast is run without arguments.
type CLIConfig struct {
	DefaultZipcode string `mapstructure:"default_zipcode"`
	DefaultDays    int    `mapstructure:"default_days"`
}
