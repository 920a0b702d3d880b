// internal/workers/communication/forecast-notify/config.go
package forecastnotify

import (
	"fmt"
	"time"

	"weather-workers/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	EmailEnabled  bool
	SMSEnabled    bool
	FromEmail     string
	SenderID      string
	AWSRegion     string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		AWSRegion:     "us-east-1",
	}
}

// ConfigFrom combines the worker section for TaskType with the notifications section.
func ConfigFrom(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	c := DefaultConfig()
	c.Enabled = wc.Enabled
	if wc.MaxJobsActive > 0 {
		c.MaxJobsActive = wc.MaxJobsActive
	}
	if wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}

	n := cfg.Notifications
	c.EmailEnabled = n.Email.Enabled
	c.FromEmail = n.Email.FromEmail
	c.SMSEnabled = n.SMS.Enabled
	c.SenderID = n.SMS.SenderID
	if n.AWS.Region != "" {
		c.AWSRegion = n.AWS.Region
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.EmailEnabled && c.FromEmail == "" {
		return fmt.Errorf("from_email is required when email is enabled")
	}
	return nil
}
