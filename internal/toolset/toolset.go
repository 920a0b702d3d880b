// Package toolset wires the weather tools from configuration and binds each to
// its Zeebe job type.
package toolset

import (
	"context"
	"fmt"
	"time"

	"weather-workers/internal/common/camunda"
	"weather-workers/internal/common/config"
	"weather-workers/internal/common/errors"
	"weather-workers/internal/common/logger"
	"weather-workers/internal/tool"
	"weather-workers/internal/weather"
	forecastnotify "weather-workers/internal/workers/communication/forecast-notify"
	weatherforecast "weather-workers/internal/workers/weather/weather-forecast"
	"weather-workers/pkg/registry"
)

// Binding is one tool exposed as a Zeebe job type.
type Binding struct {
	Tool          tool.Tool
	Category      string
	ErrorCodes    []errors.ErrorCode
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	Handle        camunda.JobHandler
}

type Set struct {
	registry *tool.Registry
	bindings []Binding
}

var pipelineErrors = []errors.ErrorCode{
	errors.ErrCodeValidationFailed,
	errors.ErrCodeInputParsingFailed,
	errors.ErrCodeForecastRangeInvalid,
	errors.ErrCodeGeocodeFailed,
	errors.ErrCodeForecastFetchFailed,
}

// Build creates the weather pipeline and every tool on top of it.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*Set, error) {
	service := weather.NewServiceFromConfig(cfg, log)
	set := &Set{registry: tool.NewRegistry()}

	fcCfg := weatherforecast.ConfigFrom(cfg)
	forecastTool, err := weatherforecast.NewTool(service)
	if err != nil {
		return nil, err
	}
	fcHandler := weatherforecast.NewHandler(fcCfg, forecastTool, log)
	if err := set.add(Binding{
		Tool:          forecastTool,
		Category:      "weather",
		ErrorCodes:    pipelineErrors,
		Enabled:       fcCfg.Enabled,
		MaxJobsActive: fcCfg.MaxJobsActive,
		Timeout:       fcCfg.Timeout,
		Handle:        fcHandler.Handle,
	}); err != nil {
		return nil, err
	}

	nCfg := forecastnotify.ConfigFrom(cfg)
	notifier, err := forecastnotify.NewServiceFromConfig(ctx, nCfg, service, log)
	if err != nil {
		return nil, fmt.Errorf("notification service: %w", err)
	}
	notifyTool, err := forecastnotify.NewTool(notifier)
	if err != nil {
		return nil, err
	}
	nHandler := forecastnotify.NewHandler(nCfg, notifyTool, log)
	if err := set.add(Binding{
		Tool:          notifyTool,
		Category:      "communication",
		ErrorCodes:    append(append([]errors.ErrorCode{}, pipelineErrors...), errors.ErrCodeBusinessRule, errors.ErrCodeNotificationSendFailed),
		Enabled:       nCfg.Enabled && (nCfg.EmailEnabled || nCfg.SMSEnabled),
		MaxJobsActive: nCfg.MaxJobsActive,
		Timeout:       nCfg.Timeout,
		Handle:        nHandler.Handle,
	}); err != nil {
		return nil, err
	}

	return set, nil
}

func (s *Set) add(b Binding) error {
	if err := s.registry.Register(b.Tool); err != nil {
		return err
	}
	s.bindings = append(s.bindings, b)
	return nil
}

func (s *Set) Registry() *tool.Registry { return s.registry }

func (s *Set) Bindings() []Binding {
	return append([]Binding(nil), s.bindings...)
}

// WorkerConfig converts b to the settings camunda.StartWorker takes.
func (b Binding) WorkerConfig() config.WorkerConfig {
	return config.WorkerConfig{
		Enabled:       b.Enabled,
		MaxJobsActive: b.MaxJobsActive,
		Timeout:       int(b.Timeout / time.Millisecond),
	}
}

// Manifest describes every bound tool.
func (s *Set) Manifest(now time.Time) *registry.ToolManifest {
	entries := make([]registry.ToolEntry, 0, len(s.bindings))
	for _, b := range s.bindings {
		codes := make([]string, 0, len(b.ErrorCodes))
		for _, c := range b.ErrorCodes {
			codes = append(codes, string(c))
		}
		entries = append(entries, registry.ToolEntry{
			Name:        b.Tool.Name(),
			Description: b.Tool.Description(),
			Category:    b.Category,
			TaskType:    b.Tool.Name(),
			InputSchema: b.Tool.Parameters(),
			ErrorCodes:  codes,
			Timeout:     b.Timeout.String(),
			Retries:     0,
		})
	}
	return registry.NewManifest(entries, now)
}
