package weather

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"weather-workers/internal/common/config"
	"weather-workers/internal/common/errors"
	commonhttp "weather-workers/internal/common/http"
	"weather-workers/internal/common/logger"
	"weather-workers/internal/common/observability"
)

const (
	geocodeService  = "zippopotam"
	forecastService = "open-meteo"
)

// Service runs geocode, forecast and format in order and stops at the first
// failure, returning that stage's error as is. It keeps no per-call state.
type Service struct {
	geocoder   Geocoder
	forecaster ForecastFetcher
	maxDays    int
	logger     logger.Logger
}

func NewService(geocoder Geocoder, forecaster ForecastFetcher, maxDays int, log logger.Logger) *Service {
	if maxDays <= 0 || maxDays > MaxForecastDays {
		maxDays = MaxForecastDays
	}
	return &Service{
		geocoder:   geocoder,
		forecaster: forecaster,
		maxDays:    maxDays,
		logger:     log,
	}
}

// NewServiceFromConfig wires the HTTP clients for both upstream services.
func NewServiceFromConfig(cfg *config.Config, log logger.Logger) *Service {
	geoHTTP := commonhttp.NewClient(geocodeService, config.GetDuration(cfg.APIs.Geocode.Timeout))
	fcHTTP := commonhttp.NewClient(forecastService, config.GetDuration(cfg.APIs.Forecast.Timeout))

	geocoder := NewGeocodeClient(geoHTTP, cfg.APIs.Geocode.BaseURL, cfg.APIs.Geocode.Country, log)
	forecaster := NewForecastClient(fcHTTP, cfg.APIs.Forecast.BaseURL, cfg.APIs.Forecast.Timezone, cfg.APIs.Forecast.MaxDays, log)

	return NewService(geocoder, forecaster, forecaster.MaxDays(), log)
}

// GetReadableForecast returns the formatted forecast dayOffset days ahead for postalCode.
func (s *Service) GetReadableForecast(ctx context.Context, postalCode string, dayOffset int) (string, error) {
	record, err := s.Forecast(ctx, postalCode, dayOffset)
	if err != nil {
		return "", err
	}
	return FormatForecast(*record), nil
}

// Forecast is GetReadableForecast without the formatting step.
func (s *Service) Forecast(ctx context.Context, postalCode string, dayOffset int) (*ForecastRecord, error) {
	// An offset the forecast stage would reject is rejected here, before geocoding.
	if dayOffset < 0 || dayOffset > s.maxDays {
		return nil, errors.NewForecastRangeError(dayOffset, s.maxDays)
	}

	ctx, span := observability.StartSpan(ctx, "weather.pipeline",
		attribute.String("zipcode", postalCode),
		attribute.Int("dayOffset", dayOffset),
	)
	defer span.End()

	log := s.logger.With(map[string]interface{}{"zipcode": postalCode, "dayOffset": dayOffset})

	coords, err := s.geocoder.ResolveCoordinates(ctx, postalCode)
	if err != nil {
		log.Info("geocode stage failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	record, err := s.forecaster.FetchForecast(ctx, coords.Latitude, coords.Longitude, dayOffset)
	if err != nil {
		log.Info("forecast stage failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	log.Debug("forecast ready", map[string]interface{}{
		"date":        record.Date,
		"weatherCode": record.WeatherCode,
	})
	return record, nil
}
