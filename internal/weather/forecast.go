package weather

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"weather-workers/internal/common/errors"
	commonhttp "weather-workers/internal/common/http"
	"weather-workers/internal/common/logger"
	"weather-workers/internal/common/observability"
)

// API docs: https://open-meteo.com/en/docs
// Sample request: https://api.open-meteo.com/v1/forecast?latitude=42.49&longitude=-71.07&daily=temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code&temperature_unit=fahrenheit&timezone=America%2FNew_York&forecast_days=2

// MaxForecastDays is the furthest day offset the free forecast tier serves.
const MaxForecastDays = 16

var dailyVars = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"precipitation_sum",
	"weather_code",
}

type ForecastClient struct {
	client   *commonhttp.Client
	baseURL  string
	timezone string
	maxDays  int
	logger   logger.Logger
}

// NewForecastClient builds a client. maxDays outside 0..MaxForecastDays falls back to MaxForecastDays.
func NewForecastClient(client *commonhttp.Client, baseURL, timezone string, maxDays int, log logger.Logger) *ForecastClient {
	if maxDays <= 0 || maxDays > MaxForecastDays {
		maxDays = MaxForecastDays
	}
	if timezone == "" {
		timezone = "America/New_York"
	}
	return &ForecastClient{
		client:   client,
		baseURL:  baseURL,
		timezone: timezone,
		maxDays:  maxDays,
		logger:   log.WithFields(map[string]interface{}{"service": client.Service()}),
	}
}

func (c *ForecastClient) MaxDays() int { return c.maxDays }

type dailySeries struct {
	Time             []string   `json:"time"`
	Date             []string   `json:"date"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	TemperatureMin   []*float64 `json:"temperature_2m_min"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
	WeatherCode      []*float64 `json:"weather_code"`
}

type forecastResponse struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Timezone  string      `json:"timezone"`
	Daily     dailySeries `json:"daily"`
}

// FetchForecast requests dayOffset+1 days and returns the record at index dayOffset.
// An offset outside 0..MaxDays fails before any request is made.
func (c *ForecastClient) FetchForecast(ctx context.Context, latitude, longitude float64, dayOffset int) (*ForecastRecord, error) {
	if dayOffset < 0 || dayOffset > c.maxDays {
		return nil, errors.NewForecastRangeError(dayOffset, c.maxDays)
	}

	ctx, span := observability.StartSpan(ctx, "weather.forecast",
		attribute.Float64("latitude", latitude),
		attribute.Float64("longitude", longitude),
		attribute.Int("dayOffset", dayOffset),
	)
	defer span.End()

	record, err := c.fetch(ctx, latitude, longitude, dayOffset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "forecast fetch failed")
		return nil, err
	}
	return record, nil
}

func (c *ForecastClient) fetch(ctx context.Context, latitude, longitude float64, dayOffset int) (*ForecastRecord, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("daily", strings.Join(dailyVars, ","))
	q.Set("temperature_unit", "fahrenheit")
	q.Set("timezone", c.timezone)
	q.Set("forecast_days", strconv.Itoa(dayOffset+1))

	c.logger.Debug("fetching forecast", map[string]interface{}{
		"latitude":  latitude,
		"longitude": longitude,
		"dayOffset": dayOffset,
	})

	var resp forecastResponse
	if err := c.client.GetJSON(ctx, c.baseURL, q, &resp); err != nil {
		c.logger.Warn("forecast request failed", map[string]interface{}{
			"dayOffset": dayOffset,
			"status":    commonhttp.StatusCode(err),
			"error":     err.Error(),
		})
		return nil, errors.NewForecastFetchError(commonhttp.IsRetryable(err), err)
	}

	record, err := resp.Daily.at(dayOffset)
	if err != nil {
		return nil, errors.NewForecastFetchError(false, err)
	}
	return record, nil
}

// at selects one day from the parallel daily arrays.
func (d dailySeries) at(i int) (*ForecastRecord, error) {
	dates := d.Time
	if len(dates) == 0 {
		dates = d.Date
	}

	series := []struct {
		name string
		n    int
	}{
		{"time", len(dates)},
		{"temperature_2m_max", len(d.TemperatureMax)},
		{"temperature_2m_min", len(d.TemperatureMin)},
		{"precipitation_sum", len(d.PrecipitationSum)},
		{"weather_code", len(d.WeatherCode)},
	}
	for _, s := range series {
		if s.n <= i {
			return nil, fmt.Errorf("daily %s has %d entries, need %d", s.name, s.n, i+1)
		}
	}

	maxT, err := value("temperature_2m_max", d.TemperatureMax[i])
	if err != nil {
		return nil, err
	}
	minT, err := value("temperature_2m_min", d.TemperatureMin[i])
	if err != nil {
		return nil, err
	}
	precip, err := value("precipitation_sum", d.PrecipitationSum[i])
	if err != nil {
		return nil, err
	}
	rawCode, err := value("weather_code", d.WeatherCode[i])
	if err != nil {
		return nil, err
	}

	code := int(math.Round(rawCode))
	return &ForecastRecord{
		Date:            dates[i],
		MaxTemperatureF: maxT,
		MinTemperatureF: minT,
		PrecipitationMM: precip,
		WeatherCode:     code,
		Description:     DescribeWeatherCode(code),
	}, nil
}

func value(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("daily %s is null", name)
	}
	return *v, nil
}
