// Package weather resolves a U.S. postal code to coordinates, fetches a daily
// forecast for those coordinates and renders one day as readable text.
package weather

import (
	"context"
	"fmt"
	"math"
)

// Coordinates is a resolved location. It is only built from a successful geocode.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", c.Longitude)
	}
	return nil
}

// ForecastRecord is one day of the daily series.
type ForecastRecord struct {
	Date            string  `json:"date"`
	MaxTemperatureF float64 `json:"maxTemperatureF"`
	MinTemperatureF float64 `json:"minTemperatureF"`
	PrecipitationMM float64 `json:"precipitationMm"`
	WeatherCode     int     `json:"weatherCode"`
	Description     string  `json:"description"`
}

// Geocoder turns a postal code into coordinates.
type Geocoder interface {
	ResolveCoordinates(ctx context.Context, postalCode string) (*Coordinates, error)
}

// ForecastFetcher returns the forecast dayOffset days from today.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context, latitude, longitude float64, dayOffset int) (*ForecastRecord, error)
}

// Forecaster is what tools depend on.
type Forecaster interface {
	GetReadableForecast(ctx context.Context, postalCode string, dayOffset int) (string, error)
}
