package weather

import (
	"context"
	"fmt"
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

// API docs: https://www.zippopotam.us
// Sample request: https://api.zippopotam.us/us/02148

type GeocodeClient struct {
	client  *commonhttp.Client
	baseURL string
	country string
	logger  logger.Logger
}

func NewGeocodeClient(client *commonhttp.Client, baseURL, country string, log logger.Logger) *GeocodeClient {
	if country == "" {
		country = "us"
	}
	return &GeocodeClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		country: country,
		logger:  log.WithFields(map[string]interface{}{"service": client.Service()}),
	}
}

type geocodeResponse struct {
	PostCode string `json:"post code"`
	Country  string `json:"country"`
	Places   []struct {
		PlaceName string `json:"place name"`
		State     string `json:"state"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
}

// ResolveCoordinates makes one request to the postal-code service and returns
// the first place's coordinates.
func (c *GeocodeClient) ResolveCoordinates(ctx context.Context, postalCode string) (*Coordinates, error) {
	ctx, span := observability.StartSpan(ctx, "weather.geocode", attribute.String("zipcode", postalCode))
	defer span.End()

	coords, err := c.resolve(ctx, postalCode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocode failed")
		return nil, err
	}
	return coords, nil
}

func (c *GeocodeClient) resolve(ctx context.Context, postalCode string) (*Coordinates, error) {
	zip := strings.TrimSpace(postalCode)
	if zip == "" {
		return nil, errors.NewGeocodeError(postalCode, false, fmt.Errorf("empty zipcode"))
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.country, url.PathEscape(zip))
	c.logger.Debug("resolving coordinates", map[string]interface{}{"zipcode": zip})

	var resp geocodeResponse
	if err := c.client.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		c.logger.Warn("geocode request failed", map[string]interface{}{
			"zipcode": zip,
			"status":  commonhttp.StatusCode(err),
			"error":   err.Error(),
		})
		return nil, errors.NewGeocodeError(postalCode, commonhttp.IsRetryable(err), err)
	}

	if len(resp.Places) == 0 {
		return nil, errors.NewGeocodeError(postalCode, false, fmt.Errorf("no places returned"))
	}

	place := resp.Places[0]
	lat, err := strconv.ParseFloat(strings.TrimSpace(place.Latitude), 64)
	if err != nil {
		return nil, errors.NewGeocodeError(postalCode, false, fmt.Errorf("bad latitude %q: %w", place.Latitude, err))
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(place.Longitude), 64)
	if err != nil {
		return nil, errors.NewGeocodeError(postalCode, false, fmt.Errorf("bad longitude %q: %w", place.Longitude, err))
	}

	coords := Coordinates{Latitude: lat, Longitude: lon}
	if err := coords.validate(); err != nil {
		return nil, errors.NewGeocodeError(postalCode, false, err)
	}

	c.logger.Debug("coordinates resolved", map[string]interface{}{
		"zipcode":   zip,
		"place":     place.PlaceName,
		"latitude":  lat,
		"longitude": lon,
	})
	return &coords, nil
}
