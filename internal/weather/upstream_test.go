package weather

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	commonhttp "weather-workers/internal/common/http"
	"weather-workers/internal/common/logger"
)

// fakeUpstreams serves zippopotam-style geocode and Open-Meteo-style forecast
// responses and records every request it sees.
type fakeUpstreams struct {
	mu             sync.Mutex
	geocodeCalls   int
	forecastCalls  int
	forecastQuery  url.Values
	places         map[string][2]string
	geocodeStatus  int
	forecastStatus int
	// forecastBody overrides the generated daily series when set.
	forecastBody string
	server       *httptest.Server
}

func newFakeUpstreams(t *testing.T) *fakeUpstreams {
	t.Helper()
	f := &fakeUpstreams{
		places: map[string][2]string{
			"02148": {"42.49", "-71.07"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/us/", f.serveGeocode)
	mux.HandleFunc("/v1/forecast", f.serveForecast)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeUpstreams) serveGeocode(w http.ResponseWriter, r *http.Request) {
	zip := strings.TrimPrefix(r.URL.Path, "/us/")

	f.mu.Lock()
	f.geocodeCalls++
	status := f.geocodeStatus
	coords, ok := f.places[zip]
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, "{}", status)
		return
	}

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "{}")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"post code": zip,
		"country":   "United States",
		"places": []map[string]string{{
			"place name": "Melrose",
			"state":      "Massachusetts",
			"latitude":   coords[0],
			"longitude":  coords[1],
		}},
	})
}

func (f *fakeUpstreams) serveForecast(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.forecastCalls++
	f.forecastQuery = r.URL.Query()
	status := f.forecastStatus
	body := f.forecastBody
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, `{"error":true}`, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if body != "" {
		fmt.Fprint(w, body)
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("forecast_days"))
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	daily := map[string][]interface{}{}
	for i := 0; i < days; i++ {
		daily["time"] = append(daily["time"], start.AddDate(0, 0, i).Format("2006-01-02"))
		daily["temperature_2m_max"] = append(daily["temperature_2m_max"], 75+i)
		daily["temperature_2m_min"] = append(daily["temperature_2m_min"], 60+i)
		daily["precipitation_sum"] = append(daily["precipitation_sum"], float64(i)/10)
		daily["weather_code"] = append(daily["weather_code"], 1)
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"latitude":  42.49,
		"longitude": -71.07,
		"timezone":  "America/New_York",
		"daily":     daily,
	})
}

func (f *fakeUpstreams) setGeocodeStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geocodeStatus = status
}

func (f *fakeUpstreams) addPlace(zip, lat, lon string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.places[zip] = [2]string{lat, lon}
}

func (f *fakeUpstreams) setForecast(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forecastStatus = status
	f.forecastBody = body
}

func (f *fakeUpstreams) lastForecastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forecastQuery
}

func (f *fakeUpstreams) calls() (geocode, forecast int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.geocodeCalls, f.forecastCalls
}

func (f *fakeUpstreams) geocodeClient(t *testing.T) *GeocodeClient {
	return NewGeocodeClient(commonhttp.NewClient("geocode-test", 2*time.Second),
		f.server.URL, "us", logger.NewTestLogger(t))
}

func (f *fakeUpstreams) forecastClient(t *testing.T) *ForecastClient {
	return NewForecastClient(commonhttp.NewClient("forecast-test", 2*time.Second),
		f.server.URL+"/v1/forecast", "America/New_York", MaxForecastDays, logger.NewTestLogger(t))
}

func (f *fakeUpstreams) service(t *testing.T) *Service {
	fc := f.forecastClient(t)
	return NewService(f.geocodeClient(t), fc, fc.MaxDays(), logger.NewTestLogger(t))
}

func newJSONServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testHTTPClient(service string) *commonhttp.Client {
	return commonhttp.NewClient(service, 2*time.Second)
}

func testLogger(t *testing.T) logger.Logger {
	return logger.NewTestLogger(t)
}
