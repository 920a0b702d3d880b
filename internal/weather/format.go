package weather

import (
	"fmt"
	"strings"
)

// FormatForecast renders a record as a short multi-line block. It never fails;
// a record without a description is described from its weather code.
func FormatForecast(r ForecastRecord) string {
	desc := r.Description
	if desc == "" {
		desc = DescribeWeatherCode(r.WeatherCode)
	}
	date := r.Date
	if date == "" {
		date = "unknown date"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weather forecast for %s:\n", date)
	fmt.Fprintf(&b, "Conditions: %s\n", desc)
	fmt.Fprintf(&b, "High: %.1f°F\n", r.MaxTemperatureF)
	fmt.Fprintf(&b, "Low: %.1f°F\n", r.MinTemperatureF)
	fmt.Fprintf(&b, "Precipitation: %.1f mm", r.PrecipitationMM)
	return b.String()
}
