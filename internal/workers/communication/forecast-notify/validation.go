// internal/workers/communication/forecast-notify/validation.go
package forecastnotify

import "weather-workers/internal/common/validation"

// GetInputSchema requires the forecast parameters. At least one of email and
// phone must also be present; the schema cannot express that, so the tool
// body checks it.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"zipcode", "daysAhead"},
		Properties: map[string]validation.Property{
			"zipcode": {
				Type:        "string",
				Description: "5-digit US zipcode",
			},
			"daysAhead": {
				Type:        "integer",
				Description: "number of days ahead to forecast",
			},
			"email": {
				Type:        "string",
				Description: "Recipient email address",
				MaxLength:   intPtr(255),
			},
			"phone": {
				Type:        "string",
				Description: "Recipient phone number in E.164 format",
				MaxLength:   intPtr(16),
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int {
	return &i
}
