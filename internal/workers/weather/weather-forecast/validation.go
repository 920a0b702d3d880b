package weatherforecast

import "weather-workers/internal/common/validation"

// GetInputSchema describes the forecast parameters. Other process variables
// travel with the job, so undeclared properties are allowed.
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
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"forecast"},
		Properties: map[string]validation.Property{
			"forecast": {
				Type:        "string",
				Description: "Human-readable forecast for the requested day",
			},
		},
	}
}
