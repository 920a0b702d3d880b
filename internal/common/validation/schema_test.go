package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forecastSchema() JSONSchema {
	return JSONSchema{
		Properties: map[string]Property{
			"zipcode":   {Type: "string", Description: "5-digit US zipcode"},
			"daysAhead": {Type: "integer", Description: "number of days ahead to forecast"},
		},
		Required:             []string{"zipcode", "daysAhead"},
		AdditionalProperties: true,
	}
}

func TestCompile_DefaultsRootTypeToObject(t *testing.T) {
	schema, err := Compile(forecastSchema())
	require.NoError(t, err)

	doc := schema.Interchange()
	assert.Equal(t, "object", doc["type"])
	assert.ElementsMatch(t, []interface{}{"zipcode", "daysAhead"}, doc["required"])

	props := doc["properties"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{
		"type":        "integer",
		"description": "number of days ahead to forecast",
	}, props["daysAhead"])
}

func TestCompile_KeepsExplicitRootType(t *testing.T) {
	s := forecastSchema()
	s.Type = "object"
	schema, err := Compile(s)
	require.NoError(t, err)
	assert.Equal(t, "object", schema.Interchange()["type"])
}

func TestCompile_RejectsBrokenSchema(t *testing.T) {
	_, err := Compile(JSONSchema{
		Properties: map[string]Property{"zipcode": {Type: "strnig"}},
	})
	assert.Error(t, err)
}

func TestInterchange_ReturnsCopy(t *testing.T) {
	schema, err := Compile(forecastSchema())
	require.NoError(t, err)

	doc := schema.Interchange()
	doc["type"] = "array"
	doc["properties"].(map[string]interface{})["zipcode"] = nil

	fresh := schema.Interchange()
	assert.Equal(t, "object", fresh["type"])
	assert.NotNil(t, fresh["properties"].(map[string]interface{})["zipcode"])
}

func TestSchema_Validate(t *testing.T) {
	schema, err := Compile(forecastSchema())
	require.NoError(t, err)

	tests := []struct {
		name       string
		input      map[string]interface{}
		wantValid  bool
		wantFields []string
		wantCode   string
	}{
		{
			name:      "valid input",
			input:     map[string]interface{}{"zipcode": "02148", "daysAhead": 1},
			wantValid: true,
		},
		{
			name:      "extra process variables are tolerated",
			input:     map[string]interface{}{"zipcode": "02148", "daysAhead": 0, "processId": "p-1"},
			wantValid: true,
		},
		{
			name:       "missing zipcode",
			input:      map[string]interface{}{"daysAhead": 1},
			wantFields: []string{"zipcode"},
			wantCode:   "REQUIRED_FIELD_MISSING",
		},
		{
			name:       "non numeric daysAhead",
			input:      map[string]interface{}{"zipcode": "02148", "daysAhead": "abc"},
			wantFields: []string{"daysAhead"},
			wantCode:   "INVALID_TYPE",
		},
		{
			name:       "fractional daysAhead",
			input:      map[string]interface{}{"zipcode": "02148", "daysAhead": 1.5},
			wantFields: []string{"daysAhead"},
			wantCode:   "INVALID_TYPE",
		},
		{
			name:       "numeric zipcode",
			input:      map[string]interface{}{"zipcode": 2148, "daysAhead": 1},
			wantFields: []string{"zipcode"},
			wantCode:   "INVALID_TYPE",
		},
		{
			name:       "empty payload",
			input:      map[string]interface{}{},
			wantFields: []string{"daysAhead", "zipcode"},
			wantCode:   "REQUIRED_FIELD_MISSING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.Validate(tt.input)

			assert.Equal(t, tt.wantValid, result.Valid)
			if tt.wantValid {
				assert.Empty(t, result.Errors)
				return
			}
			assert.Equal(t, tt.wantFields, result.Fields())
			for _, e := range result.Errors {
				assert.Equal(t, tt.wantCode, e.Code)
			}
		})
	}
}

func TestSchema_ValidateDecodedJSON(t *testing.T) {
	schema, err := Compile(forecastSchema())
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"zipcode":"02148","daysAhead":3}`), &payload))

	assert.True(t, schema.Validate(payload).Valid)
}

func TestSchema_DisallowedExtras(t *testing.T) {
	s := forecastSchema()
	s.AdditionalProperties = false
	schema, err := Compile(s)
	require.NoError(t, err)

	result := schema.Validate(map[string]interface{}{"zipcode": "02148", "daysAhead": 1, "country": "us"})
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("country"))
	assert.Equal(t, "EXTRA_FIELD", result.Errors[0].Code)
}

func TestSchema_NullPayload(t *testing.T) {
	schema, err := Compile(forecastSchema())
	require.NoError(t, err)

	result := schema.Validate(nil)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.GetErrorMessages())
}

func TestValidateInput(t *testing.T) {
	result := ValidateInput(map[string]interface{}{"daysAhead": 2}, forecastSchema())
	require.False(t, result.Valid)

	msgs := result.GetErrorMessages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "zipcode")
	assert.Len(t, result.GetErrorsForField("zipcode"), 1)
}

func TestValidateToolName(t *testing.T) {
	assert.NoError(t, ValidateToolName("weatherForcasting"))
	assert.NoError(t, ValidateToolName("weather-notify"))
	assert.Error(t, ValidateToolName(""))
	assert.Error(t, ValidateToolName("1weather"))
	assert.Error(t, ValidateToolName("weather forecast"))
}

func TestValidateContactFormats(t *testing.T) {
	assert.True(t, ValidateEmail("ops@example.com"))
	assert.False(t, ValidateEmail("ops@"))
	assert.True(t, ValidatePhone("+16175550100"))
	assert.False(t, ValidatePhone("617-555-0100"))
}
