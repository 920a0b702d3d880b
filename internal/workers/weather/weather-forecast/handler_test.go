// internal/workers/weather/weather-forecast/handler_test.go
package weatherforecast

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"weather-workers/internal/common/config"
	"weather-workers/internal/common/errors"
	"weather-workers/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

type mockForecaster struct{ mock.Mock }

func (m *mockForecaster) GetReadableForecast(ctx context.Context, postalCode string, dayOffset int) (string, error) {
	args := m.Called(ctx, postalCode, dayOffset)
	return args.String(0), args.Error(1)
}

func createTestHandler(t *testing.T, forecaster *mockForecaster) *Handler {
	t.Helper()
	forecastTool, err := NewTool(forecaster)
	require.NoError(t, err)
	return NewHandler(&Config{Enabled: true, MaxJobsActive: 1, Timeout: 5 * time.Second}, forecastTool, logger.NewTestLogger(t))
}

func createJob(key int64, variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: 2251799813685249,
		Variables:          variables,
	}}
}

// ==========================
// Tool Descriptor Tests
// ==========================

func TestNewTool_Descriptor(t *testing.T) {
	forecastTool, err := NewTool(&mockForecaster{})
	require.NoError(t, err)

	assert.Equal(t, "weatherForcasting", forecastTool.Name())
	assert.NotEmpty(t, forecastTool.Description())

	params := forecastTool.Parameters()
	assert.Equal(t, "object", params["type"])
	assert.ElementsMatch(t, []interface{}{"zipcode", "daysAhead"}, params["required"])

	props, ok := params["properties"].(map[string]interface{})
	require.True(t, ok)
	zip := props["zipcode"].(map[string]interface{})
	assert.Equal(t, "string", zip["type"])
	assert.Equal(t, "5-digit US zipcode", zip["description"])
	days := props["daysAhead"].(map[string]interface{})
	assert.Equal(t, "integer", days["type"])
	assert.Equal(t, "number of days ahead to forecast", days["description"])
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	forecaster := &mockForecaster{}
	forecaster.On("GetReadableForecast", mock.Anything, "02148", 1).
		Return("Weather forecast for 2024-06-02:\nConditions: Mainly clear", nil).Once()

	h := createTestHandler(t, forecaster)
	output, err := h.Execute(context.Background(),
		createJob(1, `{"zipcode":"02148","daysAhead":1,"requestedBy":"ops"}`))

	require.NoError(t, err)
	assert.Contains(t, output.Forecast, "Mainly clear")
	forecaster.AssertExpectations(t)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		code      errors.ErrorCode
	}{
		{"missing zipcode", `{"daysAhead":1}`, errors.ErrCodeValidationFailed},
		{"missing daysAhead", `{"zipcode":"02148"}`, errors.ErrCodeValidationFailed},
		{"non-numeric daysAhead", `{"zipcode":"02148","daysAhead":"abc"}`, errors.ErrCodeValidationFailed},
		{"fractional daysAhead", `{"zipcode":"02148","daysAhead":1.5}`, errors.ErrCodeValidationFailed},
		{"numeric zipcode", `{"zipcode":2148,"daysAhead":1}`, errors.ErrCodeValidationFailed},
		{"daysAhead beyond int range", `{"zipcode":"02148","daysAhead":1e19}`, errors.ErrCodeInputParsingFailed},
		{"daysAhead below int range", `{"zipcode":"02148","daysAhead":-1e19}`, errors.ErrCodeInputParsingFailed},
		{"no variables", ``, errors.ErrCodeValidationFailed},
		{"malformed variables", `{"zipcode":`, errors.ErrCodeInputParsingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecaster := &mockForecaster{}
			h := createTestHandler(t, forecaster)

			output, err := h.Execute(context.Background(), createJob(7, tt.variables))

			assert.Nil(t, output)
			require.True(t, errors.HasCode(err, tt.code), "got %v", err)
			assert.False(t, errors.AsStandard(err).Retryable)
			forecaster.AssertNotCalled(t, "GetReadableForecast", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Execute_ReportsInvalidFields(t *testing.T) {
	h := createTestHandler(t, &mockForecaster{})

	_, err := h.Execute(context.Background(), createJob(8, `{"daysAhead":"abc"}`))

	stdErr := errors.AsStandard(err)
	require.NotNil(t, stdErr)
	assert.ElementsMatch(t, []string{"daysAhead", "zipcode"}, stdErr.Metadata["fields"])
}

func TestHandler_Execute_PipelineErrorUnchanged(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"geocode", errors.NewGeocodeError("00000", false, fmt.Errorf("status 404"))},
		{"range", errors.NewForecastRangeError(20, 16)},
		{"fetch", errors.NewForecastFetchError(true, fmt.Errorf("status 503"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecaster := &mockForecaster{}
			forecaster.On("GetReadableForecast", mock.Anything, mock.Anything, mock.Anything).Return("", tt.err).Once()

			h := createTestHandler(t, forecaster)
			_, err := h.Execute(context.Background(), createJob(9, `{"zipcode":"00000","daysAhead":20}`))

			assert.Same(t, tt.err, err)
		})
	}
}

func TestHandler_Execute_PassesContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	forecaster := &mockForecaster{}
	forecaster.On("GetReadableForecast", mock.MatchedBy(func(c context.Context) bool {
		deadline, ok := c.Deadline()
		want, _ := ctx.Deadline()
		return ok && deadline.Equal(want)
	}), "02148", 0).Return("ok", nil).Once()

	h := createTestHandler(t, forecaster)
	_, err := h.Execute(ctx, createJob(10, `{"zipcode":"02148","daysAhead":0}`))

	require.NoError(t, err)
	forecaster.AssertExpectations(t)
}

// ==========================
// Config Tests
// ==========================

func TestConfigFrom(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		"weatherforcasting": {Enabled: true, MaxJobsActive: 3, Timeout: 1500},
	}}

	c := ConfigFrom(cfg)
	assert.True(t, c.Enabled)
	assert.Equal(t, 3, c.MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, c.Timeout)
	assert.NoError(t, c.Validate())

	fallback := ConfigFrom(&config.Config{})
	assert.Equal(t, DefaultConfig(), fallback)
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, (&Config{MaxJobsActive: 1}).Validate())
	assert.Error(t, (&Config{Timeout: time.Second}).Validate())
}
