package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-workers/internal/common/errors"
	"weather-workers/internal/common/validation"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	forecast := newForecastTool(t, &recorder{out: "sunny"})

	require.NoError(t, reg.Register(forecast))
	assert.Error(t, reg.Register(forecast), "duplicate names are rejected")
	assert.Error(t, reg.Register(nil))

	got, ok := reg.Get("weatherForcasting")
	require.True(t, ok)
	assert.Equal(t, "weatherForcasting", got.Name())

	_, ok = reg.Get("weatherForecasting")
	assert.False(t, ok)
}

func TestRegistry_DefinitionsSorted(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newForecastTool(t, &recorder{})))

	notify, err := Register[struct{}]("alertTool", "Sends alerts", validation.JSONSchema{},
		func(context.Context, struct{}, ExecContext) (string, error) { return "", nil })
	require.NoError(t, err)
	require.NoError(t, reg.Register(notify))

	assert.Equal(t, []string{"alertTool", "weatherForcasting"}, reg.Names())

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alertTool", defs[0].Name)
	assert.Equal(t, "object", defs[0].Parameters["type"])
	assert.Equal(t, "Get weather forecast", defs[1].Description)
}

func TestRegistry_Invoke(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{out: "sunny"}
	require.NoError(t, reg.Register(newForecastTool(t, rec)))

	out, err := reg.Invoke(context.Background(), "weatherForcasting",
		map[string]interface{}{"zipcode": "02148", "daysAhead": 2}, ExecContext{})
	require.NoError(t, err)
	assert.Equal(t, "sunny", out)

	_, err = reg.Invoke(context.Background(), "nope", nil, ExecContext{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeToolNotFound))
	assert.Contains(t, err.Error(), "weatherForcasting")
	assert.Equal(t, 1, rec.calls)
}
