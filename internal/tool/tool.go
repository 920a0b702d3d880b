// Package tool exposes typed Go functions as named, schema-described tools
// that an invocation host (a Zeebe job worker, the CLI) can call with an
// untyped parameter payload.
package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"weather-workers/internal/common/errors"
	"weather-workers/internal/common/logger"
	"weather-workers/internal/common/metrics"
	"weather-workers/internal/common/observability"
	"weather-workers/internal/common/validation"
)

// ExecContext is host-supplied context passed through to the tool body untouched.
type ExecContext struct {
	InvocationID string
	ToolName     string
	Logger       logger.Logger
	// Variables carries host data that is not a declared parameter, e.g. the
	// remaining Zeebe process variables.
	Variables map[string]interface{}
}

// ExecuteFunc is the tool body. It only ever sees parameters that passed schema validation.
type ExecuteFunc[T any] func(ctx context.Context, params T, ec ExecContext) (string, error)

// Tool is the host-facing view of a registered tool.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Invoke(ctx context.Context, raw map[string]interface{}, ec ExecContext) (string, error)
	InvokeJSON(ctx context.Context, raw []byte, ec ExecContext) (string, error)
}

// Definition is the descriptor advertised to hosts.
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// SchemaTool binds a name, a description and a compiled parameter schema to a typed body.
type SchemaTool[T any] struct {
	name        string
	description string
	schema      *validation.Schema
	fn          ExecuteFunc[T]
}

// Register builds a tool. params of type T are decoded from the validated payload
// using the struct's json tags.
func Register[T any](name, description string, schema validation.JSONSchema, fn ExecuteFunc[T]) (*SchemaTool[T], error) {
	if err := validation.ValidateToolName(name); err != nil {
		return nil, err
	}
	if description == "" {
		return nil, fmt.Errorf("tool %s: description is required", name)
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %s: execute function is required", name)
	}

	compiled, err := validation.Compile(schema)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}

	return &SchemaTool[T]{
		name:        name,
		description: description,
		schema:      compiled,
		fn:          fn,
	}, nil
}

func (t *SchemaTool[T]) Name() string { return t.name }

func (t *SchemaTool[T]) Description() string { return t.description }

// Parameters returns the interchange JSON Schema. The root type is always present.
func (t *SchemaTool[T]) Parameters() map[string]interface{} {
	return t.schema.Interchange()
}

func (t *SchemaTool[T]) Definition() Definition {
	return Definition{Name: t.name, Description: t.description, Parameters: t.Parameters()}
}

// Invoke validates raw, decodes it into T and runs the body once. A payload that
// fails validation never reaches the body.
func (t *SchemaTool[T]) Invoke(ctx context.Context, raw map[string]interface{}, ec ExecContext) (string, error) {
	return t.invoke(ctx, raw, ec)
}

// InvokeJSON is Invoke for a JSON document. Numbers are kept exact so that an
// integer parameter is not silently rounded.
func (t *SchemaTool[T]) InvokeJSON(ctx context.Context, raw []byte, ec ExecContext) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload interface{}
	if err := dec.Decode(&payload); err != nil {
		stdErr := errors.NewInputParsingFailedError(err)
		metrics.ToolInvocations.WithLabelValues(t.name, string(stdErr.Code)).Inc()
		return "", stdErr
	}
	return t.invoke(ctx, payload, ec)
}

func (t *SchemaTool[T]) invoke(ctx context.Context, payload interface{}, ec ExecContext) (string, error) {
	ec = t.prepare(ec)
	log := ec.Logger

	ctx, span := observability.StartSpan(ctx, "tool.invoke",
		attribute.String("tool.name", t.name),
		attribute.String("tool.invocation_id", ec.InvocationID),
	)
	defer span.End()

	start := time.Now()
	log.Debug("invoking tool", nil)

	if result := t.schema.Validate(payload); !result.Valid {
		err := errors.NewValidationFailedError(t.name, result.Fields(), result.GetErrorMessages())
		t.finish(log, span, start, err)
		return "", err
	}

	params, err := t.decode(payload)
	if err != nil {
		t.finish(log, span, start, err)
		return "", err
	}

	out, err := t.fn(ctx, params, ec)
	t.finish(log, span, start, err)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (t *SchemaTool[T]) prepare(ec ExecContext) ExecContext {
	if ec.InvocationID == "" {
		ec.InvocationID = uuid.New().String()
	}
	ec.ToolName = t.name
	if ec.Logger == nil {
		ec.Logger = logger.NewNoOpLogger()
	}
	ec.Logger = ec.Logger.With(map[string]interface{}{
		"tool":         t.name,
		"invocationId": ec.InvocationID,
	})
	return ec
}

func (t *SchemaTool[T]) decode(payload interface{}) (T, error) {
	var params T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     &params,
		DecodeHook: jsonNumberHook,
	})
	if err != nil {
		return params, errors.NewInputParsingFailedError(err)
	}
	if err := dec.Decode(payload); err != nil {
		return params, errors.NewInputParsingFailedError(err)
	}
	return params, nil
}

// jsonNumberHook turns json.Number into int64 when exact, float64 otherwise.
// A number bound for an integer field must fit that field exactly.
func jsonNumberHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return integerFor(to, data)
	}

	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	return n.Float64()
}

func integerFor(to reflect.Type, data interface{}) (interface{}, error) {
	var f *big.Float
	switch v := data.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			f = new(big.Float).SetInt64(i)
			break
		}
		parsed, _, err := big.ParseFloat(v.String(), 10, 256, big.ToNearestEven)
		if err != nil {
			return nil, fmt.Errorf("%s is not a number", v)
		}
		f = parsed
	case float32, float64:
		fv := reflect.ValueOf(v).Float()
		if math.IsNaN(fv) || math.IsInf(fv, 0) {
			return nil, fmt.Errorf("%v is not an integer", fv)
		}
		f = big.NewFloat(fv)
	default:
		return data, nil
	}

	if !f.IsInt() {
		return nil, fmt.Errorf("%s is not an integer", f.Text('g', -1))
	}
	i, acc := f.Int64()
	if acc != big.Exact || reflect.New(to).Elem().OverflowInt(i) {
		return nil, fmt.Errorf("%s is out of range for %s", f.Text('g', -1), to.Kind())
	}
	return i, nil
}

func (t *SchemaTool[T]) finish(log logger.Logger, span trace.Span, start time.Time, err error) {
	elapsed := time.Since(start)
	if err == nil {
		metrics.ToolInvocations.WithLabelValues(t.name, "ok").Inc()
		log.Info("tool completed", map[string]interface{}{"duration_ms": elapsed.Milliseconds()})
		return
	}

	stdErr := errors.Normalize(err)
	metrics.ToolInvocations.WithLabelValues(t.name, string(stdErr.Code)).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stdErr.Code))
	log.Warn("tool failed", map[string]interface{}{
		"errorCode":   string(stdErr.Code),
		"error":       err.Error(),
		"duration_ms": elapsed.Milliseconds(),
	})
}
