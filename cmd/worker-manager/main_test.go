package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"weather-workers/internal/common/observability"
	"weather-workers/internal/common/validation"
	"weather-workers/internal/tool"
)

type echoParams struct {
	Text string `json:"text"`
}

func testRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	echo, err := tool.Register("echo", "Echo the text back", validation.JSONSchema{
		Required:   []string{"text"},
		Properties: map[string]validation.Property{"text": {Type: "string"}},
	}, func(_ context.Context, p echoParams, _ tool.ExecContext) (string, error) {
		return p.Text, nil
	})
	require.NoError(t, err)

	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(echo))
	return reg
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestMux_Health(t *testing.T) {
	mux := newMux(func(context.Context) error { return nil }, testRegistry(t))

	rec := get(t, mux, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestMux_Ready(t *testing.T) {
	ok := newMux(func(context.Context) error { return nil }, testRegistry(t))
	assert.Equal(t, http.StatusOK, get(t, ok, "/ready").Code)

	down := newMux(func(context.Context) error { return fmt.Errorf("gateway unreachable") }, testRegistry(t))
	rec := get(t, down, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "gateway unreachable")
}

func TestMux_Tools(t *testing.T) {
	mux := newMux(func(context.Context) error { return nil }, testRegistry(t))

	rec := get(t, mux, "/tools")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tools []tool.Definition `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tools, 1)
	assert.Equal(t, "echo", body.Tools[0].Name)
	assert.Equal(t, "object", body.Tools[0].Parameters["type"])
}

func TestMux_Metrics(t *testing.T) {
	mux := newMux(func(context.Context) error { return nil }, testRegistry(t))

	rec := get(t, mux, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}

func TestInstrument(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := observability.New("worker-manager-test", sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(obs.Shutdown)

	called := 0
	handle := instrument(obs, "weatherForcasting", func(context.Context, worker.JobClient, entities.Job) { called++ })

	handle(context.Background(), nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: "weatherForcasting"}})

	assert.Equal(t, 1, called)
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "job.handle", spans[0].Name())
}

func TestInstrument_ToolSpansNestUnderJob(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := observability.New("worker-manager-test", sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(obs.Shutdown)

	reg := testRegistry(t)
	handle := instrument(obs, "echo", func(ctx context.Context, _ worker.JobClient, _ entities.Job) {
		_, err := reg.Invoke(ctx, "echo", map[string]interface{}{"text": "hi"}, tool.ExecContext{})
		require.NoError(t, err)
	})

	handle(context.Background(), nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Type: "echo"}})

	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range recorder.Ended() {
		byName[s.Name()] = s
	}
	job, ok := byName["job.handle"]
	require.True(t, ok)
	invoke, ok := byName["tool.invoke"]
	require.True(t, ok)
	assert.Equal(t, job.SpanContext().TraceID(), invoke.SpanContext().TraceID())
	assert.Equal(t, job.SpanContext().SpanID(), invoke.Parent().SpanID())
}
