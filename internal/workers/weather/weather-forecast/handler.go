// internal/workers/weather/weather-forecast/handler.go
package weatherforecast

import (
	"context"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"weather-workers/internal/common/camunda"
	"weather-workers/internal/common/errors"
	"weather-workers/internal/common/logger"
	"weather-workers/internal/common/metrics"
	"weather-workers/internal/tool"
	"weather-workers/internal/weather"
)

const (
	TaskType    = "weatherForcasting"
	Description = "Get the weather forecast for a US zipcode a number of days ahead (0 is today, at most 16)."
)

// NewTool registers the forecast tool on top of forecaster.
func NewTool(forecaster weather.Forecaster) (*tool.SchemaTool[Params], error) {
	return tool.Register(TaskType, Description, GetInputSchema(),
		func(ctx context.Context, p Params, _ tool.ExecContext) (string, error) {
			return forecaster.GetReadableForecast(ctx, p.Zipcode, p.DaysAhead)
		})
}

type Handler struct {
	config       *Config
	tool         tool.Tool
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, t tool.Tool, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		tool:         t,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

// Handle runs the tool for one activated job and reports the outcome to the gateway.
func (h *Handler) Handle(ctx context.Context, client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	// Reporting back to the gateway must outlive the job timeout.
	reportCtx := context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, job)
	if err != nil {
		stdErr := errors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errorHandler.HandleJobError(reportCtx, client, job, stdErr)
		return
	}

	if err := camunda.CompleteJob(reportCtx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// Execute invokes the tool with the job's variables as the raw parameter payload.
func (h *Handler) Execute(ctx context.Context, job entities.Job) (*Output, error) {
	vars, err := camunda.JobVariables(job)
	if err != nil {
		return nil, err
	}

	forecast, err := h.tool.Invoke(ctx, vars, tool.ExecContext{
		InvocationID: strconv.FormatInt(job.GetKey(), 10),
		Logger:       h.logger,
		Variables:    vars,
	})
	if err != nil {
		return nil, err
	}
	return &Output{Forecast: forecast}, nil
}
