// internal/workers/communication/forecast-notify/handler.go
package forecastnotify

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
)

const (
	TaskType    = "weatherNotify"
	Description = "Send the weather forecast for a US zipcode a number of days ahead to an email address or phone number."
)

func NewTool(service *Service) (*tool.SchemaTool[Params], error) {
	return tool.Register(TaskType, Description, GetInputSchema(),
		func(ctx context.Context, p Params, _ tool.ExecContext) (string, error) {
			delivery, err := service.Notify(ctx, p)
			if err != nil {
				return "", err
			}
			return delivery.Summary(p.Zipcode, p.DaysAhead), nil
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

func (h *Handler) Handle(ctx context.Context, client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	// Reporting back to the gateway must outlive the job timeout.
	reportCtx := context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, job)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
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
}

func (h *Handler) Execute(ctx context.Context, job entities.Job) (*Output, error) {
	vars, err := camunda.JobVariables(job)
	if err != nil {
		return nil, err
	}

	summary, err := h.tool.Invoke(ctx, vars, tool.ExecContext{
		InvocationID: strconv.FormatInt(job.GetKey(), 10),
		Logger:       h.logger,
		Variables:    vars,
	})
	if err != nil {
		return nil, err
	}
	return &Output{NotificationSummary: summary}, nil
}
