// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"weather-workers/internal/common/config"
	"weather-workers/internal/common/logger"
)

// JobHandler handles one activated job and reports its outcome to the gateway itself.
// ctx carries the caller's trace span; the handler adds its own job timeout.
type JobHandler func(ctx context.Context, client worker.JobClient, job entities.Job)

// ToolWorker is an open job worker subscribed to one tool's job type.
type ToolWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// StartWorker opens a job worker for taskType. It returns nil when the worker is disabled.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, log logger.Logger) *ToolWorker {
	fields := map[string]interface{}{"taskType": taskType}
	if !wcfg.Enabled {
		log.Info("worker disabled", fields)
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(func(client worker.JobClient, job entities.Job) {
			handler(context.Background(), client, job)
		}).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})

	return &ToolWorker{
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

func (w *ToolWorker) TaskType() string { return w.taskType }

// Stop closes the subscription and waits for in-flight handlers.
func (w *ToolWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
