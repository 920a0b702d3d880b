// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"weather-workers/internal/common/camunda"
	"weather-workers/internal/common/config"
	"weather-workers/internal/common/logger"
	"weather-workers/internal/common/observability"
	"weather-workers/internal/tool"
	"weather-workers/internal/toolset"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	if err := run(cfg, log); err != nil {
		zapLog.Fatal("worker manager failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	log.Info("Starting worker manager...", map[string]interface{}{"app": cfg.App.Name})

	if err := config.RequireBroker(cfg); err != nil {
		return err
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.UsePlaintext,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		return err
	}
	defer zeebe.Close()

	tools, err := toolset.Build(ctx, cfg, log)
	if err != nil {
		return err
	}

	var workers []*camunda.ToolWorker
	for _, b := range tools.Bindings() {
		taskType := b.Tool.Name()
		w := camunda.StartWorker(zeebe.GetClient(), taskType, b.WorkerConfig(), instrument(obs, taskType, b.Handle), log)
		if w != nil {
			workers = append(workers, w)
		}
	}
	log.Info("workers registered", map[string]interface{}{
		"started": len(workers),
		"tools":   tools.Registry().Names(),
	})

	srv := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           newMux(zeebe.HealthCheck, tools.Registry()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if cfg.Metrics.Enabled {
		go func() {
			log.Info("Health/Metrics server listening", map[string]interface{}{"address": srv.Addr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	<-ctx.Done()
	log.Info("Shutdown signal received, stopping workers...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping Health/Metrics server", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped gracefully", nil)
	return nil
}

// instrument wraps a job handler with a span and the OpenTelemetry job instruments.
func instrument(obs *observability.Observability, taskType string, handle camunda.JobHandler) camunda.JobHandler {
	return func(ctx context.Context, client worker.JobClient, job entities.Job) {
		ctx, span := obs.StartSpan(ctx, "job.handle",
			attribute.String("job.type", taskType),
			attribute.Int64("job.key", job.GetKey()),
		)
		start := time.Now()

		handle(ctx, client, job)

		span.End()
		obs.RecordJobProcessed(ctx, taskType, "handled")
		obs.RecordJobDuration(ctx, taskType, time.Since(start), "handled")
	}
}

func newMux(ready func(context.Context) error, registry *tool.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/tools", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"tools": registry.Definitions(),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
