// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"pathfinder-workers/internal/common/config"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/common/metrics"
	"pathfinder-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every worker package.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Registry opens job workers against one broker and tracks them for shutdown.
type Registry struct {
	client  zbc.Client
	obs     *observability.Observability
	logger  logger.Logger
	workers map[string]worker.JobWorker
}

func NewRegistry(client zbc.Client, obs *observability.Observability, log logger.Logger) *Registry {
	return &Registry{
		client:  client,
		obs:     obs,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Register opens a worker for taskType unless it is disabled in config.
func (r *Registry) Register(taskType string, wcfg config.WorkerConfig, handler JobHandler) bool {
	if !wcfg.Enabled {
		r.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	r.workers[taskType] = r.client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, r.obs, handler.Handle)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	r.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})
	return true
}

// Count returns the number of open workers.
func (r *Registry) Count() int {
	return len(r.workers)
}

// Close stops every worker and waits for in-flight jobs.
func (r *Registry) Close() {
	for taskType, w := range r.workers {
		w.Close()
		w.AwaitClose()
		r.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
}

// Instrument wraps a job handler with the Prometheus and OpenTelemetry job
// metrics. The outcome is read back from the wrapped client.
func Instrument(taskType string, obs *observability.Observability, handle worker.JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		tracked := &outcomeClient{JobClient: client}
		handle(tracked, job)

		status := "completed"
		if tracked.failed {
			status = "failed"
			metrics.WorkerJobsFailed.WithLabelValues(taskType, tracked.errorCode).Inc()
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}

		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		ctx := context.Background()
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, elapsed, status)
	}
}

// outcomeClient records whether the handler failed the job or threw a BPMN error.
type outcomeClient struct {
	worker.JobClient
	failed    bool
	errorCode string
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.failed = true
	c.errorCode = "job_failed"
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.failed = true
	c.errorCode = "bpmn_error"
	return c.JobClient.NewThrowErrorCommand()
}
