package folders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/projects"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/workorders"
)

// Provisioner is the part of Service the retry worker drives.
type Provisioner interface {
	PendingProjects(ctx context.Context, limit int) ([]projects.Project, error)
	PendingWorkOrders(ctx context.Context, limit int) ([]workorders.WorkOrder, error)
	ProvisionProject(ctx context.Context, project *projects.Project) error
	ProvisionWorkOrder(ctx context.Context, workOrder *workorders.WorkOrder) error
}

// RetryWorkerConfig configuration for the folder retry worker
type RetryWorkerConfig struct {
	Schedule      string
	BatchSize     int
	MaxConcurrent int
	JobTimeout    time.Duration
}

// DefaultRetryWorkerConfig returns default configuration
func DefaultRetryWorkerConfig() RetryWorkerConfig {
	return RetryWorkerConfig{
		Schedule:      "0 */5 * * * *",
		BatchSize:     50,
		MaxConcurrent: 4,
		JobTimeout:    2 * time.Minute,
	}
}

// RetryStats counts the outcome of one sweep.
type RetryStats struct {
	Provisioned int64
	Deferred    int64
	Failed      int64
}

// RetryWorker provisions folders for records whose creation-time provisioning
// failed.
type RetryWorker struct {
	provisioner Provisioner
	cron        *cron.Cron
	logger      *zap.Logger
	config      RetryWorkerConfig
	mu          sync.Mutex
	running     bool
}

func NewRetryWorker(provisioner Provisioner, logger *zap.Logger, config RetryWorkerConfig) *RetryWorker {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	return &RetryWorker{
		provisioner: provisioner,
		cron:        cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:      logger,
		config:      config,
	}
}

// Start schedules the sweep and runs one immediately.
func (w *RetryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("folder retry worker already running")
	}

	if _, err := w.cron.AddFunc(w.config.Schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid folder retry schedule %q: %w", w.config.Schedule, err)
	}

	w.logger.Info("Starting folder retry worker",
		zap.String("schedule", w.config.Schedule),
		zap.Int("batch_size", w.config.BatchSize),
		zap.Int("max_concurrent", w.config.MaxConcurrent))

	w.running = true
	w.cron.Start()
	go w.RunOnce(ctx)
	return nil
}

// Stop stops scheduling and waits for a running sweep to finish.
func (w *RetryWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	<-w.cron.Stop().Done()
	w.running = false
	w.logger.Info("Folder retry worker stopped")
}

// RunOnce provisions pending projects, then pending work orders.
func (w *RetryWorker) RunOnce(ctx context.Context) RetryStats {
	var stats RetryStats

	pendingProjects, err := w.provisioner.PendingProjects(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("Failed to list projects without folders", zap.Error(err))
	} else {
		w.each(ctx, len(pendingProjects), &stats, func(ctx context.Context, i int) error {
			return w.provisioner.ProvisionProject(ctx, &pendingProjects[i])
		})
	}

	pendingWorkOrders, err := w.provisioner.PendingWorkOrders(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("Failed to list work orders without folders", zap.Error(err))
	} else {
		w.each(ctx, len(pendingWorkOrders), &stats, func(ctx context.Context, i int) error {
			return w.provisioner.ProvisionWorkOrder(ctx, &pendingWorkOrders[i])
		})
	}

	if stats.Provisioned+stats.Deferred+stats.Failed > 0 {
		w.logger.Info("Folder retry sweep finished",
			zap.Int64("provisioned", stats.Provisioned),
			zap.Int64("deferred", stats.Deferred),
			zap.Int64("failed", stats.Failed))
	}
	return stats
}

func (w *RetryWorker) each(ctx context.Context, n int, stats *RetryStats, fn func(context.Context, int) error) {
	sem := make(chan struct{}, w.config.MaxConcurrent)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}

		go func(i int) {
			defer func() { <-sem }()

			jobCtx := ctx
			if w.config.JobTimeout > 0 {
				var cancel context.CancelFunc
				jobCtx, cancel = context.WithTimeout(ctx, w.config.JobTimeout)
				defer cancel()
			}

			err := fn(jobCtx, i)
			switch {
			case err == nil:
				atomic.AddInt64(&stats.Provisioned, 1)
			case errors.Is(err, apperr.ErrNotReady), errors.Is(err, apperr.ErrUnavailable):
				atomic.AddInt64(&stats.Deferred, 1)
				w.logger.Debug("Folder provisioning deferred", zap.Error(err))
			default:
				atomic.AddInt64(&stats.Failed, 1)
				w.logger.Error("Folder provisioning failed", zap.Error(err))
			}
		}(i)
	}

	// Wait for completion
	for i := 0; i < w.config.MaxConcurrent; i++ {
		sem <- struct{}{}
	}
}
