package clips

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const defaultPollInterval = 2 * time.Second

// Runner drains the pending queue one job at a time.
type Runner struct {
	service      *Service
	repo         Repository
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
	active       atomic.Int32
}

func NewRunner(service *Service, repo Repository, logger *slog.Logger) *Runner {
	return &Runner{
		service:      service,
		repo:         repo,
		logger:       logger,
		pollInterval: defaultPollInterval,
	}
}

// Start blocks until ctx is done.
func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("clip runner started", "poll_interval", r.pollInterval)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("clip runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("clip runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("clip runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// ActiveJobs reports jobs executing from the queue right now.
func (r *Runner) ActiveJobs() int {
	return int(r.active.Load())
}

func (r *Runner) PendingJobs(ctx context.Context) int {
	n, err := r.repo.CountJobsByStatus(ctx, JobStatusPending)
	if err != nil {
		r.logger.Warn("failed to count pending jobs", "error", err)
		return 0
	}
	return n
}

func (r *Runner) processNextJob(ctx context.Context) bool {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return false
	}

	if len(jobs) == 0 {
		return false
	}

	job := jobs[0]
	r.active.Add(1)
	defer r.active.Add(-1)

	r.logger.Info("processing clip job", "job_id", job.ID)
	if _, err := r.service.Execute(ctx, job, nil); err != nil {
		r.logger.Warn("queued clip job failed", "job_id", job.ID, "error", err)
	}
	return true
}
