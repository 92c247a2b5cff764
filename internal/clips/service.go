package clips

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ytclipper/clipper-agent/internal/clipper"
)

type ClipService interface {
	Submit(ctx context.Context, req Request) (*Job, error)
	Run(ctx context.Context, req Request, onEvent func(clipper.Event)) (*Job, error)
	Execute(ctx context.Context, job *Job, onEvent func(clipper.Event)) (*Job, error)
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, limit int) ([]*Job, error)
}

type Service struct {
	repo    Repository
	backend clipper.Backend
	logger  *slog.Logger
}

func NewService(repo Repository, backend clipper.Backend, logger *slog.Logger) *Service {
	return &Service{repo: repo, backend: backend, logger: logger}
}

// Submit records a pending job for the runner to pick up.
func (s *Service) Submit(ctx context.Context, req Request) (*Job, error) {
	job, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("clip job queued", "job_id", job.ID, "video_id", job.VideoID)
	return job, nil
}

// Run records a job and executes it on the caller's goroutine. onEvent sees
// every backend phase in order.
func (s *Service) Run(ctx context.Context, req Request, onEvent func(clipper.Event)) (*Job, error) {
	job, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, job, onEvent)
}

// Execute runs an existing job through the backend and returns its final
// row. The returned job is non-nil even when the backend fails.
func (s *Service) Execute(ctx context.Context, job *Job, onEvent func(clipper.Event)) (*Job, error) {
	logger := s.logger.With("job_id", job.ID, "video_id", job.VideoID)

	if err := s.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, ""); err != nil {
		return nil, fmt.Errorf("mark job running: %w", err)
	}
	logger.Info("clip job started", "start", job.StartTime, "end", job.EndTime)

	emit := func(ev clipper.Event) {
		if err := s.repo.UpdateJobPhase(ctx, job.ID, ev.Phase); err != nil {
			logger.Warn("failed to record phase", "phase", ev.Phase, "error", err)
		}
		if onEvent != nil {
			onEvent(ev)
		}
	}

	result, runErr := s.backend.Clip(ctx, job.request(), emit)

	// The job row outlives a cancelled request context.
	storeCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		if err := s.repo.UpdateJobStatus(storeCtx, job.ID, JobStatusFailed, runErr.Error()); err != nil {
			logger.Error("failed to mark job failed", "error", err)
		}
		logger.Error("clip job failed", "error", runErr)
	} else {
		if err := s.repo.CompleteJob(storeCtx, job.ID, result); err != nil {
			return nil, fmt.Errorf("complete job: %w", err)
		}
		logger.Info("clip job completed", "output", result.OutputPath)
	}

	final, err := s.repo.GetJob(storeCtx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("reload job: %w", err)
	}
	if final == nil {
		return nil, fmt.Errorf("reload job %s: %w", job.ID, ErrJobNotFound)
	}
	return final, runErr
}

func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *Service) create(ctx context.Context, req Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		VideoID:   req.VideoID,
		URL:       req.URL,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    JobStatusPending,
		Phase:     clipper.PhaseQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}
