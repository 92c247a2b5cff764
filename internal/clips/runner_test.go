package clips

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ytclipper/clipper-agent/internal/clipper"
)

func setupRunnerTest(t *testing.T, backend clipper.Backend) (*Runner, *Service, Repository) {
	t.Helper()

	repo := setupTestDB(t)
	svc := NewService(repo, backend, testLogger())
	runner := NewRunner(svc, repo, testLogger())
	return runner, svc, repo
}

func TestRunner_ProcessesOldestPendingJob(t *testing.T) {
	runner, svc, repo := setupRunnerTest(t, okBackend())
	ctx := context.Background()

	first, _ := svc.Submit(ctx, validRequest())
	second, _ := svc.Submit(ctx, validRequest())

	if !runner.processNextJob(ctx) {
		t.Fatal("processNextJob() = false, want true")
	}

	got, _ := repo.GetJob(ctx, first.ID)
	if got.Status != JobStatusCompleted {
		t.Errorf("first job status = %s, want completed", got.Status)
	}
	got, _ = repo.GetJob(ctx, second.ID)
	if got.Status != JobStatusPending {
		t.Errorf("second job status = %s, want pending", got.Status)
	}
	if n := runner.PendingJobs(ctx); n != 1 {
		t.Errorf("PendingJobs() = %d, want 1", n)
	}
}

func TestRunner_EmptyQueue(t *testing.T) {
	runner, _, _ := setupRunnerTest(t, okBackend())
	if runner.processNextJob(context.Background()) {
		t.Fatal("processNextJob() = true on empty queue")
	}
}

func TestRunner_PauseResume(t *testing.T) {
	runner, _, _ := setupRunnerTest(t, okBackend())

	if runner.IsPaused() {
		t.Fatal("new runner should not be paused")
	}
	runner.Pause()
	if !runner.IsPaused() {
		t.Fatal("Pause() did not pause")
	}
	runner.Resume()
	if runner.IsPaused() {
		t.Fatal("Resume() did not resume")
	}
}

func TestRunner_StartDrainsQueue(t *testing.T) {
	var calls atomic.Int32
	backend := backendFunc(func(ctx context.Context, req clipper.Request, emit func(clipper.Event)) (*clipper.Result, error) {
		calls.Add(1)
		return okBackend()(ctx, req, emit)
	})
	runner, svc, _ := setupRunnerTest(t, backend)
	runner.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Submit(ctx, validRequest())
	svc.Submit(ctx, validRequest())

	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("runner processed %d jobs, want 2", calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
	if runner.IsRunning() {
		t.Error("IsRunning() = true after stop")
	}
}

func TestRunner_StopRecordsInFlightJob(t *testing.T) {
	started := make(chan struct{})
	backend := backendFunc(func(ctx context.Context, req clipper.Request, emit func(clipper.Event)) (*clipper.Result, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	runner, svc, repo := setupRunnerTest(t, backend)
	runner.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job, err := svc.Submit(ctx, validRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}

	got, err := repo.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != JobStatusFailed {
		t.Errorf("job status after stop = %s, want %s", got.Status, JobStatusFailed)
	}
}

func TestRunner_PausedSkipsWork(t *testing.T) {
	var calls atomic.Int32
	backend := backendFunc(func(ctx context.Context, req clipper.Request, emit func(clipper.Event)) (*clipper.Result, error) {
		calls.Add(1)
		return okBackend()(ctx, req, emit)
	})
	runner, svc, _ := setupRunnerTest(t, backend)
	runner.pollInterval = 5 * time.Millisecond
	runner.Pause()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	svc.Submit(ctx, validRequest())
	runner.Start(ctx)

	if calls.Load() != 0 {
		t.Fatalf("paused runner executed %d jobs", calls.Load())
	}
}
