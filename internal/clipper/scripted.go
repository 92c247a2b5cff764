package clipper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ytclipper/clipper-agent/internal/ffmpeg"
)

var ErrScheduleOrder = errors.New("schedule offsets must be strictly increasing")

// Schedule holds the offsets, measured from invocation, at which each phase
// after queued begins.
type Schedule struct {
	Discovering time.Duration
	Seeking     time.Duration
	Transcoding time.Duration
	Done        time.Duration
}

func DefaultSchedule() Schedule {
	return Schedule{
		Discovering: 1000 * time.Millisecond,
		Seeking:     2500 * time.Millisecond,
		Transcoding: 4000 * time.Millisecond,
		Done:        6000 * time.Millisecond,
	}
}

// ScheduleFrom builds a Schedule from four offsets in phase order.
func ScheduleFrom(offsets []time.Duration) (Schedule, error) {
	if len(offsets) != 4 {
		return Schedule{}, fmt.Errorf("schedule needs 4 offsets, got %d", len(offsets))
	}
	s := Schedule{
		Discovering: offsets[0],
		Seeking:     offsets[1],
		Transcoding: offsets[2],
		Done:        offsets[3],
	}
	return s, s.Validate()
}

func (s Schedule) Validate() error {
	prev := time.Duration(-1)
	for _, d := range s.offsets() {
		if d <= prev {
			return ErrScheduleOrder
		}
		prev = d
	}
	return nil
}

func (s Schedule) offsets() []time.Duration {
	return []time.Duration{s.Discovering, s.Seeking, s.Transcoding, s.Done}
}

// ScriptedBackend walks the phases on a fixed schedule. It resolves the
// stream while discovering and, instead of running ffmpeg, writes the plan
// as an sh script into the output directory. The script is the job's
// output file.
type ScriptedBackend struct {
	schedule  Schedule
	resolver  Resolver
	outputDir string
	logger    *slog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func NewScriptedBackend(schedule Schedule, resolver Resolver, outputDir string, logger *slog.Logger) (*ScriptedBackend, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		resolver = StubResolver{}
	}
	return &ScriptedBackend{
		schedule:  schedule,
		resolver:  resolver,
		outputDir: outputDir,
		logger:    logger,
		now:       time.Now,
		after:     time.After,
	}, nil
}

func (b *ScriptedBackend) Clip(ctx context.Context, req Request, emit func(Event)) (*Result, error) {
	start := b.now()
	logger := b.logger.With("job_id", req.JobID, "video_id", req.VideoID)

	send := func(p Phase, err error) {
		ev := Event{JobID: req.JobID, Phase: p, At: b.now()}
		if err != nil {
			ev.Error = err.Error()
		}
		logger.Debug("clip phase", "phase", p)
		if emit != nil {
			emit(ev)
		}
	}
	fail := func(err error) (*Result, error) {
		send(PhaseFailed, err)
		logger.Warn("clip failed", "error", err)
		return nil, err
	}

	send(PhaseQueued, nil)

	if err := b.waitUntil(ctx, start, b.schedule.Discovering); err != nil {
		return fail(err)
	}
	send(PhaseDiscovering, nil)

	stream, err := b.resolver.Resolve(ctx, req.VideoID)
	if err != nil {
		return fail(fmt.Errorf("resolve stream: %w", err))
	}

	if err := b.waitUntil(ctx, start, b.schedule.Seeking); err != nil {
		return fail(err)
	}
	send(PhaseSeeking, nil)

	if err := b.waitUntil(ctx, start, b.schedule.Transcoding); err != nil {
		return fail(err)
	}
	send(PhaseTranscoding, nil)

	name := b.artifactName(req.JobID)
	plan := ffmpeg.NewClipPlan(req.StartTime, req.EndTime, stream.URL, filepath.Join(b.outputDir, name+".mp4"))
	scriptPath := filepath.Join(b.outputDir, name+".sh")
	if err := os.WriteFile(scriptPath, []byte(plan.Script()), 0o755); err != nil {
		return fail(fmt.Errorf("write clip plan: %w", err))
	}

	if err := b.waitUntil(ctx, start, b.schedule.Done); err != nil {
		os.Remove(scriptPath)
		return fail(err)
	}

	result := &Result{
		Command:     plan.Command(),
		CommandLine: plan.String(),
		OutputPath:  scriptPath,
		StreamURL:   stream.URL,
		Title:       stream.Title,
	}
	send(PhaseDone, nil)
	logger.Info("clip planned", "output", result.OutputPath, "elapsed", b.now().Sub(start))
	return result, nil
}

func (b *ScriptedBackend) waitUntil(ctx context.Context, start time.Time, offset time.Duration) error {
	d := start.Add(offset).Sub(b.now())
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.after(d):
		return nil
	}
}

func (b *ScriptedBackend) artifactName(jobID string) string {
	if jobID == "" {
		jobID = uuid.New().String()
	}
	return "clip_" + jobID
}
