// Package session owns the single application state behind the picker UI
// and applies one transition per user action.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ytclipper/clipper-agent/internal/clipper"
	"github.com/ytclipper/clipper-agent/internal/clips"
	"github.com/ytclipper/clipper-agent/internal/highlights"
	"github.com/ytclipper/clipper-agent/internal/timecode"
	"github.com/ytclipper/clipper-agent/internal/videoref"
)

var (
	ErrNoVideo           = errors.New("no video selected")
	ErrAlreadyProcessing = errors.New("a download is already in progress")
	ErrAlreadyAnalyzing  = errors.New("highlight analysis is already in progress")
	ErrPlayerNotReady    = errors.New("player is not ready")
	ErrNoHighlight       = errors.New("no highlight at that index")
)

// Player is the part of the player façade the session drives.
type Player interface {
	Bind(ctx context.Context, videoID string)
	Ready() bool
	CurrentTime() float64
	SeekTo(seconds float64)
}

type Suggester interface {
	Analyze(ctx context.Context, videoURL string) []highlights.Highlight
}

type Downloader interface {
	Run(ctx context.Context, req clips.Request, onEvent func(clipper.Event)) (*clips.Job, error)
}

// Controller serializes state transitions. Background work (downloads and
// suggestions) runs on the base context and is never cancelled by callers.
type Controller struct {
	base       context.Context
	player     Player
	suggester  Suggester
	downloader Downloader
	logger     *slog.Logger

	wg sync.WaitGroup

	// bindMu orders a URL edit's state update with its player bind.
	bindMu sync.Mutex

	mu    sync.Mutex
	state *State
}

func New(base context.Context, player Player, suggester Suggester, downloader Downloader, logger *slog.Logger) *Controller {
	return &Controller{
		base:       base,
		player:     player,
		suggester:  suggester,
		downloader: downloader,
		logger:     logger,
		state:      initialState(),
	}
}

// Snapshot returns a copy the caller may keep.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.state.clone()
}

// Wait blocks until background work has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// updateLocked swaps in a modified copy of the state. Callers hold c.mu.
func (c *Controller) updateLocked(fn func(s *State)) *State {
	next := c.state.clone()
	fn(next)
	next.Revision = c.state.Revision + 1
	c.state = next
	return next
}

func (c *Controller) update(fn func(s *State)) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.updateLocked(fn).clone()
}

// EditURL stores the raw URL, recomputes the video reference and rebinds the
// player to it.
func (c *Controller) EditURL(url string) State {
	id, _ := videoref.ExtractVideoID(url)

	c.bindMu.Lock()
	defer c.bindMu.Unlock()

	var changed bool
	st := c.update(func(s *State) {
		changed = s.VideoID != id
		s.URL = url
		s.VideoID = id
	})

	if changed {
		c.logger.Debug("video reference changed", "video_id", id)
	}
	c.player.Bind(c.base, id)
	return st
}

func (c *Controller) SetStartTime(text string) State {
	return c.update(func(s *State) { s.StartTime = text })
}

func (c *Controller) SetEndTime(text string) State {
	return c.update(func(s *State) { s.EndTime = text })
}

// CaptureStart stores the player's current time as the span start.
func (c *Controller) CaptureStart() (State, error) {
	return c.capture(func(s *State, ts string) { s.StartTime = ts })
}

// CaptureEnd stores the player's current time as the span end.
func (c *Controller) CaptureEnd() (State, error) {
	return c.capture(func(s *State, ts string) { s.EndTime = ts })
}

func (c *Controller) capture(set func(s *State, ts string)) (State, error) {
	if !c.player.Ready() {
		return c.Snapshot(), ErrPlayerNotReady
	}
	ts := timecode.SecondsToTimestamp(c.player.CurrentTime())
	return c.update(func(s *State) { set(s, ts) }), nil
}

// Preview seeks the player to the selected start.
func (c *Controller) Preview() float64 {
	c.mu.Lock()
	start := timecode.TimestampToSeconds(c.state.StartTime)
	c.mu.Unlock()

	c.player.SeekTo(start)
	return start
}

// ApplyHighlight copies h's span into the selection and seeks once to its
// start.
func (c *Controller) ApplyHighlight(h highlights.Highlight) State {
	st := c.update(func(s *State) {
		s.StartTime = h.StartTime
		s.EndTime = h.EndTime
	})
	c.player.SeekTo(timecode.TimestampToSeconds(h.StartTime))
	return st
}

// ApplyHighlightAt applies the highlight at index in the current list.
func (c *Controller) ApplyHighlightAt(index int) (State, error) {
	c.mu.Lock()
	if index < 0 || index >= len(c.state.Highlights) {
		c.mu.Unlock()
		return c.Snapshot(), fmt.Errorf("index %d: %w", index, ErrNoHighlight)
	}
	h := c.state.Highlights[index]
	c.mu.Unlock()

	return c.ApplyHighlight(h), nil
}

// RequestDownload starts the clip job for the current selection. The state
// walks the backend phase messages and ends with IsProcessing cleared.
func (c *Controller) RequestDownload() (State, error) {
	c.mu.Lock()
	cur := c.state
	switch {
	case !cur.HasVideo():
		c.mu.Unlock()
		return c.Snapshot(), ErrNoVideo
	case cur.IsProcessing:
		c.mu.Unlock()
		return c.Snapshot(), ErrAlreadyProcessing
	}
	if err := cur.Span().Validate(); err != nil {
		st := *c.updateLocked(func(s *State) { s.StatusMessage = StatusInvalidSpan }).clone()
		c.mu.Unlock()
		return st, err
	}

	req := clips.Request{VideoID: cur.VideoID, URL: cur.URL, Span: cur.Span()}
	st := *c.updateLocked(func(s *State) {
		s.IsProcessing = true
		s.StatusMessage = StatusQueued
		s.JobID = ""
		s.Command = ""
		s.OutputPath = ""
	}).clone()
	c.mu.Unlock()

	c.logger.Info("download requested", "video_id", req.VideoID, "start", req.StartTime, "end", req.EndTime)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runDownload(req)
	}()
	return st, nil
}

func (c *Controller) runDownload(req clips.Request) {
	job, err := c.downloader.Run(c.base, req, func(ev clipper.Event) {
		if ev.Phase.Terminal() {
			return
		}
		c.update(func(s *State) {
			s.JobID = ev.JobID
			s.StatusMessage = StatusFor(ev.Phase)
		})
	})

	c.update(func(s *State) {
		s.IsProcessing = false
		if job != nil {
			s.JobID = job.ID
		}
		if err != nil {
			s.StatusMessage = StatusFailed
			return
		}
		s.StatusMessage = StatusDone
		s.Command = job.Command
		s.OutputPath = job.OutputPath
	})

	if err != nil {
		c.logger.Error("download failed", "video_id", req.VideoID, "error", err)
		return
	}
	c.logger.Info("download finished", "video_id", req.VideoID, "job_id", job.ID)
}

// RequestSuggestions asks the suggester for highlights of the current video.
// A second request while one is in flight returns ErrAlreadyAnalyzing.
func (c *Controller) RequestSuggestions() (State, error) {
	c.mu.Lock()
	switch {
	case !c.state.HasVideo():
		c.mu.Unlock()
		return c.Snapshot(), ErrNoVideo
	case c.state.IsAnalyzing:
		c.mu.Unlock()
		return c.Snapshot(), ErrAlreadyAnalyzing
	}
	url := c.state.URL
	st := *c.updateLocked(func(s *State) { s.IsAnalyzing = true }).clone()
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result := c.suggester.Analyze(c.base, url)
		c.update(func(s *State) {
			s.Highlights = result
			s.IsAnalyzing = false
		})
		c.logger.Info("highlights updated", "count", len(result))
	}()
	return st, nil
}
