package session

import (
	"slices"

	"github.com/ytclipper/clipper-agent/internal/clipper"
	"github.com/ytclipper/clipper-agent/internal/highlights"
	"github.com/ytclipper/clipper-agent/internal/timecode"
)

// Status messages shown while a clip request moves through the backend.
const (
	StatusQueued      = "Sending request to FFmpeg backend..."
	StatusDiscovering = "Backend: Spawning yt-dlp to find media streams..."
	StatusSeeking     = "Backend: FFmpeg seeking to segment (fast-seek mode)..."
	StatusTranscoding = "Backend: Transcoding frame-accurate libx264 clip..."
	StatusDone        = "Success! File ready for download."
	StatusFailed      = "Error processing video."
	StatusInvalidSpan = "Invalid segment: end must be after start."
)

// StatusFor maps a backend phase to its user-facing message.
func StatusFor(p clipper.Phase) string {
	switch p {
	case clipper.PhaseQueued:
		return StatusQueued
	case clipper.PhaseDiscovering:
		return StatusDiscovering
	case clipper.PhaseSeeking:
		return StatusSeeking
	case clipper.PhaseTranscoding:
		return StatusTranscoding
	case clipper.PhaseDone:
		return StatusDone
	default:
		return StatusFailed
	}
}

// State is one immutable snapshot of the session. VideoID is empty when the
// URL does not resolve to a video.
type State struct {
	Revision      uint64                 `json:"revision"`
	URL           string                 `json:"url"`
	VideoID       string                 `json:"video_id"`
	StartTime     string                 `json:"start_time"`
	EndTime       string                 `json:"end_time"`
	IsProcessing  bool                   `json:"is_processing"`
	StatusMessage string                 `json:"status_message"`
	Highlights    []highlights.Highlight `json:"highlights"`
	IsAnalyzing   bool                   `json:"is_analyzing"`
	JobID         string                 `json:"job_id,omitempty"`
	Command       string                 `json:"command,omitempty"`
	OutputPath    string                 `json:"output_path,omitempty"`
}

func initialState() *State {
	return &State{
		StartTime:  timecode.DefaultStartTime,
		EndTime:    timecode.DefaultEndTime,
		Highlights: []highlights.Highlight{},
	}
}

func (s *State) Span() timecode.Span {
	return timecode.Span{StartTime: s.StartTime, EndTime: s.EndTime}
}

func (s *State) HasVideo() bool {
	return s.VideoID != ""
}

func (s *State) clone() *State {
	c := *s
	c.Highlights = slices.Clone(s.Highlights)
	if c.Highlights == nil {
		c.Highlights = []highlights.Highlight{}
	}
	return &c
}
