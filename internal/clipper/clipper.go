// Package clipper runs a clip request through the backend phase sequence
// and produces the transcoder command plan for it.
package clipper

import (
	"context"
	"time"
)

type Phase string

const (
	PhaseQueued      Phase = "queued"
	PhaseDiscovering Phase = "discovering"
	PhaseSeeking     Phase = "seeking"
	PhaseTranscoding Phase = "transcoding"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// Terminal reports whether no further phase can follow p.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

type Event struct {
	JobID string    `json:"job_id"`
	Phase Phase     `json:"phase"`
	At    time.Time `json:"at"`
	Error string    `json:"error,omitempty"`
}

type Request struct {
	JobID     string
	VideoID   string
	URL       string
	StartTime string
	EndTime   string
}

type Result struct {
	Command     []string `json:"command"`
	CommandLine string   `json:"command_line"`
	OutputPath  string   `json:"output_path"`
	StreamURL   string   `json:"stream_url"`
	Title       string   `json:"title,omitempty"`
}

// Backend executes one clip request. emit is called synchronously from the
// backend's goroutine, in phase order, ending with done or failed.
type Backend interface {
	Clip(ctx context.Context, req Request, emit func(Event)) (*Result, error)
}
