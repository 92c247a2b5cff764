// Package clips keeps the ledger of clip jobs handed to the backend and runs
// them, either inline for the session or from the pending queue.
package clips

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ytclipper/clipper-agent/internal/clipper"
	"github.com/ytclipper/clipper-agent/internal/timecode"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

var (
	ErrMissingVideo = errors.New("video id is required")
	ErrJobNotFound  = errors.New("job not found")
)

type Job struct {
	ID         string        `json:"id"`
	VideoID    string        `json:"video_id"`
	URL        string        `json:"url,omitempty"`
	StartTime  string        `json:"start_time"`
	EndTime    string        `json:"end_time"`
	Status     string        `json:"status"`
	Phase      clipper.Phase `json:"phase"`
	Error      string        `json:"error,omitempty"`
	Command    string        `json:"command,omitempty"`
	OutputPath string        `json:"output_path,omitempty"`
	Title      string        `json:"title,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Span returns the job's segment.
func (j *Job) Span() timecode.Span {
	return timecode.Span{StartTime: j.StartTime, EndTime: j.EndTime}
}

func (j *Job) request() clipper.Request {
	return clipper.Request{
		JobID:     j.ID,
		VideoID:   j.VideoID,
		URL:       j.URL,
		StartTime: j.StartTime,
		EndTime:   j.EndTime,
	}
}

// Request is what a caller supplies to create a job.
type Request struct {
	VideoID string `json:"video_id"`
	URL     string `json:"url"`
	timecode.Span
}

func (r Request) Validate() error {
	if r.VideoID == "" {
		return ErrMissingVideo
	}
	return r.Span.Validate()
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func NewID() string {
	return uuid.NewString()
}
