package api

import (
	"time"

	"github.com/ytclipper/clipper-agent/internal/clipper"
	"github.com/ytclipper/clipper-agent/internal/clips"
	"github.com/ytclipper/clipper-agent/internal/highlights"
	"github.com/ytclipper/clipper-agent/internal/session"
	"github.com/ytclipper/clipper-agent/internal/timecode"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State       string                `json:"state"`
	LastError   string                `json:"last_error,omitempty"`
	JobsRunning int                   `json:"jobs_running"`
	JobsPending int                   `json:"jobs_pending"`
	ActiveJob   *ClipJobResponse      `json:"active_job,omitempty"`
	Session     SessionStatusResponse `json:"session"`
	Stream      *StreamResponse       `json:"stream,omitempty"`
	AIEnabled   bool                  `json:"ai_enabled"`
}

type SessionStatusResponse struct {
	VideoID       *string `json:"video_id"`
	IsProcessing  bool    `json:"is_processing"`
	IsAnalyzing   bool    `json:"is_analyzing"`
	StatusMessage string  `json:"status_message"`
}

type StreamResponse struct {
	VideoID    string `json:"video_id"`
	Title      string `json:"title,omitempty"`
	DurationS  int64  `json:"duration_s,omitempty"`
	ResolvedAt string `json:"resolved_at"`
}

type HighlightResponse struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type SessionResponse struct {
	Revision      uint64              `json:"revision"`
	URL           string              `json:"url"`
	VideoID       *string             `json:"video_id"`
	StartTime     string              `json:"start_time"`
	EndTime       string              `json:"end_time"`
	IsProcessing  bool                `json:"is_processing"`
	StatusMessage string              `json:"status_message"`
	Highlights    []HighlightResponse `json:"highlights"`
	IsAnalyzing   bool                `json:"is_analyzing"`
	JobID         string              `json:"job_id,omitempty"`
	Command       string              `json:"command,omitempty"`
	OutputPath    string              `json:"output_path,omitempty"`
}

type URLRequest struct {
	URL string `json:"url"`
}

// SpanRequest edits either bound of the selection. Absent fields are left
// untouched.
type SpanRequest struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

type PreviewResponse struct {
	Seconds   float64 `json:"seconds"`
	Timestamp string  `json:"timestamp"`
}

type PlayerResponse struct {
	Ready       bool    `json:"ready"`
	VideoID     *string `json:"video_id"`
	CurrentTime float64 `json:"current_time"`
	Timestamp   string  `json:"timestamp"`
}

// SeekRequest takes either seconds or a timestamp. Timestamp wins when both
// are set.
type SeekRequest struct {
	Seconds   *float64 `json:"seconds"`
	Timestamp string   `json:"timestamp"`
}

type CreateClipRequest struct {
	URL       string `json:"url"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type ClipJobResponse struct {
	ID         string `json:"id"`
	VideoID    string `json:"video_id"`
	URL        string `json:"url,omitempty"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Status     string `json:"status"`
	Phase      string `json:"phase"`
	Error      string `json:"error,omitempty"`
	Command    string `json:"command,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
	Title      string `json:"title,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ClipJobsResponse struct {
	Jobs []ClipJobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func HighlightToResponse(h highlights.Highlight) HighlightResponse {
	return HighlightResponse{
		StartTime:   h.StartTime,
		EndTime:     h.EndTime,
		Label:       h.Label,
		Description: h.Description,
	}
}

func SessionToResponse(st session.State) SessionResponse {
	hs := make([]HighlightResponse, len(st.Highlights))
	for i, h := range st.Highlights {
		hs[i] = HighlightToResponse(h)
	}
	return SessionResponse{
		Revision:      st.Revision,
		URL:           st.URL,
		VideoID:       nullable(st.VideoID),
		StartTime:     st.StartTime,
		EndTime:       st.EndTime,
		IsProcessing:  st.IsProcessing,
		StatusMessage: st.StatusMessage,
		Highlights:    hs,
		IsAnalyzing:   st.IsAnalyzing,
		JobID:         st.JobID,
		Command:       st.Command,
		OutputPath:    st.OutputPath,
	}
}

func StreamToResponse(s *clipper.Stream) *StreamResponse {
	if s == nil {
		return nil
	}
	return &StreamResponse{
		VideoID:    s.VideoID,
		Title:      s.Title,
		DurationS:  int64(s.Duration.Seconds()),
		ResolvedAt: s.ResolvedAt.Format(time.RFC3339),
	}
}

func ClipJobToResponse(j *clips.Job) ClipJobResponse {
	return ClipJobResponse{
		ID:         j.ID,
		VideoID:    j.VideoID,
		URL:        j.URL,
		StartTime:  j.StartTime,
		EndTime:    j.EndTime,
		Status:     j.Status,
		Phase:      string(j.Phase),
		Error:      j.Error,
		Command:    j.Command,
		OutputPath: j.OutputPath,
		Title:      j.Title,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
}

func playerResponse(p PlayerControl) PlayerResponse {
	now := p.CurrentTime()
	return PlayerResponse{
		Ready:       p.Ready(),
		VideoID:     nullable(p.VideoID()),
		CurrentTime: now,
		Timestamp:   timecode.SecondsToTimestamp(now),
	}
}
