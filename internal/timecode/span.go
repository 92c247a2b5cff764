package timecode

import "errors"

// ErrInvertedSpan is returned when a span does not end after it starts.
var ErrInvertedSpan = errors.New("segment end must be after start")

// Default selection for a fresh session.
const (
	DefaultStartTime = "00:00"
	DefaultEndTime   = "00:10"
)

// Span is a start/end pair in display form.
type Span struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Seconds returns both ends of the span parsed to seconds.
func (s Span) Seconds() (start, end float64) {
	return TimestampToSeconds(s.StartTime), TimestampToSeconds(s.EndTime)
}

// Validate reports ErrInvertedSpan when end <= start.
func (s Span) Validate() error {
	start, end := s.Seconds()
	if end <= start {
		return ErrInvertedSpan
	}
	return nil
}
