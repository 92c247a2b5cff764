// Package export renders the session's selection and highlights as a
// CMX3600 edit decision list against the video's watch URL.
package export

import (
	"github.com/ytclipper/clipper-agent/internal/highlights"
	"github.com/ytclipper/clipper-agent/internal/timecode"
	"github.com/ytclipper/clipper-agent/internal/videoref"
)

const (
	DefaultFrameRate   = 30.0
	DefaultProjectName = "clipper_export"
	SelectionName      = "Selection"

	// reelWidth is the reel column width of a CMX3600 event line.
	reelWidth = 8
)

type ExportRequest struct {
	ProjectName       string  `json:"project_name"`
	Format            string  `json:"format"`
	FrameRate         float64 `json:"frame_rate"`
	OutputDir         string  `json:"output_dir"`
	IncludeHighlights bool    `json:"include_highlights"`
}

type ExportResponse struct {
	Status     string   `json:"status"`
	Format     string   `json:"format"`
	OutputPath string   `json:"output_path"`
	ClipCount  int      `json:"clip_count"`
	Skipped    []string `json:"skipped"`
}

// Segment is one event cut from a video. In and Out are source offsets in
// seconds.
type Segment struct {
	Name    string
	Comment string
	Reel    string
	Source  string
	In      float64
	Out     float64
}

// Duration is Out minus In.
func (s Segment) Duration() float64 { return s.Out - s.In }

// Reel derives the reel name of a video from its id.
func Reel(videoID string) string {
	runes := []rune(videoID)
	if len(runes) > reelWidth {
		runes = runes[:reelWidth]
	}
	if len(runes) == 0 {
		return "AX"
	}
	return string(runes)
}

// Collect builds segments for the selection followed by each highlight,
// all cut from videoID. Names of spans that do not end after they start
// are returned in skipped.
func Collect(videoID string, selection timecode.Span, hs []highlights.Highlight) (segments []Segment, skipped []string) {
	skipped = []string{}
	reel, source := Reel(videoID), videoref.WatchURL(videoID)

	add := func(name, comment string, span timecode.Span) {
		in, out := span.Seconds()
		if out <= in {
			skipped = append(skipped, name)
			return
		}
		segments = append(segments, Segment{
			Name:    commentText(name),
			Comment: commentText(comment),
			Reel:    reel,
			Source:  source,
			In:      in,
			Out:     out,
		})
	}

	add(SelectionName, "", selection)
	for _, h := range hs {
		add(h.Label, h.Description, h.Span)
	}
	return segments, skipped
}
