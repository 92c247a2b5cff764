// Package highlights asks a generative model for interesting segments of a
// video. Every failure collapses into a fixed fallback list so callers never
// see an error.
package highlights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ytclipper/clipper-agent/internal/timecode"
)

// Highlight is a suggested segment. Order in a list is relevance order.
type Highlight struct {
	timecode.Span
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Generator performs one structured-output round trip and returns the raw
// JSON text of the response.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	errMissingField = errors.New("suggestion missing required field")
	errNotArray     = errors.New("suggestions are not an array")
)

// suggestion mirrors the response schema.
type suggestion struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Fallback returns the list used whenever analysis fails.
func Fallback() []Highlight {
	return []Highlight{
		{
			Span:        timecode.Span{StartTime: "00:00", EndTime: "00:30"},
			Label:       "Initial Catch",
			Description: "The video opening.",
		},
		{
			Span:        timecode.Span{StartTime: "01:00", EndTime: "01:45"},
			Label:       "Main Content",
			Description: "The core discussion.",
		},
	}
}

// Prompt builds the instruction sent with a video URL.
func Prompt(videoURL string) string {
	return fmt.Sprintf(`I have a YouTube video at %s. Please act as an expert video editor.
Identify 3 likely high-quality segments for this video (e.g., intro, main point, conclusion).
Return the response in JSON format.`, videoURL)
}

type Client struct {
	gen    Generator
	logger *slog.Logger
}

// NewClient returns a client backed by gen. A nil gen makes every call
// return the fallback list.
func NewClient(gen Generator, logger *slog.Logger) *Client {
	return &Client{gen: gen, logger: logger}
}

// Analyze returns suggested highlights for videoURL.
func (c *Client) Analyze(ctx context.Context, videoURL string) []Highlight {
	if c.gen == nil {
		c.logger.Warn("highlight analysis unavailable, using fallback", "reason", "no generator configured")
		return Fallback()
	}

	text, err := c.gen.Generate(ctx, Prompt(videoURL))
	if err != nil {
		c.logger.Error("highlight analysis failed", "error", err)
		return Fallback()
	}

	result, err := Parse(text)
	if err != nil {
		c.logger.Error("highlight analysis failed", "error", err, "response_bytes", len(text))
		return Fallback()
	}

	c.logger.Info("highlight analysis completed", "count", len(result))
	return result
}

// Parse decodes a generator response into highlights, enforcing the
// required fields of the response schema.
func Parse(text string) ([]Highlight, error) {
	var items []suggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &items); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	if items == nil {
		return nil, errNotArray
	}

	result := make([]Highlight, 0, len(items))
	for i, it := range items {
		if it.StartTime == "" || it.EndTime == "" || it.Label == "" || it.Description == "" {
			return nil, fmt.Errorf("item %d: %w", i, errMissingField)
		}
		result = append(result, Highlight{
			Span:        timecode.Span{StartTime: it.StartTime, EndTime: it.EndTime},
			Label:       it.Label,
			Description: it.Description,
		})
	}
	return result, nil
}
