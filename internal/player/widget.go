// Package player wraps an embeddable video player widget behind a stable
// control surface. The widget library loads asynchronously and widgets may
// not exist yet when control calls arrive; the façade tolerates both.
package player

import (
	"errors"
	"fmt"
)

// ErrDestroyed is returned by widgets used after Destroy.
var ErrDestroyed = errors.New("player widget destroyed")

// Widget error codes reported through ErrorFunc.
const (
	ErrorInvalidParam      = 2
	ErrorHTML5             = 5
	ErrorNotFound          = 100
	ErrorEmbedNotAllowed   = 101
	ErrorEmbedNotAllowedV2 = 150
)

// Options is the playback-options bag handed to the widget constructor.
type Options struct {
	EnableJSAPI    bool   `json:"enablejsapi"`
	Origin         string `json:"origin"`
	ModestBranding bool   `json:"modestbranding"`
	Rel            bool   `json:"rel"`
}

// DefaultOptions enables the JS API and hides related videos.
func DefaultOptions(origin string) Options {
	return Options{
		EnableJSAPI:    true,
		Origin:         origin,
		ModestBranding: true,
		Rel:            false,
	}
}

// PlayerVars renders the options in the widget's own vocabulary.
func (o Options) PlayerVars() map[string]any {
	return map[string]any{
		"enablejsapi":    boolToInt(o.EnableJSAPI),
		"origin":         o.Origin,
		"modestbranding": boolToInt(o.ModestBranding),
		"rel":            boolToInt(o.Rel),
	}
}

// ErrorFunc receives playback error codes raised by a widget.
type ErrorFunc func(code int)

// Widget is the capability set consumed from the third-party player.
type Widget interface {
	CurrentTime() (float64, error)
	SeekTo(seconds float64, allowSeekAhead bool) error
	PlayVideo() error
	PauseVideo() error
	Destroy() error
}

// Library constructs widgets once it has finished loading.
type Library interface {
	NewWidget(mount, videoID string, opts Options, onError ErrorFunc) (Widget, error)
}

// ErrorText describes a widget error code.
func ErrorText(code int) string {
	switch code {
	case ErrorInvalidParam:
		return "invalid parameter"
	case ErrorHTML5:
		return "html5 player error"
	case ErrorNotFound:
		return "video not found"
	case ErrorEmbedNotAllowed, ErrorEmbedNotAllowedV2:
		return "embedding not allowed"
	default:
		return fmt.Sprintf("unknown error %d", code)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
