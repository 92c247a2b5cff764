package player

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"
)

// VirtualLibrary builds in-process widgets whose playhead advances with
// the clock while playing. The browser drives them through the API.
type VirtualLibrary struct {
	now    func() time.Time
	logger *slog.Logger

	mu   sync.Mutex
	live int
}

func NewVirtualLibrary(now func() time.Time, logger *slog.Logger) *VirtualLibrary {
	if now == nil {
		now = time.Now
	}
	return &VirtualLibrary{now: now, logger: logger}
}

// Load satisfies LoadFunc; the virtual library is available immediately.
func (l *VirtualLibrary) Load(ctx context.Context) (Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *VirtualLibrary) NewWidget(mount, videoID string, opts Options, onError ErrorFunc) (Widget, error) {
	l.mu.Lock()
	l.live++
	l.mu.Unlock()

	w := &virtualWidget{lib: l, videoID: videoID}
	l.logger.Debug("virtual widget created", "mount", mount, "video_id", videoID, "vars", opts.PlayerVars())

	if utf8.RuneCountInString(videoID) != 11 && onError != nil {
		onError(ErrorInvalidParam)
	}
	return w, nil
}

// Live returns the number of widgets not yet destroyed.
func (l *VirtualLibrary) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

type virtualWidget struct {
	lib     *VirtualLibrary
	videoID string

	mu        sync.Mutex
	position  float64
	playing   bool
	since     time.Time
	destroyed bool
}

func (w *virtualWidget) currentLocked() float64 {
	if !w.playing {
		return w.position
	}
	return w.position + w.lib.now().Sub(w.since).Seconds()
}

func (w *virtualWidget) CurrentTime() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return 0, ErrDestroyed
	}
	return w.currentLocked(), nil
}

// SeekTo moves the playhead. allowSeekAhead has no effect on a virtual
// widget since nothing is buffered.
func (w *virtualWidget) SeekTo(seconds float64, allowSeekAhead bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	if seconds < 0 {
		seconds = 0
	}
	w.position = seconds
	if w.playing {
		w.since = w.lib.now()
	}
	return nil
}

func (w *virtualWidget) PlayVideo() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	if !w.playing {
		w.playing = true
		w.since = w.lib.now()
	}
	return nil
}

func (w *virtualWidget) PauseVideo() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	if w.playing {
		w.position = w.currentLocked()
		w.playing = false
	}
	return nil
}

func (w *virtualWidget) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	w.destroyed = true

	w.lib.mu.Lock()
	w.lib.live--
	w.lib.mu.Unlock()
	return nil
}
