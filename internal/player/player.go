package player

import (
	"context"
	"log/slog"
	"sync"
)

// Handle is the imperative control surface exposed to callers.
type Handle interface {
	CurrentTime() float64
	SeekTo(seconds float64)
	Play()
	Pause()
}

// Player is the façade over a single widget. It owns the widget for its
// whole life: at most one widget is live at a time and every widget it
// constructs is destroyed before it is dropped.
type Player struct {
	loader *Loader
	mount  string
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	videoID     string
	widget      Widget
	gen         uint64
	settled     uint64 // last generation whose init callback ran
	cancelReady func()
}

var _ Handle = (*Player)(nil)

func New(loader *Loader, mount string, opts Options, logger *slog.Logger) *Player {
	return &Player{
		loader: loader,
		mount:  mount,
		opts:   opts,
		logger: logger,
	}
}

// Bind points the player at videoID. A live widget for a different id is
// destroyed first; an empty id leaves the player empty. Binding the same id
// again only retries a load or construction that has not produced a widget.
func (p *Player) Bind(ctx context.Context, videoID string) {
	p.mu.Lock()
	same := videoID == p.videoID
	switch {
	case same && (videoID == "" || p.widget != nil):
		p.mu.Unlock()
		return
	case same && p.cancelReady != nil:
		// Init is still queued on the loader, which forgets a failed load.
		p.mu.Unlock()
		p.loader.Load(ctx)
		return
	}
	p.teardownLocked()
	p.videoID = videoID
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	if videoID == "" {
		return
	}

	p.loader.Load(ctx)
	cancel := p.loader.OnReady(func(lib Library) {
		p.mountWidget(gen, videoID, lib)
	})

	p.mu.Lock()
	if p.gen == gen && p.settled != gen {
		p.cancelReady = cancel
	} else {
		cancel()
	}
	p.mu.Unlock()
}

func (p *Player) mountWidget(gen uint64, videoID string, lib Library) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		p.logger.Debug("discarding stale player init", "video_id", videoID)
		return
	}
	p.settled = gen
	p.cancelReady = nil

	if p.widget != nil {
		p.destroyLocked()
	}

	w, err := lib.NewWidget(p.mount, videoID, p.opts, p.errorHandler(videoID))
	if err != nil {
		p.logger.Error("failed to create player widget", "video_id", videoID, "error", err)
		return
	}
	p.widget = w
	p.logger.Info("player widget created", "video_id", videoID, "mount", p.mount)
}

func (p *Player) errorHandler(videoID string) ErrorFunc {
	return func(code int) {
		p.logger.Error("player error", "video_id", videoID, "code", code, "reason", ErrorText(code))
	}
}

// Close destroys the live widget, if any, and unbinds the player.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardownLocked()
	p.videoID = ""
	p.gen++
}

func (p *Player) teardownLocked() {
	if p.cancelReady != nil {
		p.cancelReady()
		p.cancelReady = nil
	}
	if p.widget != nil {
		p.destroyLocked()
	}
}

func (p *Player) destroyLocked() {
	if err := p.widget.Destroy(); err != nil {
		p.logger.Warn("failed to destroy player widget", "video_id", p.videoID, "error", err)
	}
	p.widget = nil
}

// Ready reports whether a widget is live.
func (p *Player) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.widget != nil
}

// VideoID returns the bound reference, empty when unbound.
func (p *Player) VideoID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.videoID
}

// Options returns the playback options widgets are created with.
func (p *Player) Options() Options {
	return p.opts
}

// CurrentTime returns the playhead in seconds, or 0 when unavailable.
func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.widget == nil {
		return 0
	}
	t, err := p.widget.CurrentTime()
	if err != nil {
		p.logger.Debug("current time unavailable", "error", err)
		return 0
	}
	return t
}

// SeekTo seeks and resumes playback.
func (p *Player) SeekTo(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.widget == nil {
		return
	}
	if err := p.widget.SeekTo(seconds, true); err != nil {
		p.logger.Warn("seek failed", "seconds", seconds, "error", err)
		return
	}
	if err := p.widget.PlayVideo(); err != nil {
		p.logger.Warn("play after seek failed", "error", err)
	}
}

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.widget == nil {
		return
	}
	if err := p.widget.PlayVideo(); err != nil {
		p.logger.Warn("play failed", "error", err)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.widget == nil {
		return
	}
	if err := p.widget.PauseVideo(); err != nil {
		p.logger.Warn("pause failed", "error", err)
	}
}
