package player

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// LoadFunc loads the widget library. It is called at most once per Loader
// lifetime unless it fails or the Loader is torn down.
type LoadFunc func(ctx context.Context) (Library, error)

// Loader owns the library readiness signal. Subscribers registered before
// the library is ready are called once when it becomes ready; subscribers
// registered afterwards are called immediately.
type Loader struct {
	load   LoadFunc
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	epoch   uint64
	lib     Library
	nextID  int
	waiters map[int]func(Library)
}

func NewLoader(load LoadFunc, logger *slog.Logger) *Loader {
	return &Loader{
		load:    load,
		logger:  logger,
		waiters: make(map[int]func(Library)),
	}
}

// Load starts loading the library. Repeated calls are no-ops.
func (l *Loader) Load(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	epoch := l.epoch
	l.mu.Unlock()

	go l.finish(ctx, epoch)
}

func (l *Loader) finish(ctx context.Context, epoch uint64) {
	lib, err := l.load(ctx)

	l.mu.Lock()
	if epoch != l.epoch {
		l.mu.Unlock()
		return
	}
	if err != nil {
		l.started = false
		l.mu.Unlock()
		l.logger.Error("player library failed to load", "error", err)
		return
	}

	l.lib = lib
	ids := make([]int, 0, len(l.waiters))
	for id := range l.waiters {
		ids = append(ids, id)
	}
	waiters := l.waiters
	l.waiters = make(map[int]func(Library))
	l.mu.Unlock()

	l.logger.Debug("player library ready", "pending_callbacks", len(ids))

	slices.Sort(ids)
	for _, id := range ids {
		waiters[id](lib)
	}
}

// OnReady calls fn with the library as soon as it is available. The
// returned func cancels a callback that has not fired yet.
func (l *Loader) OnReady(fn func(Library)) (cancel func()) {
	l.mu.Lock()
	if l.lib != nil {
		lib := l.lib
		l.mu.Unlock()
		fn(lib)
		return func() {}
	}

	id := l.nextID
	l.nextID++
	l.waiters[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.waiters, id)
		l.mu.Unlock()
	}
}

// Ready reports whether the library has finished loading.
func (l *Loader) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lib != nil
}

// Teardown drops pending callbacks and forgets the loaded library. An
// in-flight load started before Teardown is discarded when it completes.
func (l *Loader) Teardown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	l.started = false
	l.lib = nil
	l.waiters = make(map[int]func(Library))
}
