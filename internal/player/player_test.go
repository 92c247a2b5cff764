package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWidget struct {
	lib     *fakeLibrary
	videoID string
	time    float64
}

func (w *fakeWidget) CurrentTime() (float64, error) {
	w.lib.record("time " + w.videoID)
	return w.time, nil
}

func (w *fakeWidget) SeekTo(seconds float64, allowSeekAhead bool) error {
	w.lib.record(fmt.Sprintf("seek %s %v %v", w.videoID, seconds, allowSeekAhead))
	return nil
}

func (w *fakeWidget) PlayVideo() error {
	w.lib.record("play " + w.videoID)
	return nil
}

func (w *fakeWidget) PauseVideo() error {
	w.lib.record("pause " + w.videoID)
	return nil
}

func (w *fakeWidget) Destroy() error {
	w.lib.record("destroy " + w.videoID)
	return nil
}

type fakeLibrary struct {
	mu      sync.Mutex
	calls   []string
	onError ErrorFunc
	failNew bool
	time    float64
}

func (l *fakeLibrary) record(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *fakeLibrary) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *fakeLibrary) NewWidget(mount, videoID string, opts Options, onError ErrorFunc) (Widget, error) {
	if l.failNew {
		return nil, errors.New("boom")
	}
	l.record("new " + videoID)
	l.mu.Lock()
	l.onError = onError
	l.mu.Unlock()
	return &fakeWidget{lib: l, videoID: videoID, time: l.time}, nil
}

// readyLoader returns a loader whose library is already loaded.
func readyLoader(t *testing.T, lib Library) *Loader {
	t.Helper()
	loader := NewLoader(func(ctx context.Context) (Library, error) { return lib, nil }, testLogger())
	loader.Load(context.Background())
	waitFor(t, loader.Ready)
	return loader
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPlayer_BindCreatesWidget(t *testing.T) {
	lib := &fakeLibrary{}
	p := New(readyLoader(t, lib), "player-container", DefaultOptions("http://localhost"), testLogger())

	p.Bind(context.Background(), "dQw4w9WgXcQ")

	if !p.Ready() {
		t.Fatal("player should be ready after binding with a loaded library")
	}
	if got := lib.Calls(); len(got) != 1 || got[0] != "new dQw4w9WgXcQ" {
		t.Fatalf("calls = %v, want [new dQw4w9WgXcQ]", got)
	}
}

func TestPlayer_RebindDestroysBeforeCreate(t *testing.T) {
	lib := &fakeLibrary{}
	p := New(readyLoader(t, lib), "m", Options{}, testLogger())

	p.Bind(context.Background(), "aaaaaaaaaaa")
	p.Bind(context.Background(), "bbbbbbbbbbb")

	want := []string{"new aaaaaaaaaaa", "destroy aaaaaaaaaaa", "new bbbbbbbbbbb"}
	got := lib.Calls()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestPlayer_BindSameIDIsNoop(t *testing.T) {
	lib := &fakeLibrary{}
	p := New(readyLoader(t, lib), "m", Options{}, testLogger())

	p.Bind(context.Background(), "aaaaaaaaaaa")
	p.Bind(context.Background(), "aaaaaaaaaaa")

	if got := lib.Calls(); len(got) != 1 {
		t.Fatalf("calls = %v, want a single construction", got)
	}
}

func TestPlayer_BindEmptyUnbinds(t *testing.T) {
	lib := &fakeLibrary{}
	p := New(readyLoader(t, lib), "m", Options{}, testLogger())

	p.Bind(context.Background(), "aaaaaaaaaaa")
	p.Bind(context.Background(), "")

	if p.Ready() {
		t.Fatal("player should not be ready after unbinding")
	}
	got := lib.Calls()
	if got[len(got)-1] != "destroy aaaaaaaaaaa" {
		t.Fatalf("last call = %q, want destroy", got[len(got)-1])
	}
}

func TestPlayer_Close(t *testing.T) {
	lib := &fakeLibrary{}
	p := New(readyLoader(t, lib), "m", Options{}, testLogger())

	p.Bind(context.Background(), "aaaaaaaaaaa")
	p.Close()

	if p.Ready() {
		t.Fatal("player should not be ready after Close")
	}
	if p.VideoID() != "" {
		t.Fatalf("VideoID() = %q, want empty", p.VideoID())
	}
	got := lib.Calls()
	if got[len(got)-1] != "destroy aaaaaaaaaaa" {
		t.Fatalf("calls = %v, want trailing destroy", got)
	}
}

func TestPlayer_SeekToPlays(t *testing.T) {
	lib := &fakeLibrary{}
	p := New(readyLoader(t, lib), "m", Options{}, testLogger())
	p.Bind(context.Background(), "aaaaaaaaaaa")

	p.SeekTo(60)

	got := lib.Calls()[1:]
	want := []string{"seek aaaaaaaaaaa 60 true", "play aaaaaaaaaaa"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestPlayer_OperationsWithoutWidget(t *testing.T) {
	p := New(NewLoader(func(ctx context.Context) (Library, error) {
		return nil, errors.New("never loads")
	}, testLogger()), "m", Options{}, testLogger())

	if got := p.CurrentTime(); got != 0 {
		t.Errorf("CurrentTime() = %v, want 0", got)
	}
	p.SeekTo(10)
	p.Play()
	p.Pause()
	p.Close()
}

func TestPlayer_CurrentTime(t *testing.T) {
	lib := &fakeLibrary{time: 42.5}
	p := New(readyLoader(t, lib), "m", Options{}, testLogger())
	p.Bind(context.Background(), "aaaaaaaaaaa")

	if got := p.CurrentTime(); got != 42.5 {
		t.Fatalf("CurrentTime() = %v, want 42.5", got)
	}
}

func TestPlayer_WaitsForLibrary(t *testing.T) {
	lib := &fakeLibrary{}
	release := make(chan struct{})
	loads := 0
	var mu sync.Mutex

	loader := NewLoader(func(ctx context.Context) (Library, error) {
		mu.Lock()
		loads++
		mu.Unlock()
		<-release
		return lib, nil
	}, testLogger())

	p := New(loader, "m", Options{}, testLogger())
	p.Bind(context.Background(), "aaaaaaaaaaa")
	p.Bind(context.Background(), "bbbbbbbbbbb")

	if p.Ready() {
		t.Fatal("player should not be ready before the library loads")
	}
	p.Play()

	close(release)
	waitFor(t, p.Ready)

	got := lib.Calls()
	if len(got) != 1 || got[0] != "new bbbbbbbbbbb" {
		t.Fatalf("calls = %v, want only the latest binding constructed", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if loads != 1 {
		t.Fatalf("library loaded %d times, want 1", loads)
	}
}

func TestPlayer_CreateFailureLeavesEmpty(t *testing.T) {
	lib := &fakeLibrary{failNew: true}
	p := New(readyLoader(t, lib), "m", Options{}, testLogger())

	p.Bind(context.Background(), "aaaaaaaaaaa")

	if p.Ready() {
		t.Fatal("player should not be ready when construction fails")
	}

	lib.failNew = false
	p.Bind(context.Background(), "aaaaaaaaaaa")
	if !p.Ready() {
		t.Fatal("binding the same id again should retry construction")
	}
}

func TestPlayer_BindSameIDRetriesFailedLoad(t *testing.T) {
	var attempts atomic.Int32
	lib := &fakeLibrary{}
	loader := NewLoader(func(ctx context.Context) (Library, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("network down")
		}
		return lib, nil
	}, testLogger())
	p := New(loader, "m", Options{}, testLogger())

	p.Bind(context.Background(), "aaaaaaaaaaa")
	waitFor(t, func() bool { return attempts.Load() == 1 })

	waitFor(t, func() bool {
		p.Bind(context.Background(), "aaaaaaaaaaa")
		return p.Ready()
	})
	if got := lib.Calls(); len(got) != 1 || got[0] != "new aaaaaaaaaaa" {
		t.Fatalf("calls = %v, want a single construction", got)
	}
}

func TestPlayer_ErrorsAreLogged(t *testing.T) {
	var buf strings.Builder
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &mu}, nil))

	lib := &fakeLibrary{}
	p := New(readyLoader(t, lib), "m", Options{}, logger)
	p.Bind(context.Background(), "aaaaaaaaaaa")

	lib.mu.Lock()
	onError := lib.onError
	lib.mu.Unlock()
	onError(ErrorNotFound)

	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(buf.String(), "video not found") {
		t.Fatalf("log output %q does not mention the error", buf.String())
	}
	if !p.Ready() {
		t.Fatal("player error should not tear down the widget")
	}
}

type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
