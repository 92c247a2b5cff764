package clipper

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// PlaceholderURL stands in for a stream URL when no resolution happens.
const PlaceholderURL = "[URL]"

const defaultResolveTTL = 5 * time.Minute

type Stream struct {
	VideoID    string        `json:"video_id"`
	URL        string        `json:"url"`
	Title      string        `json:"title,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	ResolvedAt time.Time     `json:"resolved_at"`
}

type Resolver interface {
	Resolve(ctx context.Context, videoID string) (*Stream, error)
}

// StubResolver returns the placeholder input without touching the network.
type StubResolver struct{}

func (StubResolver) Resolve(ctx context.Context, videoID string) (*Stream, error) {
	return &Stream{VideoID: videoID, URL: PlaceholderURL, ResolvedAt: time.Now()}, nil
}

// CachedResolver caches resolutions per video with a TTL. When a refresh
// fails and a stale entry exists, the stale entry is returned.
type CachedResolver struct {
	inner  Resolver
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]*Stream
}

func NewCachedResolver(inner Resolver, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	if ttl <= 0 {
		ttl = defaultResolveTTL
	}
	return &CachedResolver{
		inner:   inner,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*Stream),
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, videoID string) (*Stream, error) {
	c.mu.RLock()
	s, ok := c.entries[videoID]
	if ok && c.now().Sub(s.ResolvedAt) < c.ttl {
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	return c.Refresh(ctx, videoID)
}

func (c *CachedResolver) Peek(videoID string) *Stream {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[videoID]
}

// Refresh resolves videoID regardless of cache freshness.
func (c *CachedResolver) Refresh(ctx context.Context, videoID string) (*Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.inner.Resolve(ctx, videoID)
	if err != nil {
		c.logger.Warn("stream resolve failed", "video_id", videoID, "error", err)
		if stale, ok := c.entries[videoID]; ok {
			c.logger.Info("returning stale stream", "video_id", videoID)
			return stale, nil
		}
		return nil, err
	}

	if s.ResolvedAt.IsZero() {
		s.ResolvedAt = c.now()
	}
	c.entries[videoID] = s
	return s, nil
}

func (c *CachedResolver) Invalidate(videoID string) {
	c.mu.Lock()
	delete(c.entries, videoID)
	c.mu.Unlock()
}
