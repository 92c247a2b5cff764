package clipper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kkdai/youtube/v2"
)

var ErrNoPlayableFormat = errors.New("no format with audio available")

// YouTubeResolver looks up video metadata and a progressive stream URL. It
// never reads media bytes.
type YouTubeResolver struct {
	client *youtube.Client
	logger *slog.Logger
}

func NewYouTubeResolver(timeout time.Duration, logger *slog.Logger) *YouTubeResolver {
	return &YouTubeResolver{
		client: &youtube.Client{
			HTTPClient: &http.Client{Timeout: timeout},
		},
		logger: logger,
	}
}

func (r *YouTubeResolver) Resolve(ctx context.Context, videoID string) (*Stream, error) {
	video, err := r.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch video %s: %w", videoID, describe(err))
	}

	formats := video.Formats.Type("video/mp4").WithAudioChannels()
	if len(formats) == 0 {
		formats = video.Formats.WithAudioChannels()
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNoPlayableFormat)
	}

	url, err := r.client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return nil, fmt.Errorf("stream url %s: %w", videoID, describe(err))
	}

	r.logger.Debug("stream resolved", "video_id", videoID, "itag", formats[0].ItagNo, "mime", formats[0].MimeType)

	return &Stream{
		VideoID:    videoID,
		URL:        url,
		Title:      video.Title,
		Duration:   video.Duration,
		ResolvedAt: time.Now(),
	}, nil
}

func describe(err error) error {
	switch {
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return fmt.Errorf("restricted content: %w", err)
	}
	var status *youtube.ErrPlayabiltyStatus
	if errors.As(err, &status) {
		return fmt.Errorf("not playable: %w", err)
	}
	return err
}
