package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ytclipper/clipper-agent/internal/clipper"
	"github.com/ytclipper/clipper-agent/internal/clips"
	"github.com/ytclipper/clipper-agent/internal/player"
	"github.com/ytclipper/clipper-agent/internal/session"
	"github.com/ytclipper/clipper-agent/internal/static"
)

// PlayerControl is the player façade as the HTTP layer sees it.
type PlayerControl interface {
	player.Handle
	Ready() bool
	VideoID() string
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	OutputDir  string
	Session    *session.Controller
	Player     PlayerControl
	Clips      clips.ClipService
	Repository clips.Repository
	Runner     *clips.Runner
	Streams    *clipper.CachedResolver
	Static     *static.Server
	HasAI      bool
	// AllowedOrigins are accepted by CORS in addition to loopback origins.
	AllowedOrigins []string
	Logger         *slog.Logger
	StartTime      time.Time
	DeviceID       string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
