package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ytclipper/clipper-agent/internal/api"
	"github.com/ytclipper/clipper-agent/internal/clipper"
	"github.com/ytclipper/clipper-agent/internal/clips"
	"github.com/ytclipper/clipper-agent/internal/config"
	"github.com/ytclipper/clipper-agent/internal/db"
	"github.com/ytclipper/clipper-agent/internal/highlights"
	"github.com/ytclipper/clipper-agent/internal/logging"
	"github.com/ytclipper/clipper-agent/internal/player"
	"github.com/ytclipper/clipper-agent/internal/session"
	"github.com/ytclipper/clipper-agent/internal/static"
)

const (
	streamCacheTTL  = 30 * time.Minute
	resolveTimeout  = 20 * time.Second
	shutdownTimeout = 10 * time.Second
	playerMount     = "player"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	outputDir, err := filepath.Abs(cfg.OutputDir())
	if err != nil {
		return fmt.Errorf("failed to resolve output dir: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipper agent",
		"version", config.Version,
		"data_dir", cfg.DataDir(),
		"output_dir", outputDir,
		"config_file", cfg.Source(),
	)

	database, err := db.Open(cfg.DataDir(), logging.WithComponent(logger, "db"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := clips.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  CLIPPER AGENT v%-26s║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var resolver clipper.Resolver = clipper.StubResolver{}
	var streams *clipper.CachedResolver
	if cfg.ResolveStreams() {
		yt := clipper.NewYouTubeResolver(resolveTimeout, logging.WithComponent(logger, "youtube"))
		streams = clipper.NewCachedResolver(yt, streamCacheTTL, logger)
		resolver = streams
		logger.Info("stream resolution enabled")
	}

	schedule, err := clipper.ScheduleFrom(cfg.DownloadSchedule())
	if err != nil {
		return fmt.Errorf("invalid download schedule: %w", err)
	}
	backend, err := clipper.NewScriptedBackend(schedule, resolver, outputDir, logging.WithComponent(logger, "clipper"))
	if err != nil {
		return fmt.Errorf("failed to create clip backend: %w", err)
	}

	clipService := clips.NewService(repo, backend, logging.WithComponent(logger, "clips"))
	runner := clips.NewRunner(clipService, repo, logging.WithComponent(logger, "runner"))
	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		runner.Start(ctx)
	}()

	playerLogger := logging.WithComponent(logger, "player")
	library := player.NewVirtualLibrary(time.Now, playerLogger)
	loader := player.NewLoader(library.Load, playerLogger)
	loader.Load(ctx)
	p := player.New(loader, playerMount, player.DefaultOptions(cfg.PlayerOrigin()), playerLogger)

	suggester, hasAI := newSuggester(ctx, cfg, logger)

	ctrl := session.New(ctx, p, suggester, clipService, logging.WithComponent(logger, "session"))

	staticServer := static.NewServer(cfg.StaticDir(), logging.WithComponent(logger, "static"))
	if staticServer.Enabled() {
		logger.Info("serving frontend bundle", "dir", cfg.StaticDir())
	}

	var origins []string
	if cfg.PlayerOrigin() != "" {
		origins = append(origins, cfg.PlayerOrigin())
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		OutputDir:      outputDir,
		Session:        ctrl,
		Player:         p,
		Clips:          clipService,
		Repository:     repo,
		Runner:         runner,
		Streams:        streams,
		Static:         staticServer,
		HasAI:          hasAI,
		AllowedOrigins: origins,
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	cancel()
	// The runner records the outcome of its current job before returning;
	// the database closes only after that.
	<-runnerDone
	ctrl.Wait()
	p.Close()
	loader.Teardown()

	logger.Info("shutdown complete")
	return nil
}

// newSuggester builds the highlight client. Without an API key the client
// always answers with the fallback list.
func newSuggester(ctx context.Context, cfg config.Config, logger *slog.Logger) (*highlights.Client, bool) {
	hlLogger := logging.WithComponent(logger, "highlights")

	if cfg.GeminiAPIKey() == "" {
		logger.Warn("no Gemini API key configured, highlight suggestions use the fallback list")
		return highlights.NewClient(nil, hlLogger), false
	}

	gen, err := highlights.NewGeminiGenerator(ctx, cfg.GeminiAPIKey(), cfg.GeminiModel(), cfg.AITimeout())
	if err != nil {
		logger.Warn("gemini client unavailable, highlight suggestions use the fallback list", "error", err)
		return highlights.NewClient(nil, hlLogger), false
	}

	logger.Info("highlight suggestions enabled",
		"model", gen.Model(),
		"api_key", logging.SanitizeToken(cfg.GeminiAPIKey()),
	)
	return highlights.NewClient(gen, hlLogger), true
}

func ensureDeviceID(repo clips.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo clips.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
