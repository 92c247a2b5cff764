// Package config provides configuration management for the clipper agent.
// Values come from an optional YAML file overlaid by environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort        = 7860
	DefaultLogLevel    = "info"
	DefaultDataDir     = ".clipper"
	DefaultOutputDir   = "temp_clips"
	DefaultGeminiModel = "gemini-3-flash-preview"
	DefaultAITimeout   = 30 // seconds
	DefaultSchedule    = "1000,2500,4000,6000"

	// Environment variable names
	EnvConfigFile     = "CLIPPER_CONFIG"
	EnvPort           = "CLIPPER_PORT"
	EnvLogLevel       = "CLIPPER_LOG_LEVEL"
	EnvDataDir        = "CLIPPER_DATA_DIR"
	EnvStaticDir      = "CLIPPER_STATIC_DIR"
	EnvOutputDir      = "CLIPPER_OUTPUT_DIR"
	EnvPlayerOrigin   = "CLIPPER_PLAYER_ORIGIN"
	EnvGeminiAPIKey   = "CLIPPER_GEMINI_API_KEY"
	EnvGeminiModel    = "CLIPPER_GEMINI_MODEL"
	EnvAITimeout      = "CLIPPER_AI_TIMEOUT_SECONDS"
	EnvResolveStreams = "CLIPPER_RESOLVE_STREAMS"
	EnvSchedule       = "CLIPPER_DOWNLOAD_SCHEDULE_MS"
)

// Fallback names checked, in order, when EnvGeminiAPIKey is unset.
var apiKeyFallbacks = []string{"GEMINI_API_KEY", "API_KEY"}

type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	StaticDir() string
	OutputDir() string
	PlayerOrigin() string
	GeminiAPIKey() string
	GeminiModel() string
	AITimeout() time.Duration
	ResolveStreams() bool
	DownloadSchedule() []time.Duration
}

// FileConfig is the YAML layout. Zero values leave the default in place.
type FileConfig struct {
	Port           int    `yaml:"port"`
	LogLevel       string `yaml:"log_level"`
	DataDir        string `yaml:"data_dir"`
	StaticDir      string `yaml:"static_dir"`
	OutputDir      string `yaml:"output_dir"`
	PlayerOrigin   string `yaml:"player_origin"`
	ResolveStreams *bool  `yaml:"resolve_streams"`
	Gemini         struct {
		APIKey         string `yaml:"api_key"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"gemini"`
	DownloadScheduleMs []int `yaml:"download_schedule_ms"`
}

// EnvConfig reads configuration from the file and environment.
type EnvConfig struct {
	port           int
	logLevel       string
	dataDir        string
	staticDir      string
	outputDir      string
	playerOrigin   string
	geminiAPIKey   string
	geminiModel    string
	aiTimeout      time.Duration
	resolveStreams bool
	schedule       []time.Duration
	source         string
}

// New creates a new EnvConfig with defaults, file values and environment
// variable overrides, in that order of precedence.
func New() (*EnvConfig, error) {
	schedule, _ := parseSchedule(DefaultSchedule)
	cfg := &EnvConfig{
		port:        DefaultPort,
		logLevel:    DefaultLogLevel,
		dataDir:     defaultDataDir(),
		outputDir:   DefaultOutputDir,
		geminiModel: DefaultGeminiModel,
		aiTimeout:   DefaultAITimeout * time.Second,
		schedule:    schedule,
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		fc, err := Load(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.applyFile(fc); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		cfg.source = path
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a YAML config file, expanding ${VAR} references first.
func Load(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &fc, nil
}

func (c *EnvConfig) applyFile(fc *FileConfig) error {
	if fc.Port != 0 {
		if err := validPort(fc.Port); err != nil {
			return err
		}
		c.port = fc.Port
	}
	setString(&c.logLevel, fc.LogLevel)
	setString(&c.dataDir, fc.DataDir)
	setString(&c.staticDir, fc.StaticDir)
	setString(&c.outputDir, fc.OutputDir)
	setString(&c.playerOrigin, fc.PlayerOrigin)
	setString(&c.geminiAPIKey, fc.Gemini.APIKey)
	setString(&c.geminiModel, fc.Gemini.Model)
	if fc.Gemini.TimeoutSeconds > 0 {
		c.aiTimeout = time.Duration(fc.Gemini.TimeoutSeconds) * time.Second
	}
	if fc.ResolveStreams != nil {
		c.resolveStreams = *fc.ResolveStreams
	}
	if len(fc.DownloadScheduleMs) > 0 {
		s, err := scheduleFromMs(fc.DownloadScheduleMs)
		if err != nil {
			return fmt.Errorf("download_schedule_ms: %w", err)
		}
		c.schedule = s
	}
	return nil
}

func (c *EnvConfig) applyEnv() error {
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if err := validPort(port); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.port = port
	}

	setString(&c.logLevel, os.Getenv(EnvLogLevel))
	setString(&c.dataDir, os.Getenv(EnvDataDir))
	setString(&c.staticDir, os.Getenv(EnvStaticDir))
	setString(&c.outputDir, os.Getenv(EnvOutputDir))
	setString(&c.playerOrigin, os.Getenv(EnvPlayerOrigin))
	setString(&c.geminiModel, os.Getenv(EnvGeminiModel))

	if key := os.Getenv(EnvGeminiAPIKey); key != "" {
		c.geminiAPIKey = key
	} else if c.geminiAPIKey == "" {
		for _, name := range apiKeyFallbacks {
			if key := os.Getenv(name); key != "" {
				c.geminiAPIKey = key
				break
			}
		}
	}

	if v := os.Getenv(EnvAITimeout); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid %s: must be a positive number of seconds", EnvAITimeout)
		}
		c.aiTimeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv(EnvResolveStreams); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvResolveStreams, err)
		}
		c.resolveStreams = b
	}

	if v := os.Getenv(EnvSchedule); v != "" {
		s, err := parseSchedule(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSchedule, err)
		}
		c.schedule = s
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir holds the database and auth token.
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// StaticDir is the frontend bundle directory; empty disables it.
func (c *EnvConfig) StaticDir() string {
	return c.staticDir
}

func (c *EnvConfig) OutputDir() string {
	return c.outputDir
}

func (c *EnvConfig) PlayerOrigin() string {
	return c.playerOrigin
}

func (c *EnvConfig) GeminiAPIKey() string {
	return c.geminiAPIKey
}

func (c *EnvConfig) GeminiModel() string {
	return c.geminiModel
}

func (c *EnvConfig) AITimeout() time.Duration {
	return c.aiTimeout
}

func (c *EnvConfig) ResolveStreams() bool {
	return c.resolveStreams
}

// DownloadSchedule returns the phase offsets from invocation.
func (c *EnvConfig) DownloadSchedule() []time.Duration {
	return append([]time.Duration(nil), c.schedule...)
}

// Source returns the config file path, or "" when only env was used.
func (c *EnvConfig) Source() string {
	return c.source
}

func parseSchedule(s string) ([]time.Duration, error) {
	parts := strings.Split(s, ",")
	ms := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("offset %q: %w", p, err)
		}
		ms = append(ms, n)
	}
	return scheduleFromMs(ms)
}

func scheduleFromMs(ms []int) ([]time.Duration, error) {
	if len(ms) != 4 {
		return nil, fmt.Errorf("expected 4 offsets, got %d", len(ms))
	}
	out := make([]time.Duration, len(ms))
	for i, n := range ms {
		if n < 0 {
			return nil, fmt.Errorf("offset %d is negative", n)
		}
		out[i] = time.Duration(n) * time.Millisecond
	}
	return out, nil
}

func validPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
