package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ytclipper/clipper-agent/internal/clips"
	"github.com/ytclipper/clipper-agent/internal/config"
	"github.com/ytclipper/clipper-agent/internal/session"
	"github.com/ytclipper/clipper-agent/internal/static"
	"github.com/ytclipper/clipper-agent/internal/timecode"
	"github.com/ytclipper/clipper-agent/internal/videoref"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Static == nil {
		cfg.Static = static.NewServer("", cfg.Logger)
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist(cfg.AllowedOrigins...))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Route("/session", func(r chi.Router) {
			r.Get("/", getSessionHandler(cfg))
			r.Put("/url", editURLHandler(cfg))
			r.Put("/span", editSpanHandler(cfg))
			r.Post("/capture/start", captureHandler(cfg, cfg.Session.CaptureStart))
			r.Post("/capture/end", captureHandler(cfg, cfg.Session.CaptureEnd))
			r.Post("/preview", previewHandler(cfg))
			r.Post("/download", downloadHandler(cfg))
			r.Post("/suggestions", suggestionsHandler(cfg))
			r.Post("/highlights/{index}/apply", applyHighlightHandler(cfg))
			r.Get("/export.edl", exportEDLHandler(cfg))
			r.Post("/export", exportToDirHandler(cfg))
		})

		r.Route("/player", func(r chi.Router) {
			r.Get("/", getPlayerHandler(cfg))
			r.Post("/play", playerActionHandler(cfg, cfg.Player.Play))
			r.Post("/pause", playerActionHandler(cfg, cfg.Player.Pause))
			r.Post("/seek", seekHandler(cfg))
		})

		r.Get("/clips", listClipsHandler(cfg))
		r.Post("/clips", createClipHandler(cfg))
		r.Get("/clips/{id}", getClipHandler(cfg))
		r.With(LoopbackGuard()).Get("/clips/{id}/file", clipFileHandler(cfg))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if (r.Method == http.MethodGet || r.Method == http.MethodHead) && cfg.Static.Enabled() {
			cfg.Static.ServeAsset(w, r)
			return
		}
		WriteError(w, http.StatusNotFound, "not found", "NOT_FOUND")
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		st := cfg.Session.Snapshot()
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		resp := StatusResponse{
			State: "idle",
			Session: SessionStatusResponse{
				VideoID:       nullable(st.VideoID),
				IsProcessing:  st.IsProcessing,
				IsAnalyzing:   st.IsAnalyzing,
				StatusMessage: st.StatusMessage,
			},
			AIEnabled: cfg.HasAI,
		}

		for _, j := range jobs {
			if j.Status == clips.JobStatusRunning {
				if resp.ActiveJob == nil {
					job := ClipJobToResponse(j)
					resp.ActiveJob = &job
				}
				resp.JobsRunning++
			}
			if j.Status == clips.JobStatusFailed && resp.LastError == "" {
				resp.LastError = j.Error
			}
		}

		if cfg.Runner != nil {
			resp.JobsPending = cfg.Runner.PendingJobs(ctx)
		} else {
			resp.JobsPending, _ = cfg.Repository.CountJobsByStatus(ctx, clips.JobStatusPending)
		}

		switch {
		case cfg.Runner != nil && cfg.Runner.IsPaused():
			resp.State = "paused"
		case st.IsProcessing || resp.JobsRunning > 0:
			resp.State = "processing"
		case st.IsAnalyzing:
			resp.State = "analyzing"
		case resp.LastError != "":
			resp.State = "error"
		}

		if cfg.Streams != nil && st.VideoID != "" {
			resp.Stream = StreamToResponse(cfg.Streams.Peek(st.VideoID))
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, SessionToResponse(cfg.Session.Snapshot()))
	}
}

func editURLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req URLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, SessionToResponse(cfg.Session.EditURL(req.URL)))
	}
}

func editSpanHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SpanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.StartTime == nil && req.EndTime == nil {
			WriteError(w, http.StatusBadRequest, "start_time or end_time is required", "BAD_REQUEST")
			return
		}

		st := cfg.Session.Snapshot()
		if req.StartTime != nil {
			st = cfg.Session.SetStartTime(*req.StartTime)
		}
		if req.EndTime != nil {
			st = cfg.Session.SetEndTime(*req.EndTime)
		}
		WriteJSON(w, http.StatusOK, SessionToResponse(st))
	}
}

func captureHandler(cfg ServerConfig, capture func() (session.State, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := capture()
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SessionToResponse(st))
	}
}

func previewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seconds := cfg.Session.Preview()
		WriteJSON(w, http.StatusOK, PreviewResponse{
			Seconds:   seconds,
			Timestamp: timecode.SecondsToTimestamp(seconds),
		})
	}
}

func downloadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := cfg.Session.RequestDownload()
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, SessionToResponse(st))
	}
}

func suggestionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := cfg.Session.RequestSuggestions()
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, SessionToResponse(st))
	}
}

func applyHighlightHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "index must be an integer", "BAD_REQUEST")
			return
		}
		st, err := cfg.Session.ApplyHighlightAt(index)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SessionToResponse(st))
	}
}

func getPlayerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, playerResponse(cfg.Player))
	}
}

func playerActionHandler(cfg ServerConfig, action func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Player.Ready() {
			writeSessionError(w, session.ErrPlayerNotReady)
			return
		}
		action()
		WriteJSON(w, http.StatusOK, playerResponse(cfg.Player))
	}
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var seconds float64
		switch {
		case req.Timestamp != "":
			seconds = timecode.TimestampToSeconds(req.Timestamp)
		case req.Seconds != nil:
			seconds = *req.Seconds
		default:
			WriteError(w, http.StatusBadRequest, "seconds or timestamp is required", "BAD_REQUEST")
			return
		}
		if seconds < 0 {
			WriteError(w, http.StatusBadRequest, "seconds must not be negative", "BAD_REQUEST")
			return
		}

		if !cfg.Player.Ready() {
			writeSessionError(w, session.ErrPlayerNotReady)
			return
		}
		cfg.Player.SeekTo(seconds)
		WriteJSON(w, http.StatusOK, playerResponse(cfg.Player))
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultListLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = min(n, maxListLimit)
		}

		jobs, err := cfg.Clips.List(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		resp := ClipJobsResponse{Jobs: make([]ClipJobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = ClipJobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		videoID, ok := videoref.ExtractVideoID(req.URL)
		if !ok {
			WriteError(w, http.StatusBadRequest, "url is not a recognised video link", "INVALID_URL")
			return
		}

		span := timecode.Span{StartTime: req.StartTime, EndTime: req.EndTime}
		if span.StartTime == "" {
			span.StartTime = timecode.DefaultStartTime
		}
		if span.EndTime == "" {
			span.EndTime = timecode.DefaultEndTime
		}

		job, err := cfg.Clips.Submit(r.Context(), clips.Request{VideoID: videoID, URL: req.URL, Span: span})
		if err != nil {
			if errors.Is(err, timecode.ErrInvertedSpan) {
				WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_SPAN")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusAccepted, ClipJobToResponse(job))
	}
}

func getClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Clips.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, clips.ErrJobNotFound) {
				WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, ClipJobToResponse(job))
	}
}

// clipFileHandler streams a completed job's output file, the plan script
// the backend wrote. Only files under the output directory are served.
func clipFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Clips.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, clips.ErrJobNotFound) {
				WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		if job.Status != clips.JobStatusCompleted || job.OutputPath == "" {
			WriteError(w, http.StatusNotFound, "clip is not ready", "NOT_READY")
			return
		}
		if cfg.OutputDir == "" || !static.Within(cfg.OutputDir, job.OutputPath) {
			WriteError(w, http.StatusForbidden, "clip is outside the output directory", "FORBIDDEN")
			return
		}

		if err := cfg.Static.ServeFile(w, r, job.OutputPath); err != nil {
			cfg.Logger.Error("failed to serve clip", "job_id", job.ID, "error", err)
		}
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoVideo):
		WriteError(w, http.StatusBadRequest, err.Error(), "NO_VIDEO")
	case errors.Is(err, timecode.ErrInvertedSpan):
		WriteError(w, http.StatusBadRequest, session.StatusInvalidSpan, "INVALID_SPAN")
	case errors.Is(err, session.ErrAlreadyProcessing):
		WriteError(w, http.StatusConflict, err.Error(), "ALREADY_PROCESSING")
	case errors.Is(err, session.ErrAlreadyAnalyzing):
		WriteError(w, http.StatusConflict, err.Error(), "ALREADY_ANALYZING")
	case errors.Is(err, session.ErrPlayerNotReady):
		WriteError(w, http.StatusConflict, err.Error(), "PLAYER_NOT_READY")
	case errors.Is(err, session.ErrNoHighlight):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
