package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ytclipper/clipper-agent/internal/export"
	"github.com/ytclipper/clipper-agent/internal/session"
)

// sessionSegments collects the exportable segments of st. ok is false when
// no video is selected.
func sessionSegments(st session.State, includeHighlights bool) (segments []export.Segment, skipped []string, ok bool) {
	if !st.HasVideo() {
		return nil, nil, false
	}
	hs := st.Highlights
	if !includeHighlights {
		hs = nil
	}
	segments, skipped = export.Collect(st.VideoID, st.Span(), hs)
	return segments, skipped, true
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		fps := export.DefaultFrameRate
		if v := q.Get("fps"); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				WriteError(w, http.StatusBadRequest, export.ErrInvalidFrameRate.Error(), "BAD_REQUEST")
				return
			}
			fps = parsed
		}
		rate, err := export.ParseRate(fps)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		includeHighlights := q.Get("highlights") != "false" && q.Get("highlights") != "0"

		st := cfg.Session.Snapshot()
		segments, _, ok := sessionSegments(st, includeHighlights)
		if !ok {
			writeSessionError(w, session.ErrNoVideo)
			return
		}
		if len(segments) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no segment can be exported", "NO_SEGMENTS")
			return
		}

		title := export.Title(q.Get("title"), st.VideoID)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(title, ".edl")))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(export.GenerateEDL(segments, title, rate)))
	}
}

func exportToDirHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		format := strings.ToLower(req.Format)
		if format == "" {
			format = "edl"
		}
		if format != "edl" {
			WriteError(w, http.StatusBadRequest, "format must be edl", "BAD_REQUEST")
			return
		}

		if err := export.CheckOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		fps := req.FrameRate
		if fps == 0 {
			fps = export.DefaultFrameRate
		}
		rate, err := export.ParseRate(fps)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		segments, skipped, ok := sessionSegments(cfg.Session.Snapshot(), req.IncludeHighlights)
		if !ok {
			writeSessionError(w, session.ErrNoVideo)
			return
		}
		if len(segments) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no segment can be exported", "NO_SEGMENTS")
			return
		}

		projectName := export.Title(req.ProjectName, export.DefaultProjectName)

		edl := export.GenerateEDL(segments, projectName, rate)
		outputPath := filepath.Join(req.OutputDir, export.FileName(projectName, ".edl"))
		if err := os.WriteFile(outputPath, []byte(edl), 0o644); err != nil {
			cfg.Logger.Error("failed to write export file", "path", outputPath, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, export.ExportResponse{
			Status:     "ok",
			Format:     format,
			OutputPath: outputPath,
			ClipCount:  len(segments),
			Skipped:    skipped,
		})
	}
}
