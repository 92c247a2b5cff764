// Package static serves the browser bundle and rendered clip files with
// byte-range support.
package static

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

const indexFile = "index.html"

type Server struct {
	root   string
	logger *slog.Logger
}

// NewServer serves files under root. An empty root disables the bundle;
// ServeFile still works for absolute paths.
func NewServer(root string, logger *slog.Logger) *Server {
	return &Server{root: root, logger: logger}
}

func (s *Server) Enabled() bool {
	return s.root != ""
}

// ServeAsset maps the request path into root. Paths without a matching file
// and without an extension fall back to index.html so client-side routes
// resolve.
func (s *Server) ServeAsset(w http.ResponseWriter, r *http.Request) {
	if !s.Enabled() {
		http.NotFound(w, r)
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	target := filepath.Join(s.root, filepath.FromSlash(clean))

	info, err := os.Stat(target)
	switch {
	case err == nil && info.IsDir():
		target = filepath.Join(target, indexFile)
	case err != nil && path.Ext(clean) == "":
		target = filepath.Join(s.root, indexFile)
	}

	if err := s.ServeFile(w, r, target); err != nil {
		s.logger.Error("failed to serve asset", "path", clean, "error", err)
	}
}

// ServeFile writes filePath honouring a Range header. Missing files get a
// 404 and a nil error.
func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.IsDir() {
		http.Error(w, "file not found", http.StatusNotFound)
		return nil
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	parsed, err := ParseRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrUnsatisfiable):
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case errors.Is(err, ErrInvalidRange):
		parsed = nil
	case err != nil:
		return err
	}

	if parsed == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			io.Copy(w, file)
		}
		return nil
	}

	w.Header().Set("Content-Length", strconv.FormatInt(parsed.ContentLength(), 10))
	w.Header().Set("Content-Range", parsed.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if r.Method == http.MethodHead {
		return nil
	}
	if _, err := file.Seek(parsed.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	io.CopyN(w, file, parsed.ContentLength())
	return nil
}

// Within reports whether p resolves inside dir.
func Within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
