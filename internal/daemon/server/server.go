// Package server exposes the butler daemon over a unix socket: project,
// session, and delta queries for CLI clients, and a websocket stream of
// recording activity for UIs.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/lwd-temp/gitbutler/app"
	"github.com/lwd-temp/gitbutler/errors"
	"github.com/lwd-temp/gitbutler/version"
)

// RunningConfig reports the intervals the daemon is actually using, so
// clients can verify what configuration is active.
type RunningConfig struct {
	TickInterval      time.Duration `json:"tick_interval"`
	SessionInactivity time.Duration `json:"session_inactivity"`
	StartedAt         time.Time     `json:"started_at"`
}

// Server manages the daemon's HTTP server over a unix socket.
type Server struct {
	logger        *logrus.Entry
	server        *http.Server
	app           *app.App
	runningConfig *RunningConfig
}

// New creates a server around an assembled app.
func New(logger *logrus.Entry, application *app.App, cfg *RunningConfig) *Server {
	return &Server{
		logger:        logger,
		app:           application,
		runningConfig: cfg,
	}
}

// ListenAndServe starts the daemon on the given unix socket path. It blocks
// until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	// Cleanup stale socket
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	// The socket carries project contents; keep it private to the user.
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.server = &http.Server{Handler: h2c.NewHandler(s.routes(), &http2.Server{})}
	s.logger.WithField("socket", socketPath).Info("Daemon listening")
	return s.server.Serve(listener)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":  "ok",
			"version": version.GetInfo(),
		})
	})
	mux.HandleFunc("/api/config", s.handleGetConfig)
	mux.HandleFunc("/api/projects", s.handleProjects)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/deltas", s.handleDeltas)
	mux.HandleFunc("/api/files", s.handleFiles)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/flush", s.handleFlush)
	mux.HandleFunc("/api/bookmarks", s.handleBookmarks)
	mux.Handle("/ws", s.app.Hub())
	return mux
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.runningConfig)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Projects().List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, list)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project")
	if projectID == "" {
		http.Error(w, "missing project parameter", http.StatusBadRequest)
		return
	}
	list, err := s.app.ListSessions(r.Context(), projectID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, list)
}

func (s *Server) handleDeltas(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "missing session parameter", http.StatusBadRequest)
		return
	}
	list, err := s.app.ListDeltas(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, list)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "missing session parameter", http.StatusBadRequest)
		return
	}
	contents, err := s.app.ListSessionFiles(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, contents)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project")
	query := r.URL.Query().Get("q")
	if projectID == "" || query == "" {
		http.Error(w, "missing project or q parameter", http.StatusBadRequest)
		return
	}
	results, err := s.app.Search(r.Context(), projectID, query, 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, results)
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProjectID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.app.Flush(r.Context(), req.ProjectID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{"status": "flushed"})
}

func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		projectID := r.URL.Query().Get("project")
		if projectID == "" {
			http.Error(w, "missing project parameter", http.StatusBadRequest)
			return
		}
		list, err := s.app.ListBookmarks(r.Context(), projectID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, list)

	case http.MethodPost:
		var req struct {
			ProjectID   string `json:"project_id"`
			TimestampMs int64  `json:"timestamp_ms"`
			Note        string `json:"note"`
			Deleted     bool   `json:"deleted"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProjectID == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		b, err := s.app.UpsertBookmark(r.Context(), req.ProjectID, req.TimestampMs, req.Note, req.Deleted)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, b)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrCodeProjectNotFound),
		errors.Is(err, errors.ErrCodeSessionFailed) && strings.Contains(err.Error(), "not found"):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrCodeInvalidInput):
		status = http.StatusBadRequest
	}
	s.logger.WithError(err).Debug("Request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"code":  string(errors.GetCode(err)),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
