package server

import (
	"encoding/json"
	"errors"
	"html"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MattHedgcorth/net-shepherd/internal/inventory"
	"github.com/MattHedgcorth/net-shepherd/internal/poller"
)

// serverView is a server as returned by the inventory API.
type serverView struct {
	inventory.Server
	Stats  inventory.Stats  `json:"stats"`
	Health inventory.Health `json:"health"`
}

func newServerView(s inventory.Server) serverView {
	stats := inventory.ComputeStats(s)
	return serverView{Server: s, Stats: stats, Health: stats.Health()}
}

// pollResponse is returned by POST /api/polling.
type pollResponse struct {
	Started bool `json:"started"`
	poller.State
}

// handleCheck probes the url query parameter. Probe failures are reported in
// a 200 response; only a missing url yields 400.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, s.checker.Check(r.Context(), target))
}

func (s *Server) handleServers(w http.ResponseWriter, r *http.Request) {
	servers := s.inv.Servers()
	views := make([]serverView, 0, len(servers))
	for _, srv := range servers {
		views = append(views, newServerView(srv))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleServer(w http.ResponseWriter, r *http.Request) {
	srv, ok := s.inv.Server(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "Server not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, newServerView(srv))
}

func (s *Server) handlePollingState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ctrl.State())
}

// handleStartPolling starts a run in the background. A request made while a
// run is active is dropped: the response reports started=false with the
// state of the active run.
func (s *Server) handleStartPolling(w http.ResponseWriter, r *http.Request) {
	scope := poller.Scope(r.URL.Query().Get("serverId"))

	_, err := s.ctrl.Start(s.runContext(), scope)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, pollResponse{Started: true, State: s.ctrl.State()})
	case errors.Is(err, poller.ErrPollInProgress):
		s.writeJSON(w, http.StatusOK, pollResponse{Started: false, State: s.ctrl.State()})
	case errors.Is(err, inventory.ErrServerNotFound):
		http.Error(w, "Server not found", http.StatusNotFound)
	default:
		s.logger.Error("failed to start poll run", "scope", scope.String(), "error", err)
		http.Error(w, "Failed to start polling", http.StatusInternalServerError)
	}
}

func (s *Server) handleTogglePause(w http.ResponseWriter, r *http.Request) {
	s.ctrl.TogglePause()
	s.writeJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *Server) handleStopPolling(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Stop()
	s.writeJSON(w, http.StatusOK, s.ctrl.State())
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(s.cfg.Assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// title is HTML-escaped before substitution
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(s.cfg.Title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
