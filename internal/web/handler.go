package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"scrollguard/internal/config"
	"scrollguard/internal/database"
	"scrollguard/internal/reporter"
	"scrollguard/internal/tracker"
)

type Handler struct {
	config   *config.Config
	repo     *database.Repository
	service  *tracker.Service
	reporter *reporter.Reporter
}

func NewHandler(cfg *config.Config, repo *database.Repository, svc *tracker.Service) *Handler {
	return &Handler{
		config:   cfg,
		repo:     repo,
		service:  svc,
		reporter: reporter.New(cfg, repo),
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/summary", h.handleSummary)
	mux.HandleFunc("/api/sessions", h.handleSessions)
	mux.HandleFunc("/api/nudges", h.handleNudges)
	mux.HandleFunc("/api/report", h.handleReport)
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/health", h.handleHealth)
}

// handleSummary returns the live daily summary, including the in-progress
// session.
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, h.service.Summary(time.Now()))
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	recs, err := h.repo.GetRecentSessions(limit)
	if err != nil {
		http.Error(w, "Failed to fetch sessions: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, recs)
}

func (h *Handler) handleNudges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			since = time.Now().Add(-time.Duration(n) * time.Hour)
		}
	}

	recs, err := h.repo.GetNudgesSince(since)
	if err != nil {
		http.Error(w, "Failed to fetch nudges: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, recs)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	report, err := h.reporter.GenerateReport(periodType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, report)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := map[string]any{
		"running":       h.service.IsRunning(),
		"poll_interval": h.config.Tracker.PollInterval.String(),
		"tracked_sites": len(h.config.Sites),
	}

	if site, start, ok := h.service.CurrentSession(); ok {
		status["current_site"] = site
		status["session_started"] = start.Format(time.RFC3339)
		status["session_minutes"] = time.Since(start).Minutes()
	}

	writeJSON(w, status)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
