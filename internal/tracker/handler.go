package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"jobscout/scout-service/internal/logger"
)

// Handler exposes the tracked-jobs surfaces over HTTP.
//
// All routes expect an x-user-id header forwarded by the Gateway.
//
// Routes:
//
//	GET  /jobs                → list user's tracked jobs (?status=)
//	GET  /jobs/{id}           → fetch one job
//	POST /jobs/{id}/move      → transition to a new pipeline status
//	POST /jobs/{id}/note      → append a free-text note
type Handler struct {
	svc *Service
	log logger.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts all tracker routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/jobs", h.handleJobs)
	mux.HandleFunc("/jobs/", h.handleJobAction)
}

// handleJobs handles GET /jobs.
func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	jobs, err := h.svc.ListJobs(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		h.log.Error("listJobs failed", logger.Error(err))
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, jobs)
}

// handleJobAction handles GET /jobs/{id} and POST /jobs/{id}/move|note.
func (h *Handler) handleJobAction(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.getJob(w, r, userID, parts[1])
	case len(parts) == 3 && r.Method == http.MethodPost:
		jobID, action := parts[1], parts[2]
		switch action {
		case "move":
			h.moveJob(w, r, userID, jobID)
		case "note":
			h.addNote(w, r, userID, jobID)
		default:
			jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
		}
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request, userID, jobID string) {
	job, err := h.svc.GetJob(r.Context(), userID, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			jsonError(w, "job not found", http.StatusNotFound)
			return
		}
		h.log.Error("getJob failed", logger.Error(err))
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, job)
}

func (h *Handler) moveJob(w http.ResponseWriter, r *http.Request, userID, jobID string) {
	var body struct {
		NewStatus string `json:"newStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewStatus == "" {
		jsonError(w, "body must contain newStatus", http.StatusBadRequest)
		return
	}

	job, err := h.svc.MoveJob(r.Context(), userID, jobID, body.NewStatus)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.Is(err, ErrNotFound):
			jsonError(w, "job not found", http.StatusNotFound)
		case errors.As(err, &vErr):
			jsonError(w, vErr.Msg, http.StatusBadRequest)
		default:
			h.log.Error("moveJob failed", logger.Error(err))
			jsonError(w, "database error", http.StatusInternalServerError)
		}
		return
	}
	jsonOK(w, job)
}

func (h *Handler) addNote(w http.ResponseWriter, r *http.Request, userID, jobID string) {
	var body struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Note == "" {
		jsonError(w, "body must contain note", http.StatusBadRequest)
		return
	}

	job, err := h.svc.AddNote(r.Context(), userID, jobID, body.Note)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			jsonError(w, "job not found", http.StatusNotFound)
			return
		}
		h.log.Error("addNote failed", logger.Error(err))
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, job)
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
