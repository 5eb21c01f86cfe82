package scout

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"jobscout/scout-service/internal/logger"
	"jobscout/scout-service/internal/model"
)

// Handler exposes the scout surfaces over HTTP.
//
// All routes expect an x-user-id header forwarded by the Gateway; POST
// /scout/run treats a missing header as "run for the configured owner".
//
// Routes:
//
//	POST /scout/run                      → trigger a run, returns RunSummary
//	GET  /scout/results                  → list results (?status=&page=&per_page=)
//	POST /scout/results/{id}/promote     → promote a held result to the pipeline
//	POST /scout/results/{id}/review      → mark a result reviewed
//	POST /scout/results/{id}/dismiss     → dismiss a result
type Handler struct {
	runner *Runner
	store  Store
	log    logger.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(runner *Runner, store Store, log logger.Logger) *Handler {
	return &Handler{runner: runner, store: store, log: log}
}

// RegisterRoutes mounts all scout routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/scout/run", h.handleRun)
	mux.HandleFunc("/scout/results", h.handleResults)
	mux.HandleFunc("/scout/results/", h.handleResultAction)
}

// handleRun handles POST /scout/run.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Absent header means the configured owner user.
	userID := r.Header.Get("x-user-id")
	sum := h.runner.Run(r.Context(), userID)

	// A missing subject user is a hard failure, not a degraded run.
	if len(sum.Errors) == 1 && sum.Errors[0] == msgUserNotFound {
		writeJSON(w, http.StatusNotFound, sum)
		return
	}
	jsonOK(w, sum)
}

// resultsPage is the paged listing shape.
type resultsPage struct {
	Items   []model.ScoutResult `json:"items"`
	Total   int                 `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"perPage"`
}

// handleResults handles GET /scout/results.
func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	status := r.URL.Query().Get("status")
	switch status {
	case "", model.ResultStatusNew, model.ResultStatusReviewed,
		model.ResultStatusPromoted, model.ResultStatusDismissed:
	default:
		jsonError(w, fmt.Sprintf("unknown status %q", status), http.StatusBadRequest)
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	items, total, err := h.store.ListResults(r.Context(), userID, status, page, perPage)
	if err != nil {
		h.log.Error("list scout results failed", logger.Error(err))
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, resultsPage{Items: items, Total: total, Page: page, PerPage: perPage})
}

// handleResultAction handles POST /scout/results/{id}/promote|review|dismiss.
func (h *Handler) handleResultAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	// Parse /scout/results/{id}/{action}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	resultID := parts[2]
	action := parts[3]

	switch action {
	case "promote":
		h.promoteResult(w, r, userID, resultID)
	case "review":
		h.reviewResult(w, r, userID, resultID)
	case "dismiss":
		h.dismissResult(w, r, userID, resultID)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

func (h *Handler) promoteResult(w http.ResponseWriter, r *http.Request, userID, resultID string) {
	job, err := h.store.PromoteResult(r.Context(), userID, resultID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			jsonError(w, "scout result not found", http.StatusNotFound)
		case errors.Is(err, ErrAlreadyPromoted):
			jsonError(w, "already promoted", http.StatusBadRequest)
		case errors.Is(err, ErrTerminalStatus):
			jsonError(w, "result is dismissed and cannot be promoted", http.StatusBadRequest)
		default:
			h.log.Error("promote scout result failed", logger.Error(err))
			jsonError(w, "database error", http.StatusInternalServerError)
		}
		return
	}

	jsonOK(w, map[string]string{"status": model.ResultStatusPromoted, "jobId": job.ID})
}

func (h *Handler) reviewResult(w http.ResponseWriter, r *http.Request, userID, resultID string) {
	if err := h.store.MarkReviewed(r.Context(), userID, resultID); err != nil {
		h.resultActionError(w, "review", err)
		return
	}
	jsonOK(w, map[string]string{"status": model.ResultStatusReviewed})
}

func (h *Handler) dismissResult(w http.ResponseWriter, r *http.Request, userID, resultID string) {
	if err := h.store.DismissResult(r.Context(), userID, resultID); err != nil {
		h.resultActionError(w, "dismiss", err)
		return
	}
	jsonOK(w, map[string]string{"status": model.ResultStatusDismissed})
}

func (h *Handler) resultActionError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, "scout result not found", http.StatusNotFound)
	case errors.Is(err, ErrTerminalStatus):
		jsonError(w, "result status is terminal", http.StatusBadRequest)
	default:
		h.log.Error(action+" scout result failed", logger.Error(err))
		jsonError(w, "database error", http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonOK(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
