package scout_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"jobscout/scout-service/internal/logger"
	"jobscout/scout-service/internal/model"
	"jobscout/scout-service/internal/scout"
)

func newTestHandler(store *fakeStore) *http.ServeMux {
	r := newTestRunner(store, nil, &fakeCompleter{}, &fakeNotifier{}, &fakeLocker{})
	mux := http.NewServeMux()
	scout.NewHandler(r, store, logger.Nop()).RegisterRoutes(mux)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		req.Header.Set("x-user-id", userID)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// ── GET /scout/results ─────────────────────────────────────────────────────

func TestHandleResults_RequiresUserHeader(t *testing.T) {
	mux := newTestHandler(&fakeStore{})
	rec := doRequest(t, mux, http.MethodGet, "/scout/results", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleResults_RejectsUnknownStatus(t *testing.T) {
	mux := newTestHandler(&fakeStore{})
	rec := doRequest(t, mux, http.MethodGet, "/scout/results?status=archived", testUserID)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleResults_ReturnsPage(t *testing.T) {
	store := &fakeStore{
		listItems: []model.ScoutResult{{ID: "r1", Title: "Head of Growth", Status: "new"}},
		listTotal: 37,
	}
	mux := newTestHandler(store)
	rec := doRequest(t, mux, http.MethodGet, "/scout/results?status=new&page=2&per_page=10", testUserID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var page struct {
		Items   []model.ScoutResult `json:"items"`
		Total   int                 `json:"total"`
		Page    int                 `json:"page"`
		PerPage int                 `json:"perPage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(page.Items) != 1 || page.Total != 37 || page.Page != 2 || page.PerPage != 10 {
		t.Errorf("page = %+v", page)
	}
	if store.listStatus != "new" {
		t.Errorf("status filter %q not passed through", store.listStatus)
	}
}

// Out-of-range paging falls back to defaults instead of erroring.
func TestHandleResults_ClampsPaging(t *testing.T) {
	mux := newTestHandler(&fakeStore{})
	rec := doRequest(t, mux, http.MethodGet, "/scout/results?page=-1&per_page=500", testUserID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var page struct {
		Page    int `json:"page"`
		PerPage int `json:"perPage"`
	}
	json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Page != 1 || page.PerPage != 20 {
		t.Errorf("paging = %+v, want page 1 per_page 20", page)
	}
}

// ── POST /scout/results/{id}/... ───────────────────────────────────────────

func TestResultActions_SentinelMapping(t *testing.T) {
	cases := []struct {
		name  string
		store *fakeStore
		path  string
		want  int
	}{
		{"promote ok", &fakeStore{promoteJob: &model.Job{ID: "j1"}}, "/scout/results/r1/promote", http.StatusOK},
		{"promote missing", &fakeStore{promoteErr: scout.ErrNotFound}, "/scout/results/r1/promote", http.StatusNotFound},
		{"promote twice", &fakeStore{promoteErr: scout.ErrAlreadyPromoted}, "/scout/results/r1/promote", http.StatusBadRequest},
		{"promote dismissed", &fakeStore{promoteErr: scout.ErrTerminalStatus}, "/scout/results/r1/promote", http.StatusBadRequest},
		{"review ok", &fakeStore{}, "/scout/results/r1/review", http.StatusOK},
		{"review terminal", &fakeStore{reviewErr: scout.ErrTerminalStatus}, "/scout/results/r1/review", http.StatusBadRequest},
		{"dismiss ok", &fakeStore{}, "/scout/results/r1/dismiss", http.StatusOK},
		{"dismiss missing", &fakeStore{dismissErr: scout.ErrNotFound}, "/scout/results/r1/dismiss", http.StatusNotFound},
		{"unknown action", &fakeStore{}, "/scout/results/r1/archive", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestHandler(tc.store)
			rec := doRequest(t, mux, http.MethodPost, tc.path, testUserID)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d; body: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestPromoteResult_ReturnsJobID(t *testing.T) {
	store := &fakeStore{promoteJob: &model.Job{ID: "job-77"}}
	mux := newTestHandler(store)
	rec := doRequest(t, mux, http.MethodPost, "/scout/results/r1/promote", testUserID)
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["jobId"] != "job-77" || body["status"] != model.ResultStatusPromoted {
		t.Errorf("body = %v", body)
	}
}

func TestResultActions_RequireUserHeader(t *testing.T) {
	mux := newTestHandler(&fakeStore{})
	rec := doRequest(t, mux, http.MethodPost, "/scout/results/r1/dismiss", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestResultActions_GetNotAllowed(t *testing.T) {
	mux := newTestHandler(&fakeStore{})
	rec := doRequest(t, mux, http.MethodGet, "/scout/results/r1/promote", testUserID)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

// ── POST /scout/run ────────────────────────────────────────────────────────

// A missing header runs for the owner.
func TestHandleRun_OwnerFallback(t *testing.T) {
	store := &fakeStore{user: &model.User{ID: testUserID, Email: "owner@example.com"}}
	mux := newTestHandler(store)
	rec := doRequest(t, mux, http.MethodPost, "/scout/run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.resolvedByEmail != "owner@example.com" {
		t.Errorf("resolved %q, want the configured owner email", store.resolvedByEmail)
	}
	var sum model.RunSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if sum.RunID == "" {
		t.Error("summary should carry a run ID")
	}
}

// A run whose subject user does not exist is a hard failure: 404, with the
// summary still in the body so callers can see the abort reason.
func TestHandleRun_UnknownUserReturns404(t *testing.T) {
	store := &fakeStore{} // no user at all
	mux := newTestHandler(store)
	rec := doRequest(t, mux, http.MethodPost, "/scout/run", "nobody")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var sum model.RunSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(sum.Errors) != 1 || sum.Errors[0] != "user not found" {
		t.Errorf("Errors = %v, want exactly the no-user abort", sum.Errors)
	}
}
