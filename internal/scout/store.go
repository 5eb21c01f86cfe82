package scout

import (
	"context"
	"fmt"

	"jobscout/scout-service/internal/config"
	"jobscout/scout-service/internal/model"
)

// Sentinel errors surfaced to callers of explicit single-result operations.
var (
	ErrNotFound        = fmt.Errorf("scout result not found")
	ErrAlreadyPromoted = fmt.Errorf("scout result already promoted")
	ErrTerminalStatus  = fmt.Errorf("scout result status is terminal")
	ErrUserNotFound    = fmt.Errorf("user not found")
)

// PromotedJob is what the persister reports back for each promotion, for
// the run notification.
type PromotedJob struct {
	JobID    string
	Title    string
	Company  string
	FitScore float64
}

// Store is the durable-state dependency of the pipeline and its handlers.
// Implemented by store.Postgres.
type Store interface {
	// ResolveUserByID and ResolveUserByEmail return ErrUserNotFound when no
	// such user exists.
	ResolveUserByID(ctx context.Context, id string) (*model.User, error)
	ResolveUserByEmail(ctx context.Context, email string) (*model.User, error)

	// LoadProfile returns (nil, nil) when the user has no profile yet.
	LoadProfile(ctx context.Context, userID string) (*model.Profile, error)

	// LoadReferenceSets loads the dedup reference sets: every recorded
	// source URL and (title, company) pair for the user, across both
	// scout_results and jobs.
	LoadReferenceSets(ctx context.Context, userID string) (RefSets, error)

	// ExcludedCompanies returns the user's excluded company names,
	// lower-cased.
	ExcludedCompanies(ctx context.Context, userID string) (map[string]struct{}, error)

	// PersistRun writes one scout_result row per scored candidate and, for
	// candidates whose status is promoted, creates the tracked job in the
	// same transaction and back-references it from the result row.
	// All-or-nothing: any failure rolls the whole run's writes back.
	// statuses[i] is the categorized status of items[i].
	PersistRun(ctx context.Context, userID, runID string, items []model.Candidate, statuses []string) ([]PromotedJob, error)

	// ListResults lists a user's scout results newest-first, optionally
	// filtered by status. Returns the page and the total count.
	ListResults(ctx context.Context, userID, status string, page, perPage int) ([]model.ScoutResult, int, error)

	// PromoteResult promotes a held (new/reviewed) result into the jobs
	// pipeline. Returns ErrAlreadyPromoted when the result is already
	// promoted and ErrTerminalStatus when it is dismissed.
	PromoteResult(ctx context.Context, userID, resultID string) (*model.Job, error)

	// MarkReviewed moves a new result to reviewed. ErrTerminalStatus when
	// the result is promoted or dismissed.
	MarkReviewed(ctx context.Context, userID, resultID string) error

	// DismissResult moves a new/reviewed result to dismissed.
	// ErrTerminalStatus when it is promoted or already dismissed.
	DismissResult(ctx context.Context, userID, resultID string) error
}

// StatusFor maps a fit score to a result lifecycle status using the
// configured cutoffs: promote at or above PromoteThreshold, hold for review
// at or above ReviewThreshold, dismiss below.
func StatusFor(score float64, sc config.ScoringConfig) string {
	switch {
	case score >= sc.PromoteThreshold:
		return model.ResultStatusPromoted
	case score >= sc.ReviewThreshold:
		return model.ResultStatusNew
	default:
		return model.ResultStatusDismissed
	}
}
