package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"jobscout/scout-service/internal/logger"
	"jobscout/scout-service/internal/model"
)

// ErrNotFound is returned when a job is missing or does not belong to the
// user.
var ErrNotFound = fmt.Errorf("job not found")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Service encapsulates the tracked-job business logic. It has no dependency
// on net/http; the Handler is the transport layer.
type Service struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  logger.Logger
}

// NewService returns a configured Service.
func NewService(pool *pgxpool.Pool, rdb *redis.Client, log logger.Logger) *Service {
	return &Service{pool: pool, rdb: rdb, log: log}
}

const jobColumns = `id, user_id, company_name, role_title, COALESCE(source_portal, ''),
  jd_url, jd_text, status, fit_score, fit_reasoning, salary_range, created_at, updated_at`

// ListJobs returns the user's tracked jobs, newest first. If statusFilter is
// non-empty, only jobs with that status are returned.
func (s *Service) ListJobs(ctx context.Context, userID, statusFilter string) ([]model.Job, error) {
	const base = `SELECT ` + jobColumns + ` FROM jobs WHERE user_id = $1 AND NOT is_deleted`

	var (
		rows pgx.Rows
		err  error
	)
	if statusFilter != "" {
		rows, err = s.pool.Query(ctx, base+` AND status = $2 ORDER BY updated_at DESC`, userID, statusFilter)
	} else {
		rows, err = s.pool.Query(ctx, base+` ORDER BY updated_at DESC`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("listJobs query: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.Job, 0)
	for rows.Next() {
		var j model.Job
		if err := rows.Scan(
			&j.ID, &j.UserID, &j.CompanyName, &j.RoleTitle, &j.SourcePortal,
			&j.JDURL, &j.JDText, &j.Status, &j.FitScore, &j.FitReasoning,
			&j.SalaryRange, &j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("listJobs scan: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// GetJob returns a single job by ID, validating ownership.
func (s *Service) GetJob(ctx context.Context, userID, jobID string) (*model.Job, error) {
	var j model.Job
	err := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		jobID, userID,
	).Scan(
		&j.ID, &j.UserID, &j.CompanyName, &j.RoleTitle, &j.SourcePortal,
		&j.JDURL, &j.JDText, &j.Status, &j.FitScore, &j.FitReasoning,
		&j.SalaryRange, &j.CreatedAt, &j.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getJob: %w", err)
	}
	return &j, nil
}

// MoveJob transitions a job to a new pipeline status.
// Returns ErrNotFound if the job does not exist or belong to userID, and a
// ValidationError if the state machine rejects the transition.
func (s *Service) MoveJob(ctx context.Context, userID, jobID, newStatusStr string) (*model.Job, error) {
	newStatus, err := ParseStatus(newStatusStr)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	// Fetch current state (also validates ownership)
	var currentStatusStr string
	err = s.pool.QueryRow(ctx,
		`SELECT status FROM jobs WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		jobID, userID,
	).Scan(&currentStatusStr)
	if err != nil {
		return nil, ErrNotFound
	}

	currentStatus, _ := ParseStatus(currentStatusStr)
	if !IsTransitionAllowed(currentStatus, newStatus) {
		return nil, &ValidationError{
			Msg: fmt.Sprintf("transition %s → %s is not allowed", currentStatus, newStatus),
		}
	}

	var j model.Job
	err = s.pool.QueryRow(ctx,
		`UPDATE jobs
		 SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND user_id = $3
		 RETURNING `+jobColumns,
		string(newStatus), jobID, userID,
	).Scan(
		&j.ID, &j.UserID, &j.CompanyName, &j.RoleTitle, &j.SourcePortal,
		&j.JDURL, &j.JDText, &j.Status, &j.FitScore, &j.FitReasoning,
		&j.SalaryRange, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("moveJob update: %w", err)
	}

	// Publish the move for listeners (non-fatal).
	event, _ := json.Marshal(map[string]string{
		"type":   "EVENT_JOB_MOVED",
		"jobId":  jobID,
		"userId": userID,
		"from":   string(currentStatus),
		"to":     string(newStatus),
	})
	if err := s.rdb.Publish(ctx, "EVENT_JOB_MOVED", event).Err(); err != nil {
		s.log.Warn("publish EVENT_JOB_MOVED failed", logger.Error(err))
	}

	return &j, nil
}

// AddNote appends a user note to a job's notes log.
func (s *Service) AddNote(ctx context.Context, userID, jobID, text string) (*model.Job, error) {
	entry, _ := json.Marshal([]model.JobNote{{
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Type:      "user",
	}})

	var j model.Job
	err := s.pool.QueryRow(ctx,
		`UPDATE jobs
		 SET notes = COALESCE(notes, '[]'::jsonb) || $1::jsonb, updated_at = NOW()
		 WHERE id = $2 AND user_id = $3 AND NOT is_deleted
		 RETURNING `+jobColumns,
		string(entry), jobID, userID,
	).Scan(
		&j.ID, &j.UserID, &j.CompanyName, &j.RoleTitle, &j.SourcePortal,
		&j.JDURL, &j.JDText, &j.Status, &j.FitScore, &j.FitReasoning,
		&j.SalaryRange, &j.CreatedAt, &j.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("addNote: %w", err)
	}
	return &j, nil
}
