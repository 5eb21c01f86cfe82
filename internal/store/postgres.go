// Package store implements the scout.Store interface on PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobscout/scout-service/internal/model"
	"jobscout/scout-service/internal/scout"
)

// Job pipeline status every promotion lands at.
const trackedStatus = "Tracking"

// Postgres is the pgx-backed store.
type Postgres struct {
	pool *pgxpool.Pool
}

// New returns a configured Postgres store.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// ─── User / profile resolution ───────────────────────────────────────────────

// ResolveUserByID looks a user up by primary key.
func (s *Postgres) ResolveUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.resolveUser(ctx, `SELECT id, email FROM users WHERE id = $1`, id)
}

// ResolveUserByEmail looks a user up by email (the owner-resolution path for
// scheduled runs).
func (s *Postgres) ResolveUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.resolveUser(ctx, `SELECT id, email FROM users WHERE email = $1`, email)
}

func (s *Postgres) resolveUser(ctx context.Context, query, arg string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, scout.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return &u, nil
}

// LoadProfile returns the user's target profile, or nil when none exists.
func (s *Postgres) LoadProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var (
		p               model.Profile
		experienceLevel *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, COALESCE(target_roles, '{}'), COALESCE(target_locations, '{}'),
		        COALESCE(core_skills, '{}'), COALESCE(industries, '{}'), experience_level
		 FROM profiles
		 WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.TargetRoles, &p.TargetLocations, &p.CoreSkills, &p.Industries, &experienceLevel)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if experienceLevel != nil {
		p.ExperienceLevel = *experienceLevel
	}
	return &p, nil
}

// ─── Dedup reference sets ────────────────────────────────────────────────────

// LoadReferenceSets loads every recorded source URL and (title, company)
// pair for the user, across scout_results and jobs.
func (s *Postgres) LoadReferenceSets(ctx context.Context, userID string) (scout.RefSets, error) {
	refs := scout.RefSets{URLs: make(map[string]struct{})}

	rows, err := s.pool.Query(ctx,
		`SELECT source_url FROM scout_results WHERE user_id = $1 AND source_url IS NOT NULL
		 UNION
		 SELECT jd_url FROM jobs WHERE user_id = $1 AND jd_url IS NOT NULL AND NOT is_deleted`,
		userID,
	)
	if err != nil {
		return refs, fmt.Errorf("query reference urls: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return refs, fmt.Errorf("scan reference url: %w", err)
		}
		if url != "" {
			refs.URLs[url] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return refs, err
	}

	pairRows, err := s.pool.Query(ctx,
		`SELECT title, company_name FROM scout_results WHERE user_id = $1
		 UNION ALL
		 SELECT role_title, company_name FROM jobs WHERE user_id = $1 AND NOT is_deleted`,
		userID,
	)
	if err != nil {
		return refs, fmt.Errorf("query reference pairs: %w", err)
	}
	defer pairRows.Close()
	for pairRows.Next() {
		var tc scout.TitleCompany
		if err := pairRows.Scan(&tc.Title, &tc.Company); err != nil {
			return refs, fmt.Errorf("scan reference pair: %w", err)
		}
		refs.TitleCompanies = append(refs.TitleCompanies, tc)
	}
	return refs, pairRows.Err()
}

// ExcludedCompanies returns the user's excluded company names, lower-cased.
func (s *Postgres) ExcludedCompanies(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name FROM companies WHERE user_id = $1 AND is_excluded`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query excluded companies: %w", err)
	}
	defer rows.Close()

	excluded := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan excluded company: %w", err)
		}
		if name != "" {
			excluded[strings.ToLower(name)] = struct{}{}
		}
	}
	return excluded, rows.Err()
}

// ─── Run persistence ─────────────────────────────────────────────────────────

// PersistRun writes one scout_result row per scored candidate, creating the
// promoted jobs in the same transaction. All-or-nothing.
func (s *Postgres) PersistRun(
	ctx context.Context,
	userID, runID string,
	items []model.Candidate,
	statuses []string,
) ([]scout.PromotedJob, error) {
	if len(items) != len(statuses) {
		return nil, fmt.Errorf("persistRun: %d items but %d statuses", len(items), len(statuses))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var promoted []scout.PromotedJob
	for i, item := range items {
		status := statuses[i]

		var jobID *string
		if status == model.ResultStatusPromoted {
			id, err := s.insertJob(ctx, tx, userID, item, promotionNote(runID, item.FitScore))
			if err != nil {
				return nil, err
			}
			jobID = &id
			promoted = append(promoted, scout.PromotedJob{
				JobID:    id,
				Title:    item.Title,
				Company:  item.CompanyName,
				FitScore: item.FitScore,
			})
		}

		normalized, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("marshal candidate: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO scout_results
			   (user_id, source, source_url, title, company_name, location, snippet,
			    salary_raw, posted_date_raw, normalized_data, fit_score,
			    domain_validated, reasoning, status, promoted_job_id, run_id)
			 VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), NULLIF($7, ''),
			         NULLIF($8, ''), NULLIF($9, ''), $10, $11, $12, NULLIF($13, ''), $14, $15, $16)`,
			userID, item.Source, item.SourceURL,
			model.Truncate(item.Title, model.MaxTitleLen),
			model.Truncate(item.CompanyName, model.MaxCompanyLen),
			item.Location, item.Snippet, item.SalaryRaw, item.PostedRaw,
			normalized, item.FitScore, item.DomainValidated, item.Reasoning,
			status, jobID, runID,
		)
		if err != nil {
			return nil, fmt.Errorf("insert scout_result: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return promoted, nil
}

// insertJob creates the tracked pipeline entity for a promotion and returns
// its id.
func (s *Postgres) insertJob(ctx context.Context, tx pgx.Tx, userID string, item model.Candidate, note model.JobNote) (string, error) {
	notes, err := json.Marshal([]model.JobNote{note})
	if err != nil {
		return "", fmt.Errorf("marshal job notes: %w", err)
	}

	company := item.CompanyName
	if company == "" {
		company = "Unknown"
	}
	title := item.Title
	if title == "" {
		title = "Unknown"
	}

	var jobID string
	err = tx.QueryRow(ctx,
		`INSERT INTO jobs
		   (user_id, company_name, role_title, source_portal, jd_url, jd_text,
		    status, fit_score, fit_reasoning, salary_range, notes)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11)
		 RETURNING id`,
		userID,
		model.Truncate(company, 255),
		model.Truncate(title, 255),
		model.Truncate(item.Source, 100),
		model.Truncate(item.SourceURL, 1000),
		item.Snippet,
		trackedStatus,
		item.FitScore,
		item.Reasoning,
		item.SalaryRaw,
		notes,
	).Scan(&jobID)
	if err != nil {
		return "", fmt.Errorf("insert job: %w", err)
	}
	return jobID, nil
}

func promotionNote(runID string, score float64) model.JobNote {
	return model.JobNote{
		Text:      fmt.Sprintf("Auto-discovered by Job Scout (run %s). Fit score: %g/10.", runID, score),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Type:      "scout",
	}
}

// ─── Review queue operations ─────────────────────────────────────────────────

const resultColumns = `id, user_id, source, source_url, title, company_name, location,
  snippet, salary_raw, posted_date_raw, COALESCE(fit_score, 0), domain_validated,
  reasoning, status, promoted_job_id, COALESCE(run_id, ''), created_at, updated_at`

// ListResults lists a user's scout results newest-first.
func (s *Postgres) ListResults(ctx context.Context, userID, status string, page, perPage int) ([]model.ScoutResult, int, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scout_results `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scout_results: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM scout_results %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		resultColumns, where, perPage, (page-1)*perPage,
	)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query scout_results: %w", err)
	}
	defer rows.Close()

	results := make([]model.ScoutResult, 0)
	for rows.Next() {
		var res model.ScoutResult
		if err := rows.Scan(
			&res.ID, &res.UserID, &res.Source, &res.SourceURL, &res.Title,
			&res.CompanyName, &res.Location, &res.Snippet, &res.SalaryRaw,
			&res.PostedRaw, &res.FitScore, &res.DomainValidated, &res.Reasoning,
			&res.Status, &res.PromotedJobID, &res.RunID, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan scout_result: %w", err)
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

// PromoteResult promotes a held result into the jobs pipeline. The job
// insert and the status update are one transaction: a promoted result never
// exists without its job.
func (s *Postgres) PromoteResult(ctx context.Context, userID, resultID string) (*model.Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var item model.Candidate
	var status string
	var sourceURL, location, snippet, salary, posted, reasoning *string
	var fitScore *float64
	err = tx.QueryRow(ctx,
		`SELECT source, source_url, title, company_name, location, snippet,
		        salary_raw, posted_date_raw, fit_score, reasoning, status
		 FROM scout_results
		 WHERE id = $1 AND user_id = $2
		 FOR UPDATE`,
		resultID, userID,
	).Scan(&item.Source, &sourceURL, &item.Title, &item.CompanyName, &location,
		&snippet, &salary, &posted, &fitScore, &reasoning, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, scout.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load scout_result: %w", err)
	}

	switch status {
	case model.ResultStatusPromoted:
		return nil, scout.ErrAlreadyPromoted
	case model.ResultStatusDismissed:
		return nil, scout.ErrTerminalStatus
	}

	item.SourceURL = deref(sourceURL)
	item.Location = deref(location)
	item.Snippet = deref(snippet)
	item.SalaryRaw = deref(salary)
	item.PostedRaw = deref(posted)
	item.Reasoning = deref(reasoning)
	if fitScore != nil {
		item.FitScore = *fitScore
	}

	note := model.JobNote{
		Text:      fmt.Sprintf("Manually promoted from Scout. Fit score: %g/10.", item.FitScore),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Type:      "scout",
	}
	jobID, err := s.insertJob(ctx, tx, userID, item, note)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE scout_results
		 SET status = $1, promoted_job_id = $2, updated_at = NOW()
		 WHERE id = $3 AND user_id = $4`,
		model.ResultStatusPromoted, jobID, resultID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update scout_result: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &model.Job{
		ID:          jobID,
		UserID:      userID,
		CompanyName: item.CompanyName,
		RoleTitle:   item.Title,
		Status:      trackedStatus,
	}, nil
}

// MarkReviewed moves a new result to reviewed.
func (s *Postgres) MarkReviewed(ctx context.Context, userID, resultID string) error {
	return s.transition(ctx, userID, resultID, model.ResultStatusReviewed, []string{model.ResultStatusNew})
}

// DismissResult moves a new or reviewed result to dismissed.
func (s *Postgres) DismissResult(ctx context.Context, userID, resultID string) error {
	return s.transition(ctx, userID, resultID, model.ResultStatusDismissed,
		[]string{model.ResultStatusNew, model.ResultStatusReviewed})
}

// transition applies a forward-only status change, distinguishing a missing
// row from a row whose current status forbids the move.
func (s *Postgres) transition(ctx context.Context, userID, resultID, to string, from []string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scout_results
		 SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND user_id = $3 AND status = ANY($4)`,
		to, resultID, userID, from,
	)
	if err != nil {
		return fmt.Errorf("update scout_result status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM scout_results WHERE id = $1 AND user_id = $2)`,
		resultID, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check scout_result: %w", err)
	}
	if !exists {
		return scout.ErrNotFound
	}
	return scout.ErrTerminalStatus
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
