package scout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobscout/scout-service/internal/config"
	"jobscout/scout-service/internal/logger"
	"jobscout/scout-service/internal/model"
)

// Notifier delivers the run summary to the configured recipient channel.
// Fire-and-forget from the pipeline's perspective: errors are recorded in
// the summary, never propagated.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// msgUserNotFound marks the no-user abort in RunSummary.Errors; the HTTP
// handler keys its status mapping on it.
const msgUserNotFound = "user not found"

// Default targets used when the user has no profile yet.
var (
	defaultTargetRoles = []string{
		"Head of Growth", "VP Growth", "Director Growth Marketing",
		"Head of Marketing", "Growth Lead",
	}
	defaultTargetLocations = []string{"Bangalore", "Remote"}
)

// Runner executes the full scout pipeline for one user per invocation.
// Stage-local failures (source unavailable, scoring failure, notification
// failure) degrade data and land in RunSummary.Errors; only a missing user
// or a held run lock abort a run, and even those return a summary rather
// than an error.
type Runner struct {
	store      Store
	fetchers   []Fetcher
	scorer     *Scorer
	prefilter  *Prefilter
	deduper    *Deduper
	notifier   Notifier // nil when no channel is configured
	locker     Locker
	scoring    config.ScoringConfig
	ownerEmail string
	log        logger.Logger
}

// NewRunner wires the pipeline together.
func NewRunner(
	store Store,
	fetchers []Fetcher,
	scorer *Scorer,
	prefilter *Prefilter,
	deduper *Deduper,
	notifier Notifier,
	locker Locker,
	scoring config.ScoringConfig,
	ownerEmail string,
	log logger.Logger,
) *Runner {
	return &Runner{
		store:      store,
		fetchers:   fetchers,
		scorer:     scorer,
		prefilter:  prefilter,
		deduper:    deduper,
		notifier:   notifier,
		locker:     locker,
		scoring:    scoring,
		ownerEmail: ownerEmail,
		log:        log,
	}
}

// newRunID returns an identifier like scout_20260829_081500_3fa2c1.
func newRunID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("scout_%s_%s", now.UTC().Format("20060102_150405"), suffix)
}

// Run executes one scout run. An empty userID resolves to the configured
// owner user.
func (r *Runner) Run(ctx context.Context, userID string) model.RunSummary {
	sum := model.RunSummary{
		RunID:          newRunID(time.Now()),
		SourcesQueried: []string{},
		Errors:         []string{},
	}
	log := r.log.With(logger.String("runId", sum.RunID))
	log.Info("scout run starting")

	// 1. Resolve the subject user. Aborts before any fetch when missing.
	var (
		user *model.User
		err  error
	)
	if userID != "" {
		user, err = r.store.ResolveUserByID(ctx, userID)
	} else {
		user, err = r.store.ResolveUserByEmail(ctx, r.ownerEmail)
	}
	if err != nil {
		log.Error("scout run: user not found", logger.Error(err))
		sum.Errors = append(sum.Errors, msgUserNotFound)
		return sum
	}
	log = log.With(logger.String("userId", user.ID))

	// 2. One run at a time per user.
	if r.locker != nil {
		ok, lockErr := r.locker.Acquire(ctx, user.ID, sum.RunID)
		if lockErr != nil {
			sum.Errors = append(sum.Errors, fmt.Sprintf("run lock: %v", lockErr))
			return sum
		}
		if !ok {
			log.Warn("scout run already in progress for user")
			sum.Errors = append(sum.Errors, "another scout run is already in progress")
			return sum
		}
		// The release must not be lost to a disconnected HTTP caller, or the
		// lock stays pinned for its full TTL.
		defer r.locker.Release(context.WithoutCancel(ctx), user.ID)
	}

	// 3. Profile drives both the search queries and the scoring context.
	profile, err := r.store.LoadProfile(ctx, user.ID)
	if err != nil {
		sum.Errors = append(sum.Errors, fmt.Sprintf("load profile: %v", err))
	}
	targetRoles := defaultTargetRoles
	targetLocations := defaultTargetLocations
	if profile != nil {
		if len(profile.TargetRoles) > 0 {
			targetRoles = profile.TargetRoles
		}
		if len(profile.TargetLocations) > 0 {
			targetLocations = profile.TargetLocations
		}
	}
	queries := buildQueries(targetRoles, targetLocations)
	profileSummary := buildProfileSummary(profile)

	// 4. Fetch from every configured source. Sources are independent in
	// data and error domain; one failing never blocks the others.
	var all []model.Candidate
	for _, f := range r.fetchers {
		fetchQueries := queries
		if f.Name() == "serper" {
			fetchQueries = withJobsSuffix(queries)
		}
		results, err := f.Fetch(ctx, fetchQueries)
		if errors.Is(err, ErrNotConfigured) {
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: not configured, skipping", f.Name()))
			continue
		}
		if err != nil {
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", f.Name(), err))
			continue
		}
		sum.SourcesQueried = append(sum.SourcesQueried, f.Name())
		all = append(all, results...)
		log.Info("source fetched", logger.String("source", f.Name()), logger.Int("results", len(results)))
	}
	sum.TotalFetched = len(all)

	// No results from any source: log only, send nothing.
	if len(all) == 0 {
		log.Warn("no results fetched from any source")
		return sum
	}

	// 5. Dedup against durable state and within the batch.
	refs, err := r.store.LoadReferenceSets(ctx, user.ID)
	if err != nil {
		sum.Errors = append(sum.Errors, fmt.Sprintf("load reference sets: %v", err))
		return sum
	}
	deduped := r.deduper.Filter(all, refs)
	sum.AfterDedup = len(deduped)

	// 6. Pre-filter before any paid scoring call.
	excluded, err := r.store.ExcludedCompanies(ctx, user.ID)
	if err != nil {
		sum.Errors = append(sum.Errors, fmt.Sprintf("load excluded companies: %v", err))
		excluded = map[string]struct{}{}
	}
	filtered := r.prefilter.Apply(deduped, targetRoles, targetLocations, excluded)
	sum.AfterPrefilter = len(filtered)

	// 7. Score. The scorer degrades failures internally and never drops a
	// candidate; failed batches surface as summary errors.
	scored, scoreErrs := r.scorer.ScoreAll(ctx, filtered, profileSummary)
	sum.Errors = append(sum.Errors, scoreErrs...)
	sum.AIScored = len(scored)

	// 8. Categorize and persist; all writes in one transaction.
	statuses := make([]string, len(scored))
	for i, item := range scored {
		statuses[i] = StatusFor(item.FitScore, r.scoring)
	}
	promoted, err := r.store.PersistRun(ctx, user.ID, sum.RunID, scored, statuses)
	if err != nil {
		log.Error("persist failed, run rolled back", logger.Error(err))
		sum.Errors = append(sum.Errors, fmt.Sprintf("persist: %v", err))
		return sum
	}
	for _, st := range statuses {
		switch st {
		case model.ResultStatusPromoted:
			sum.Promoted++
		case model.ResultStatusNew:
			sum.SavedForReview++
		default:
			sum.Dismissed++
		}
	}

	log.Info("scout run complete",
		logger.Int("fetched", sum.TotalFetched),
		logger.Int("afterDedup", sum.AfterDedup),
		logger.Int("afterPrefilter", sum.AfterPrefilter),
		logger.Int("promoted", sum.Promoted),
		logger.Int("forReview", sum.SavedForReview),
		logger.Int("dismissed", sum.Dismissed))

	// 9. Notify, best-effort. Nothing is sent when nothing survived
	// filtering.
	if r.notifier != nil {
		if text := buildNotification(sum, promoted); text != "" {
			if err := r.notifier.Send(ctx, text); err != nil {
				log.Error("notification failed", logger.Error(err))
				sum.Errors = append(sum.Errors, fmt.Sprintf("notification failed: %v", err))
			}
		}
	}

	return sum
}

// buildQueries derives one search query per target role, anchored to the
// primary target location.
func buildQueries(targetRoles, targetLocations []string) []string {
	roles := targetRoles
	if len(roles) > 5 {
		roles = roles[:5]
	}
	location := ""
	if len(targetLocations) > 0 {
		location = targetLocations[0]
	}
	queries := make([]string, 0, len(roles))
	for _, role := range roles {
		q := role
		if location != "" {
			q = role + " " + location
		}
		queries = append(queries, q)
	}
	return queries
}

// withJobsSuffix keeps web-search queries job-relevant.
func withJobsSuffix(queries []string) []string {
	out := make([]string, len(queries))
	for i, q := range queries {
		out[i] = q + " jobs"
	}
	return out
}

// buildProfileSummary renders the profile for the scoring prompt.
func buildProfileSummary(p *model.Profile) string {
	if p == nil {
		return "No detailed profile available."
	}
	var parts []string
	if len(p.TargetRoles) > 0 {
		parts = append(parts, "Target roles: "+strings.Join(p.TargetRoles, ", "))
	}
	if len(p.TargetLocations) > 0 {
		parts = append(parts, "Target locations: "+strings.Join(p.TargetLocations, ", "))
	}
	if len(p.CoreSkills) > 0 {
		parts = append(parts, "Core skills: "+strings.Join(p.CoreSkills, ", "))
	}
	if len(p.Industries) > 0 {
		parts = append(parts, "Industries: "+strings.Join(p.Industries, ", "))
	}
	if p.ExperienceLevel != "" {
		parts = append(parts, "Experience level: "+p.ExperienceLevel)
	}
	if len(parts) == 0 {
		return "No detailed profile available."
	}
	return strings.Join(parts, "\n")
}

// buildNotification formats the summary message. Empty string means send
// nothing: that is the case when no candidate was promoted or held.
func buildNotification(sum model.RunSummary, promoted []PromotedJob) string {
	switch {
	case sum.Promoted > 0:
		var b strings.Builder
		fmt.Fprintf(&b, "*Job Scout Run Complete* (%s)\n\n", sum.RunID)
		fmt.Fprintf(&b, "Fetched: %d | Deduped: %d | Filtered: %d | Scored: %d\n",
			sum.TotalFetched, sum.AfterDedup, sum.AfterPrefilter, sum.AIScored)
		fmt.Fprintf(&b, "*Promoted to pipeline: %d*\n", sum.Promoted)
		fmt.Fprintf(&b, "For review: %d | Dismissed: %d\n", sum.SavedForReview, sum.Dismissed)
		for _, p := range promoted {
			fmt.Fprintf(&b, "\n  %s @ %s -- Score: %g/10", p.Title, p.Company, p.FitScore)
		}
		return b.String()
	case sum.SavedForReview > 0:
		return fmt.Sprintf("*Job Scout* (%s): No strong matches this run. %d jobs saved for review, %d dismissed.",
			sum.RunID, sum.SavedForReview, sum.Dismissed)
	default:
		return ""
	}
}
