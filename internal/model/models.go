// Package model defines the shared data structures for the scout service.
package model

import (
	"time"
	"unicode/utf8"
)

// Column widths from the scout_results schema. Normalizers truncate to these
// silently rather than erroring.
const (
	MaxTitleLen   = 500
	MaxCompanyLen = 500
	MaxSnippetLen = 2000
	MaxURLLen     = 2000
)

// Candidate is a normalised job listing pulled from an external source.
// It only lives in memory during a run; the scoring fields are filled in by
// the scorer before the candidate is persisted as a ScoutResult.
type Candidate struct {
	Source      string `json:"source"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
	Location    string `json:"location,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	SalaryRaw   string `json:"salaryRaw,omitempty"`
	PostedRaw   string `json:"postedRaw,omitempty"`

	// Set by the pre-filter: a consumer-domain keyword appeared somewhere in
	// the candidate's text. Advisory input to the scorer, never a gate.
	ConsumerHint bool `json:"consumerHint"`

	// Set by the scorer.
	FitScore        float64 `json:"fitScore"`
	DomainValidated bool    `json:"domainValidated"`
	Reasoning       string  `json:"reasoning,omitempty"`
}

// ScoutResult lifecycle statuses. Transitions only move forward:
// new → reviewed|promoted|dismissed, reviewed → promoted|dismissed.
// promoted and dismissed are terminal.
const (
	ResultStatusNew       = "new"
	ResultStatusReviewed  = "reviewed"
	ResultStatusPromoted  = "promoted"
	ResultStatusDismissed = "dismissed"
)

// ScoutResult is the durable record of one candidate evaluated in a run.
// Exactly one row is written per scored (or failed-to-score) candidate;
// rows are never deleted, only status-mutated.
type ScoutResult struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Source          string     `json:"source"`
	SourceURL       *string    `json:"sourceUrl"`
	Title           string     `json:"title"`
	CompanyName     string     `json:"companyName"`
	Location        *string    `json:"location"`
	Snippet         *string    `json:"snippet"`
	SalaryRaw       *string    `json:"salaryRaw"`
	PostedRaw       *string    `json:"postedRaw"`
	FitScore        float64    `json:"fitScore"`
	DomainValidated bool       `json:"domainValidated"`
	Reasoning       *string    `json:"reasoning"`
	Status          string     `json:"status"`
	PromotedJobID   *string    `json:"promotedJobId"`
	RunID           string     `json:"runId"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Job is the first-class tracked pipeline entity the scout promotes into.
// It is shared with the rest of the tracking system; the scout only ever
// creates rows at Tracking status.
type Job struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	CompanyName  string    `json:"companyName"`
	RoleTitle    string    `json:"roleTitle"`
	SourcePortal string    `json:"sourcePortal"`
	JDURL        *string   `json:"jdUrl"`
	JDText       *string   `json:"jdText"`
	Status       string    `json:"status"`
	FitScore     *float64  `json:"fitScore"`
	FitReasoning *string   `json:"fitReasoning"`
	SalaryRange  *string   `json:"salaryRange"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// JobNote is one audit/provenance entry on a Job, stored in a JSONB array.
type JobNote struct {
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	Type      string `json:"type"`
}

// Profile is the user's target profile: the source of search queries and the
// scoring context summary.
type Profile struct {
	UserID          string
	TargetRoles     []string
	TargetLocations []string
	CoreSkills      []string
	Industries      []string
	ExperienceLevel string
}

// User is the owning user for a run. Every durable row belongs to one user.
type User struct {
	ID    string
	Email string
}

// RunSummary is returned from every scout run. It is logged, not persisted.
type RunSummary struct {
	RunID          string   `json:"runId"`
	SourcesQueried []string `json:"sourcesQueried"`
	TotalFetched   int      `json:"totalFetched"`
	AfterDedup     int      `json:"afterDedup"`
	AfterPrefilter int      `json:"afterPrefilter"`
	AIScored       int      `json:"aiScored"`
	Promoted       int      `json:"promoted"`
	SavedForReview int      `json:"savedForReview"`
	Dismissed      int      `json:"dismissed"`
	Errors         []string `json:"errors"`
}

// Truncate caps s at max bytes. Silent truncation, not an error. The cut
// never splits a multi-byte rune: a partial rune at the boundary is dropped
// so the result stays valid UTF-8.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size > 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut
}
