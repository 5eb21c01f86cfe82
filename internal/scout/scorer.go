package scout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"jobscout/scout-service/internal/ai"
	"jobscout/scout-service/internal/logger"
	"jobscout/scout-service/internal/model"
)

// TextCompleter is the generative-model dependency of the scorer.
// Satisfied by ai.Client; faked in tests.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

const (
	// scoreBatchSize bounds the size of a single model request.
	scoreBatchSize = 5
	scoreMaxTokens = 1500

	failedReasoning = "AI scoring failed"
)

// Scorer assigns a fit score, a domain-validated flag and a short rationale
// to each candidate by batching them through a generative model.
//
// Failure policy is degrade-and-continue, never drop: a failed or
// unparseable batch call marks every candidate in that batch score 0 and
// reports one error string per failed batch; a candidate whose index is
// missing from a parsed response degrades alone.
type Scorer struct {
	ai  TextCompleter
	log logger.Logger
}

// NewScorer constructs a Scorer.
func NewScorer(completer TextCompleter, log logger.Logger) *Scorer {
	return &Scorer{ai: completer, log: log}
}

// batchScore mirrors one object of the model's JSON array response.
type batchScore struct {
	Index           int     `json:"index"`
	FitScore        float64 `json:"fit_score"`
	DomainValidated bool    `json:"domain_validated"`
	Reasoning       string  `json:"reasoning"`
}

// ScoreAll scores all candidates in batches of scoreBatchSize. It never
// returns fewer candidates than it was given; the second return value
// carries one error string per batch that degraded, for the run summary.
func (s *Scorer) ScoreAll(ctx context.Context, items []model.Candidate, profileSummary string) ([]model.Candidate, []string) {
	scored := make([]model.Candidate, 0, len(items))
	var errs []string
	for start := 0; start < len(items); start += scoreBatchSize {
		end := start + scoreBatchSize
		if end > len(items) {
			end = len(items)
		}
		batch, errMsg := s.scoreBatch(ctx, items[start:end], profileSummary)
		scored = append(scored, batch...)
		if errMsg != "" {
			errs = append(errs, errMsg)
		}
	}
	return scored, errs
}

func (s *Scorer) scoreBatch(ctx context.Context, batch []model.Candidate, profileSummary string) ([]model.Candidate, string) {
	out := make([]model.Candidate, len(batch))
	copy(out, batch)

	raw, err := s.ai.Complete(ctx, buildScoringPrompt(batch, profileSummary), scoreMaxTokens)
	if err != nil {
		s.log.Error("scoring call failed, degrading batch", logger.Int("batch", len(batch)), logger.Error(err))
		return degradeBatch(out), fmt.Sprintf("AI scoring error: %v", err)
	}

	doc, ok := ai.ExtractJSON(raw)
	if !ok {
		s.log.Error("scoring response not parseable, degrading batch", logger.Int("batch", len(batch)))
		return degradeBatch(out), "AI scoring error: response not parseable"
	}
	var scores []batchScore
	if err := json.Unmarshal([]byte(doc), &scores); err != nil {
		s.log.Error("scoring response wrong shape, degrading batch", logger.Error(err))
		return degradeBatch(out), fmt.Sprintf("AI scoring error: %v", err)
	}

	// Match back by 1-based prompt index. A missing index degrades that
	// candidate alone, not the batch.
	byIndex := make(map[int]batchScore, len(scores))
	for _, sc := range scores {
		byIndex[sc.Index] = sc
	}
	for i := range out {
		sc, ok := byIndex[i+1]
		if !ok {
			out[i].FitScore = 0
			out[i].DomainValidated = false
			out[i].Reasoning = ""
			continue
		}
		out[i].FitScore = sc.FitScore
		out[i].DomainValidated = sc.DomainValidated
		out[i].Reasoning = sc.Reasoning
	}
	return out, ""
}

func degradeBatch(batch []model.Candidate) []model.Candidate {
	for i := range batch {
		batch[i].FitScore = 0
		batch[i].DomainValidated = false
		batch[i].Reasoning = failedReasoning
	}
	return batch
}

// buildScoringPrompt embeds the profile summary and a numbered listing of
// the batch, and demands a strict JSON array back.
func buildScoringPrompt(batch []model.Candidate, profileSummary string) string {
	var jobs strings.Builder
	for i, item := range batch {
		snippet := model.Truncate(item.Snippet, 500)
		salary := item.SalaryRaw
		if salary == "" {
			salary = "N/A"
		}
		fmt.Fprintf(&jobs, `
---JOB %d---
Title: %s
Company: %s
Location: %s
Snippet: %s
Salary: %s
Consumer-domain hint from pre-filter: %t
`, i+1, item.Title, item.CompanyName, item.Location, snippet, salary, item.ConsumerHint)
	}

	return fmt.Sprintf(`You are a job-fit scoring engine for a senior growth/marketing leader.

CANDIDATE PROFILE:
%s

Score each job below on a 1-10 scale:
- 1-4: Poor fit (wrong level, wrong domain, wrong location)
- 5-6: Possible fit (partially matches, worth reviewing)
- 7-10: Strong fit (right level + domain + location, consumer/B2C preferred)

Also determine if the company is consumer-facing / B2C (true/false).
%s
Return ONLY valid JSON -- an array with one object per job:
[
  {
    "index": 1,
    "fit_score": 7,
    "domain_validated": true,
    "reasoning": "Brief 1-2 sentence reasoning"
  },
  ...
]

No markdown, no explanation outside the JSON array.
`, profileSummary, jobs.String())
}
