package scout

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"jobscout/scout-service/internal/model"
)

// TitleCompany is one (title, company) pair used for fuzzy duplicate checks.
type TitleCompany struct {
	Title   string
	Company string
}

// RefSets are the durable reference sets a dedup pass compares against:
// every source URL and every (title, company) pair already recorded for the
// user, across both scout_results and jobs.
type RefSets struct {
	URLs           map[string]struct{}
	TitleCompanies []TitleCompany
}

// Deduper removes candidates that duplicate an existing record or an earlier
// candidate in the same batch. First-seen wins within a batch: an accepted
// candidate is never displaced by a later one.
type Deduper struct {
	threshold int // fuzzy ratio above which title/company counts as a match
}

// NewDeduper returns a Deduper with the given fuzzy-match threshold (0–100).
func NewDeduper(threshold int) *Deduper {
	return &Deduper{threshold: threshold}
}

// Filter returns the candidates that survive dedup, in input order.
//
// A candidate is rejected when:
//  1. its URL is non-empty and already in refs.URLs or seen earlier in the
//     batch, or
//  2. both its title and its company fuzzy-match (ratio > threshold) an
//     existing pair in refs.TitleCompanies, or
//  3. the same holds against a pair accepted earlier in this batch.
func (d *Deduper) Filter(items []model.Candidate, refs RefSets) []model.Candidate {
	seenURLs := make(map[string]struct{})
	var seenPairs []TitleCompany
	unique := make([]model.Candidate, 0, len(items))

	for _, item := range items {
		if item.SourceURL != "" {
			if _, ok := refs.URLs[item.SourceURL]; ok {
				continue
			}
			if _, ok := seenURLs[item.SourceURL]; ok {
				continue
			}
		}

		if d.matchesAny(item, refs.TitleCompanies) || d.matchesAny(item, seenPairs) {
			continue
		}

		if item.SourceURL != "" {
			seenURLs[item.SourceURL] = struct{}{}
		}
		seenPairs = append(seenPairs, TitleCompany{Title: item.Title, Company: item.CompanyName})
		unique = append(unique, item)
	}

	return unique
}

func (d *Deduper) matchesAny(item model.Candidate, pairs []TitleCompany) bool {
	title := strings.ToLower(item.Title)
	company := strings.ToLower(item.CompanyName)
	for _, p := range pairs {
		titleRatio := fuzzy.Ratio(title, strings.ToLower(p.Title))
		companyRatio := fuzzy.Ratio(company, strings.ToLower(p.Company))
		if titleRatio > d.threshold && companyRatio > d.threshold {
			return true
		}
	}
	return false
}
