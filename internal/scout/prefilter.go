package scout

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"jobscout/scout-service/internal/model"
)

// FilterConfig carries the keyword lists the pre-filter matches against.
// They are injected configuration, not constants, so they can be tuned and
// tested without code changes.
type FilterConfig struct {
	// LocationKeywords is the allow-list a non-empty candidate location must
	// contain (before falling back to the user's target locations).
	LocationKeywords []string
	// SeniorityKeywords admit a title outright when present as a substring.
	SeniorityKeywords []string
	// ConsumerKeywords set the advisory domain hint; they never gate admission.
	ConsumerKeywords []string
	// AgencyPhrases reject a company outright (staffing/recruitment shops).
	AgencyPhrases []string
}

// DefaultFilterConfig returns the keyword lists the service ships with.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		LocationKeywords: []string{
			"bangalore", "bengaluru", "remote", "india", "work from home",
			"hybrid", "pan india", "anywhere in india",
		},
		SeniorityKeywords: []string{
			"director", "vp", "vice president", "head of", "lead",
			"principal", "senior director", "chief", "svp", "avp",
			"general manager", "gm",
		},
		ConsumerKeywords: []string{
			"b2c", "consumer", "d2c", "direct to consumer", "marketplace",
			"e-commerce", "ecommerce", "fintech", "edtech", "healthtech",
			"gaming", "social", "media", "entertainment", "food",
			"delivery", "mobility", "travel", "retail",
		},
		AgencyPhrases: []string{
			"staffing", "recruitment agency", "consulting firm",
			"body shopping", "manpower",
		},
	}
}

// Prefilter is the cheap admission gate that runs before any paid scoring
// call. Rejection rules are evaluated in order and short-circuit.
type Prefilter struct {
	cfg           FilterConfig
	roleThreshold int // partial ratio above which a title matches a target role
}

// NewPrefilter constructs a Prefilter.
func NewPrefilter(cfg FilterConfig, roleThreshold int) *Prefilter {
	return &Prefilter{cfg: cfg, roleThreshold: roleThreshold}
}

// Apply returns the candidates that pass all three rules, annotated with the
// consumer-domain hint. excludedCompanies keys must be lower-cased.
func (p *Prefilter) Apply(
	items []model.Candidate,
	targetRoles, targetLocations []string,
	excludedCompanies map[string]struct{},
) []model.Candidate {
	passed := make([]model.Candidate, 0, len(items))

	for _, item := range items {
		title := strings.ToLower(item.Title)
		company := strings.ToLower(item.CompanyName)
		location := strings.ToLower(item.Location)
		snippet := strings.ToLower(item.Snippet)

		// Rule 1: excluded company, exact or agency phrase.
		if _, ok := excludedCompanies[company]; ok {
			continue
		}
		if containsAny(company, p.cfg.AgencyPhrases) {
			continue
		}

		// Rule 2: location allow-list. A candidate with no location text at
		// all is treated as unknown and passes.
		if location != "" {
			ok := containsAny(location, p.cfg.LocationKeywords)
			if !ok {
				for _, loc := range targetLocations {
					if strings.Contains(location, strings.ToLower(loc)) {
						ok = true
						break
					}
				}
			}
			if !ok {
				continue
			}
		}

		// Rule 3: seniority keyword in title, or fuzzy match on a target role.
		ok := containsAny(title, p.cfg.SeniorityKeywords)
		if !ok {
			for _, role := range targetRoles {
				if fuzzy.PartialRatio(strings.ToLower(role), title) > p.roleThreshold {
					ok = true
					break
				}
			}
		}
		if !ok {
			continue
		}

		combined := title + " " + company + " " + location + " " + snippet
		item.ConsumerHint = containsAny(combined, p.cfg.ConsumerKeywords)
		passed = append(passed, item)
	}

	return passed
}

// containsAny reports whether text contains any of the (lower-case) keywords.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
