package scout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"jobscout/scout-service/internal/logger"
	"jobscout/scout-service/internal/model"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 10
)

// AdzunaFetcher fetches job offers from the Adzuna public API (primary
// source: structured job data with reliable field mapping).
type AdzunaFetcher struct {
	appID   string
	appKey  string
	country string // "in", "fr", "gb", …
	client  *http.Client
	log     logger.Logger
}

// NewAdzunaFetcher constructs a fetcher with a shared HTTP client.
func NewAdzunaFetcher(appID, appKey, country string, log logger.Logger) *AdzunaFetcher {
	return &AdzunaFetcher{
		appID:   appID,
		appKey:  appKey,
		country: country,
		client:  &http.Client{Timeout: httpTimeout},
		log:     log,
	}
}

// Name implements Fetcher.
func (f *AdzunaFetcher) Name() string { return "adzuna" }

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	ID          json.Number    `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Company     adzunaCompany  `json:"company"`
	Location    adzunaLocation `json:"location"`
	SalaryMin   float64        `json:"salary_min"`
	SalaryMax   float64        `json:"salary_max"`
	RedirectURL string         `json:"redirect_url"`
	Created     string         `json:"created"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// Fetch retrieves offers for each query. A failed query is logged and
// skipped; remaining queries still run.
func (f *AdzunaFetcher) Fetch(ctx context.Context, queries []string) ([]model.Candidate, error) {
	if f.appID == "" || f.appKey == "" {
		return nil, ErrNotConfigured
	}

	var results []model.Candidate
	for _, query := range queries {
		batch, err := f.fetchQuery(ctx, query)
		if err != nil {
			f.log.Error("adzuna fetch failed", logger.String("query", query), logger.Error(err))
			continue
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (f *AdzunaFetcher) fetchQuery(ctx context.Context, query string) ([]model.Candidate, error) {
	endpoint := fmt.Sprintf("%s/%s/search/1", adzunaBaseURL, f.country)

	params := url.Values{}
	params.Set("app_id", f.appID)
	params.Set("app_key", f.appKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", query)
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	results := make([]model.Candidate, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		if c, ok := normalizeAdzuna(r); ok {
			results = append(results, c)
		}
	}
	return results, nil
}

// normalizeAdzuna maps an Adzuna result to the common candidate shape.
// A result with no title is unusable and dropped.
func normalizeAdzuna(r adzunaResult) (model.Candidate, bool) {
	if r.Title == "" {
		return model.Candidate{}, false
	}

	company := r.Company.DisplayName
	if company == "" {
		company = "Unknown"
	}

	var salary string
	switch {
	case r.SalaryMin > 0 && r.SalaryMax > 0:
		salary = fmt.Sprintf("%.0f-%.0f", r.SalaryMin, r.SalaryMax)
	case r.SalaryMin > 0:
		salary = fmt.Sprintf("%.0f+", r.SalaryMin)
	}

	return model.Candidate{
		Source:      "adzuna",
		SourceURL:   model.Truncate(r.RedirectURL, model.MaxURLLen),
		Title:       model.Truncate(r.Title, model.MaxTitleLen),
		CompanyName: model.Truncate(company, model.MaxCompanyLen),
		Location:    model.Truncate(r.Location.DisplayName, model.MaxTitleLen),
		Snippet:     model.Truncate(r.Description, model.MaxSnippetLen),
		SalaryRaw:   salary,
		PostedRaw:   model.Truncate(r.Created, 100),
	}, true
}
