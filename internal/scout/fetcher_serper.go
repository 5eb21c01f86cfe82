package scout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jobscout/scout-service/internal/logger"
	"jobscout/scout-service/internal/model"
)

const serperSearchURL = "https://google.serper.dev/search"

// SerperFetcher fetches job listings through the Serper.dev Google Search
// API (supplementary source: broader coverage, looser field mapping).
// Queries should already include "jobs" or "hiring" to keep results
// job-relevant; the runner appends that suffix.
type SerperFetcher struct {
	apiKey   string
	country  string // Google gl code, e.g. "in"
	location string // e.g. "Bangalore, Karnataka, India"
	client   *http.Client
	log      logger.Logger
}

// NewSerperFetcher constructs a fetcher with a shared HTTP client.
func NewSerperFetcher(apiKey, country, location string, log logger.Logger) *SerperFetcher {
	return &SerperFetcher{
		apiKey:   apiKey,
		country:  country,
		location: location,
		client:   &http.Client{Timeout: httpTimeout},
		log:      log,
	}
}

// Name implements Fetcher.
func (f *SerperFetcher) Name() string { return "serper" }

type serperRequest struct {
	Q        string `json:"q"`
	GL       string `json:"gl,omitempty"`
	Location string `json:"location,omitempty"`
	Type     string `json:"type"`
	Num      int    `json:"num"`
}

type serperResponse struct {
	Organic []serperOrganic `json:"organic"`
}

type serperOrganic struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Fetch retrieves organic results for each query. A failed query is logged
// and skipped; remaining queries still run.
func (f *SerperFetcher) Fetch(ctx context.Context, queries []string) ([]model.Candidate, error) {
	if f.apiKey == "" {
		return nil, ErrNotConfigured
	}

	var results []model.Candidate
	for _, query := range queries {
		batch, err := f.fetchQuery(ctx, query)
		if err != nil {
			f.log.Error("serper fetch failed", logger.String("query", query), logger.Error(err))
			continue
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (f *SerperFetcher) fetchQuery(ctx context.Context, query string) ([]model.Candidate, error) {
	payload, err := json.Marshal(serperRequest{
		Q:        query,
		GL:       f.country,
		Location: f.location,
		Type:     "search",
		Num:      10,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperSearchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", f.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http POST: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp serperResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	results := make([]model.Candidate, 0, len(apiResp.Organic))
	for _, item := range apiResp.Organic {
		if c, ok := normalizeSerper(item); ok {
			results = append(results, c)
		}
	}
	return results, nil
}

// titleSeparators split "Role at Company" / "Role - Company" style titles.
var titleSeparators = []string{" at ", " - ", " | ", " — "}

// normalizeSerper maps a Serper organic result to the common candidate
// shape. The company name is extracted from the title when a known
// separator is present; otherwise it falls back to "Unknown". Organic
// results carry no location.
func normalizeSerper(item serperOrganic) (model.Candidate, bool) {
	if item.Title == "" || item.Link == "" {
		return model.Candidate{}, false
	}

	title := item.Title
	company := "Unknown"
	for _, sep := range titleSeparators {
		if idx := strings.Index(title, sep); idx >= 0 {
			company = strings.TrimSpace(title[idx+len(sep):])
			title = strings.TrimSpace(title[:idx])
			if company == "" {
				company = "Unknown"
			}
			break
		}
	}

	return model.Candidate{
		Source:      "serper",
		SourceURL:   model.Truncate(item.Link, model.MaxURLLen),
		Title:       model.Truncate(title, model.MaxTitleLen),
		CompanyName: model.Truncate(company, model.MaxCompanyLen),
		Snippet:     model.Truncate(item.Snippet, model.MaxSnippetLen),
	}, true
}
