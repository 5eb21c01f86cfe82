// Package scout implements the job discovery pipeline:
// fetch → normalize → dedup → pre-filter → AI score → persist → notify.
package scout

import (
	"context"
	"errors"
	"time"

	"jobscout/scout-service/internal/model"
)

// ErrNotConfigured is returned by a Fetcher whose credentials are absent.
// It is a skip signal, not a failure: the run notes it and moves on.
var ErrNotConfigured = errors.New("source not configured")

// Fetcher queries one external job-listing provider.
//
// Contract: per-query failures (non-2xx, network error, malformed payload)
// are caught and logged inside Fetch; that query's contribution is omitted
// and the fetcher continues with remaining queries. Fetch only errors for
// ErrNotConfigured.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, queries []string) ([]model.Candidate, error)
}

// Bounded timeout for every external HTTP call. Exceeding it fails that
// call, never the run.
const httpTimeout = 30 * time.Second
