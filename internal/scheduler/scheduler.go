// Package scheduler wires up the cron job that periodically runs the scout
// pipeline for the configured owner user.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"jobscout/scout-service/internal/logger"
	"jobscout/scout-service/internal/scout"
)

// Scheduler wraps robfig/cron and manages the scheduled scout runs.
type Scheduler struct {
	cron       *cron.Cron
	runner     *scout.Runner
	spec       string // cron spec, e.g. "@every 24h"
	runOnStart bool
	log        logger.Logger
}

// New creates a Scheduler that fires every intervalHours hours.
func New(runner *scout.Runner, intervalHours int, runOnStart bool, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		runner:     runner,
		spec:       fmt.Sprintf("@every %dh", intervalHours),
		runOnStart: runOnStart,
		log:        log,
	}
}

// Start registers the job and starts the scheduler. When runOnStart is set,
// one run fires immediately (non-blocking) so the feed is populated without
// waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runScout(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", logger.String("spec", s.spec))

	if s.runOnStart {
		go s.runScout(ctx)
	}
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("cron stopped")
}

// runScout runs the pipeline for the owner user and logs the summary.
// Scheduled runs have no caller to return the summary to.
func (s *Scheduler) runScout(ctx context.Context) {
	sum := s.runner.Run(ctx, "")
	s.log.Info("scheduled scout run finished",
		logger.String("runId", sum.RunID),
		logger.Strings("sources", sum.SourcesQueried),
		logger.Int("fetched", sum.TotalFetched),
		logger.Int("promoted", sum.Promoted),
		logger.Int("forReview", sum.SavedForReview),
		logger.Int("dismissed", sum.Dismissed),
		logger.Strings("errors", sum.Errors))
}
