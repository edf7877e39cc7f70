// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"

	"github.com/mcutler/reeldeck/internal/logger"
	"github.com/mcutler/reeldeck/internal/sync"
	"github.com/robfig/cron/v3"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron       *cron.Cron
	syncEngine *sync.Engine
	schedule   string
}

// New creates a new scheduler. schedule is a cron expression for the
// followed-list pull refresh, a fallback for events the push channel missed.
func New(syncEngine *sync.Engine, schedule string) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		syncEngine: syncEngine,
		schedule:   schedule,
	}
}

// Start registers jobs and starts the scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runRefresh); err != nil {
		return fmt.Errorf("failed to add refresh job: %w", err)
	}

	s.cron.Start()
	logger.Log.Info().
		Str("schedule", s.schedule).
		Msg("Scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	logger.Log.Info().Msg("Scheduler stopped")
}

// runRefresh executes the followed-list refresh job
func (s *Scheduler) runRefresh() {
	logger.Log.Debug().Msg("Running scheduled followed-list refresh")

	if err := s.syncEngine.RefreshFollowed(context.Background()); err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Followed-list refresh failed")
	}
}
