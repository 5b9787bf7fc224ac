// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"taskpay-engine/internal/service"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic background jobs of the engine. Today that is a
// single job: the free-text auto-approve sweep. The sweep is complementary to
// the lazy past-window check in the review path; both resolve through the
// same single-fire transition, so a submission is never paid twice.
type Scheduler struct {
	cron      *cron.Cron
	campaigns service.CampaignService
	logger    *slog.Logger
}

// New creates a Scheduler with the auto-approve sweep registered on spec.
func New(campaigns service.CampaignService, sweepSpec string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		campaigns: campaigns,
		logger:    logger,
	}

	if _, err := s.cron.AddFunc(sweepSpec, s.runSweep); err != nil {
		return nil, fmt.Errorf("failed to register auto-approve sweep: %w", err)
	}
	return s, nil
}

func (s *Scheduler) runSweep() {
	approved, err := s.campaigns.SweepAutoApprovals(context.Background())
	if err != nil {
		s.logger.Error("auto-approve sweep failed", "error", err)
		return
	}
	if approved > 0 {
		s.logger.Info("auto-approve sweep resolved submissions", "approved", approved)
	}
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
