// Package scheduler triggers the nightly pipeline run on a cron schedule
// evaluated in the business timezone.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// RunFunc is invoked for each scheduled trigger. The trigger carries no
// business date; date derivation happens downstream at the event consumer.
type RunFunc func(ctx context.Context)

// Service wraps a cron runner pinned to the business timezone.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	mu      sync.Mutex
	running bool
}

// NewService creates a scheduler evaluating expressions in loc. The schedule
// "30 18 * * 1-5" in Australia/Sydney fires at 18:30 Sydney time regardless
// of the host clock's zone.
func NewService(loc *time.Location, logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}
}

// Schedule registers run under the given cron expression.
func (s *Service) Schedule(cronExpr string, run RunFunc) error {
	if cronExpr == "" {
		return fmt.Errorf("cron expression is required")
	}

	_, err := s.cron.AddFunc(cronExpr, func() {
		s.logger.Info().Str("cron_expr", cronExpr).Msg("Scheduled trigger fired")
		run(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to register cron job %q: %w", cronExpr, err)
	}

	s.logger.Info().Str("cron_expr", cronExpr).Msg("Scheduled job registered")
	return nil
}

// Start begins dispatching scheduled jobs.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.cron.Start()
	s.running = true
	s.logger.Info().Msg("Scheduler started")
	return nil
}

// Stop halts dispatch and waits for in-flight jobs to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
}
