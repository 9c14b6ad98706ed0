// Package jobs runs the periodic background work of the client.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher starts a catalog refresh. *catalog.Coordinator implements it.
type Refresher interface {
	Refresh(ctx context.Context)
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler triggers refreshes on a cron schedule.
type Scheduler struct {
	sched  *cron.Cron
	logger *zap.Logger
	spec   string
}

// NewScheduler registers a refresh job for spec (e.g. "@every 5m" or "0 */10 * * * *").
// An empty spec yields a scheduler with no jobs.
func NewScheduler(spec string, r Refresher, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		sched:  cron.New(cron.WithLocation(time.Local), cron.WithParser(cronParser)),
		logger: logger.Named("jobs"),
		spec:   spec,
	}
	if spec == "" {
		return s, nil
	}

	_, err := s.sched.AddFunc(spec, func() {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("auto refresh panicked", zap.Any("panic", err))
			}
		}()
		s.logger.Debug("auto refresh triggered")
		r.Refresh(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("jobs: invalid CATALOG_AUTO_REFRESH %q: %w", spec, err)
	}
	return s, nil
}

// Enabled reports whether a refresh job is registered.
func (s *Scheduler) Enabled() bool {
	return len(s.sched.Entries()) > 0
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	if !s.Enabled() {
		return
	}
	s.sched.Start()
	s.logger.Info("auto refresh scheduled", zap.String("spec", s.spec))
}

// Stop stops scheduling and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.sched.Stop().Done()
}
