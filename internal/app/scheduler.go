package app

import (
	"context"
	"time"

	"github.com/bavirtual/session-booking/internal/service"
	"go.uber.org/zap"
)

// Scheduler drives the periodic lifecycle sweep.
type Scheduler struct {
	sweep    *service.Sweep
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewScheduler(sweep *service.Sweep, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sweep:    sweep,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))
	go s.runSweepTask(ctx)
}

func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runSweepTask runs one sweep immediately, then one per tick.
func (s *Scheduler) runSweepTask(ctx context.Context) {
	s.runSweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Sweep task cancelled")
			return
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	s.logger.Info("Starting lifecycle sweep")

	if err := s.sweep.Execute(ctx); err != nil {
		s.logger.Error("Lifecycle sweep failed", zap.Error(err))
		return
	}

	s.logger.Info("Lifecycle sweep completed")
}
