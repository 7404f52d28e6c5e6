package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/m2mgate/pkg/ratelimit"
)

// DefaultSweepInterval matches the window of the default rate-limit
// policies.
const DefaultSweepInterval = time.Minute

// HousekeepingService periodically drops rate-limit counters whose window
// has closed. Audit entries are append-only and never touched here.
type HousekeepingService struct {
	Limiter  ratelimit.Sweeper
	Logger   *slog.Logger
	Interval time.Duration
}

// NewHousekeepingService creates a housekeeping service. If interval is 0
// or negative, defaults to DefaultSweepInterval.
func NewHousekeepingService(limiter ratelimit.Sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HousekeepingService{
		Limiter:  limiter,
		Logger:   logger,
		Interval: interval,
	}
}

// Run sweeps every Interval until ctx is done.
func (s *HousekeepingService) Run(ctx context.Context) error {
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
	defer s.Logger.Info("housekeeping service stopped")

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// Cleanup runs one sweep of the limiter state. Failures are logged.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	n, err := s.Limiter.Sweep(ctx)
	if err != nil {
		s.Logger.Error("rate limit sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.Logger.Debug("housekeeping cleanup completed", "ratelimit_entries_removed", n)
	}
}
