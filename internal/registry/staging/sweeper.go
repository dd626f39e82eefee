package staging

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/registro-museografico/museum-registry/internal/logging"
)

// Sweeper periodically removes the directories of expired or discarded drafts.
type Sweeper struct {
	area     *Area
	exists   DraftLookup
	maxAge   time.Duration
	schedule string
	cron     *cron.Cron
}

func NewSweeper(area *Area, exists DraftLookup, schedule string, maxAge time.Duration) *Sweeper {
	return &Sweeper{
		area:     area,
		exists:   exists,
		maxAge:   maxAge,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	logging.L().Info("staging sweeper started",
		zap.String("schedule", s.schedule),
		zap.Duration("max_age", s.maxAge))
	return nil
}

// RunOnce sweeps immediately.
func (s *Sweeper) RunOnce() {
	removed, err := s.area.Sweep(context.Background(), s.maxAge, s.exists)
	if err != nil {
		logging.L().Error("staging sweep failed", zap.Error(err), zap.Int("removed", removed))
		return
	}
	if removed > 0 {
		logging.L().Info("staging sweep finished", zap.Int("removed", removed))
	}
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
