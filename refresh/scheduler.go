package refresh

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Scheduler triggers a refresh run on a fixed interval.
type Scheduler struct {
	refresher *Refresher
	interval  time.Duration
}

func NewScheduler(refresher *Refresher, interval time.Duration) *Scheduler {
	return &Scheduler{refresher: refresher, interval: interval}
}

// Start runs until ctx is cancelled. The first run happens one interval
// after Start. A tick that lands while a run is still active is skipped.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	slog.Info("refresh scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.refresher.Run(ctx); err != nil {
				if errors.Is(err, ErrRefreshInProgress) {
					slog.Info("scheduled refresh skipped, previous run still active")
					continue
				}
				if errors.Is(err, ErrClosed) {
					slog.Info("refresh scheduler stopped")
					return
				}
				slog.Error("scheduled refresh failed", "error", err)
			}
		}
	}
}
