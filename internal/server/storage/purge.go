package storage

import (
	"context"
	"log/slog"
	"time"
)

// Purgeable is a store that can drop files trashed before a cutoff.
type Purgeable interface {
	PurgeTrashed(ctx context.Context, cutoff time.Time) (int, error)
}

// PurgeService periodically removes files that have been in the trash longer
// than the retention window.
type PurgeService struct {
	store     Purgeable
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	done      chan struct{}
}

// NewPurgeService creates a new purge service. A non-positive interval falls
// back to an hour.
func NewPurgeService(store Purgeable, retention, interval time.Duration) *PurgeService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &PurgeService{
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start begins the purge loop in a background goroutine.
func (ps *PurgeService) Start(ctx context.Context) {
	slog.Info("purge service started", "interval", ps.interval, "retention", ps.retention)

	go func() {
		ticker := time.NewTicker(ps.interval)
		defer ticker.Stop()

		// Run once immediately on start
		ps.runPurge(ctx)

		for {
			select {
			case <-ticker.C:
				ps.runPurge(ctx)
			case <-ctx.Done():
				slog.Info("purge service stopping")
				close(ps.done)
				return
			}
		}
	}()
}

// Wait blocks until the purge service has fully stopped.
func (ps *PurgeService) Wait() {
	<-ps.done
}

func (ps *PurgeService) runPurge(ctx context.Context) {
	cutoff := ps.now().Add(-ps.retention)

	n, err := ps.store.PurgeTrashed(ctx, cutoff)
	if err != nil {
		slog.Error("failed to purge trashed files", "error", err)
		return
	}

	slog.Info("purge cycle complete", "purged", n, "cutoff", cutoff)
}
