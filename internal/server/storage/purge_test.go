package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sheetbase/drive-v1/internal/drive"
)

type recordingPurgeable struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (r *recordingPurgeable) PurgeTrashed(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, cutoff)
	return len(r.cutoffs), r.err
}

func TestPurgeService_RunPurge(t *testing.T) {
	t.Run("uses retention window", func(t *testing.T) {
		store := &recordingPurgeable{}
		ps := NewPurgeService(store, 48*time.Hour, time.Hour)
		now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
		ps.now = func() time.Time { return now }

		ps.runPurge(context.Background())

		if len(store.cutoffs) != 1 {
			t.Fatalf("expected 1 purge, got %d", len(store.cutoffs))
		}
		if want := now.Add(-48 * time.Hour); !store.cutoffs[0].Equal(want) {
			t.Errorf("expected cutoff %v, got %v", want, store.cutoffs[0])
		}
	})

	t.Run("errors are logged not fatal", func(t *testing.T) {
		store := &recordingPurgeable{err: errors.New("db down")}
		ps := NewPurgeService(store, time.Hour, time.Hour)
		ps.runPurge(context.Background())
	})

	t.Run("purges memory store", func(t *testing.T) {
		ctx := context.Background()
		mem := drive.NewMemoryStore("")
		root := mem.AddRootFolder("root", "uploads")

		old, _ := root.CreateFile(ctx, "old.txt", "text/plain", []byte("x"))
		keep, _ := root.CreateFile(ctx, "keep.txt", "text/plain", []byte("x"))
		old.SetTrashed(ctx, true)

		// zero retention: everything already in the trash is due
		ps := NewPurgeService(mem, 0, time.Hour)
		ps.now = func() time.Time { return time.Now().Add(time.Second) }
		ps.runPurge(ctx)

		if _, err := mem.FileByID(ctx, old.ID()); !errors.Is(err, drive.ErrNotFound) {
			t.Errorf("expected trashed file to be purged, got %v", err)
		}
		if _, err := mem.FileByID(ctx, keep.ID()); err != nil {
			t.Errorf("expected live file to survive, got %v", err)
		}
	})
}

func TestPurgeService_StartStop(t *testing.T) {
	store := &recordingPurgeable{}
	ps := NewPurgeService(store, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	ps.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		ps.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("purge service did not stop")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.cutoffs) != 1 {
		t.Errorf("expected the immediate run only, got %d", len(store.cutoffs))
	}
}

func TestPurgeService_NonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Minute} {
		ps := NewPurgeService(&recordingPurgeable{}, time.Hour, interval)
		if ps.interval != time.Hour {
			t.Errorf("interval %v: expected fallback of 1h, got %v", interval, ps.interval)
		}

		ctx, cancel := context.WithCancel(context.Background())
		ps.Start(ctx)
		cancel()
		ps.Wait()
	}
}
