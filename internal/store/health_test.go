package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/curatorhq/curator/internal/model"
)

func TestInsertSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	snap, err := s.InsertSnapshot(ctx, model.HealthSnapshot{
		OwnerID:        "alice",
		WindowStart:    start,
		WindowEnd:      start.Add(24 * time.Hour),
		Mood:           model.MoodHealthy,
		CoherenceScore: 0.8,
	})
	if err != nil {
		t.Fatalf("InsertSnapshot: %v", err)
	}
	if snap.ID == "" {
		t.Error("snapshot id not assigned")
	}

	// Buckets are immutable: a second write for the same window returns
	// the stored snapshot untouched.
	again, err := s.InsertSnapshot(ctx, model.HealthSnapshot{
		OwnerID:        "alice",
		WindowStart:    start,
		WindowEnd:      start.Add(24 * time.Hour),
		Mood:           model.MoodConfused,
		CoherenceScore: 0.1,
	})
	if err != nil {
		t.Fatalf("InsertSnapshot again: %v", err)
	}
	if again.ID != snap.ID {
		t.Errorf("second insert created a new snapshot")
	}
	if again.Mood != model.MoodHealthy {
		t.Errorf("stored mood = %q, want the original healthy", again.Mood)
	}
}

func TestInsertSnapshotUnknownMood(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.InsertSnapshot(context.Background(), model.HealthSnapshot{
		OwnerID:     "alice",
		WindowStart: time.Now().UTC(),
		WindowEnd:   time.Now().UTC().Add(time.Hour),
		Mood:        "ecstatic",
	}); err == nil {
		t.Fatal("expected error for unknown mood")
	}
}

func TestLatestSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LatestSnapshot(ctx, "alice")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	base := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * 24 * time.Hour)
		if _, err := s.InsertSnapshot(ctx, model.HealthSnapshot{
			OwnerID:     "alice",
			WindowStart: start,
			WindowEnd:   start.Add(24 * time.Hour),
			Mood:        model.MoodHealthy,
		}); err != nil {
			t.Fatalf("InsertSnapshot: %v", err)
		}
	}

	latest, err := s.LatestSnapshot(ctx, "alice")
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	want := base.Add(2 * 24 * time.Hour)
	if !latest.WindowStart.Equal(want) {
		t.Errorf("latest window start = %v, want %v", latest.WindowStart, want)
	}
}

func TestRetrievalStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e1 := promoteTestMemory(t, s, "alice", "first context", 50)
	promoteTestMemory(t, s, "alice", "second context", 50)

	// Two retrievals of the first entry, none of the second.
	for i := 0; i < 2; i++ {
		_, err := s.RetrieveContext(ctx, RetrieveParams{
			Owner:   "alice",
			Matches: []RetrievalMatch{{MemoryID: e1.MemoryID, Relevance: 1}},
		})
		if err != nil {
			t.Fatalf("RetrieveContext: %v", err)
		}
	}

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)
	st, err := s.RetrievalStats(ctx, "alice", from, to)
	if err != nil {
		t.Fatalf("RetrievalStats: %v", err)
	}
	if st.Retrievals != 2 {
		t.Errorf("retrievals = %d, want 2", st.Retrievals)
	}
	if st.DistinctMemories != 1 {
		t.Errorf("distinct memories = %d, want 1", st.DistinctMemories)
	}
	if st.ActiveEntries != 2 {
		t.Errorf("active entries = %d, want 2", st.ActiveEntries)
	}
}
