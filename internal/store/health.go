package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/curatorhq/curator/internal/model"
)

// InsertSnapshot persists a health snapshot. Buckets are immutable:
// when the (owner, window_start) bucket already has a snapshot the
// stored one is returned unchanged.
func (s *SQLiteStore) InsertSnapshot(ctx context.Context, snap model.HealthSnapshot) (*model.HealthSnapshot, error) {
	if err := requireOwner(snap.OwnerID); err != nil {
		return nil, err
	}
	if !model.ValidMoods[snap.Mood] {
		return nil, fmt.Errorf("unknown mood %q", snap.Mood)
	}

	if snap.ID == "" {
		snap.ID = s.newID()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO health_snapshots (id, owner_id, window_start, window_end, mood,
		 hallucination_rate, coherence_score, confidence_score, refusal_count, context_utilization, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, window_start) DO NOTHING`,
		snap.ID, snap.OwnerID, formatTime(snap.WindowStart), formatTime(snap.WindowEnd),
		snap.Mood, snap.HallucinationRate, snap.CoherenceScore, snap.ConfidenceScore,
		snap.RefusalCount, snap.ContextUtilization, formatTime(snap.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return &snap, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM health_snapshots WHERE owner_id = ? AND window_start = ?`,
		snap.OwnerID, formatTime(snap.WindowStart))
	existing, err := scanSnapshot(row)
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// LatestSnapshot returns the newest snapshot for an owner.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context, owner string) (*model.HealthSnapshot, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM health_snapshots
		 WHERE owner_id = ? ORDER BY window_start DESC LIMIT 1`, owner)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no snapshots for owner: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// RetrievalStats are the curated-context aggregates one health window
// reads, derived from the ledger and active entries.
type RetrievalStats struct {
	Retrievals       int `json:"retrievals"`
	DistinctMemories int `json:"distinct_memories"`
	ActiveEntries    int `json:"active_entries"`
}

// RetrievalStats aggregates retrieval activity for an owner inside a
// window.
func (s *SQLiteStore) RetrievalStats(ctx context.Context, owner string, from, to time.Time) (RetrievalStats, error) {
	var st RetrievalStats
	if err := requireOwner(owner); err != nil {
		return st, err
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT memory_id) FROM provenance_events
		 WHERE owner_id = ? AND event_type = ? AND created_at >= ? AND created_at < ?`,
		owner, model.EventRetrieved, formatTime(from), formatTime(to)).Scan(
		&st.Retrievals, &st.DistinctMemories)
	if err != nil {
		return st, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM curated_entries WHERE owner_id = ? AND active = 1`,
		owner).Scan(&st.ActiveEntries)
	return st, err
}

const snapshotColumns = `id, owner_id, window_start, window_end, mood,
	hallucination_rate, coherence_score, confidence_score, refusal_count, context_utilization, created_at`

func scanSnapshot(row scanner) (model.HealthSnapshot, error) {
	var snap model.HealthSnapshot
	var windowStart, windowEnd, createdAt string

	err := row.Scan(
		&snap.ID, &snap.OwnerID, &windowStart, &windowEnd, &snap.Mood,
		&snap.HallucinationRate, &snap.CoherenceScore, &snap.ConfidenceScore,
		&snap.RefusalCount, &snap.ContextUtilization, &createdAt,
	)
	if err != nil {
		return snap, err
	}

	snap.WindowStart = parseTime(windowStart)
	snap.WindowEnd = parseTime(windowEnd)
	snap.CreatedAt = parseTime(createdAt)
	return snap, nil
}
