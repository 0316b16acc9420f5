package store

import (
	"context"
	"os"
)

// Stats holds per-owner pipeline counts plus database totals.
type Stats struct {
	DBPath            string `json:"db_path"`
	DBSizeBytes       int64  `json:"db_size_bytes"`
	Memories          int    `json:"memories"`
	PendingQuarantine int    `json:"pending_quarantine"`
	PromotedMemories  int    `json:"promoted_memories"`
	OpenRequests      int    `json:"open_requests"`
	ActiveEntries     int    `json:"active_entries"`
	ProvenanceEvents  int    `json:"provenance_events"`
	Decisions         int    `json:"decisions"`
	CompensationRows  int    `json:"compensation_rows"`
}

// Stats returns pipeline statistics for one owner.
func (s *SQLiteStore) Stats(ctx context.Context, owner, dbPath string) (*Stats, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	st := &Stats{DBPath: dbPath}
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE owner_id = ?`, owner).Scan(&st.Memories)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE owner_id = ? AND quarantine_status = 'pending'`, owner).Scan(&st.PendingQuarantine)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE owner_id = ? AND promoted = 1`, owner).Scan(&st.PromotedMemories)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM promotion_requests WHERE owner_id = ? AND status IN ('pending', 'in_review')`, owner).Scan(&st.OpenRequests)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM curated_entries WHERE owner_id = ? AND active = 1`, owner).Scan(&st.ActiveEntries)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM provenance_events WHERE owner_id = ?`, owner).Scan(&st.ProvenanceEvents)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM decisions WHERE owner_id = ?`, owner).Scan(&st.Decisions)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM compensation_entries WHERE owner_id = ?`, owner).Scan(&st.CompensationRows)

	return st, nil
}
