package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/curatorhq/curator/internal/model"
)

// materializeEntry upserts the active curated entry for (owner,
// memory) inside an approval transaction. An inactive entry is
// reactivated rather than duplicated; the partial unique index backs
// the invariant against retried approvals.
func (s *SQLiteStore) materializeEntry(ctx context.Context, tx *sql.Tx, owner, memoryID, category string, priority int) error {
	if category == "" {
		category = "general"
	}
	// 0 is a legal priority; out-of-range values clamp to [0, 100].
	if priority < 0 {
		priority = 0
	}
	if priority > 100 {
		priority = 100
	}
	now := formatTime(time.Now())

	hit, err := execOne(ctx, tx,
		`UPDATE curated_entries SET active = 1, deactivation_reason = NULL,
		 category = ?, priority = ?, updated_at = ?
		 WHERE owner_id = ? AND memory_id = ?`,
		category, priority, now, owner, memoryID)
	if err != nil {
		return fmt.Errorf("reactivate entry: %w", err)
	}
	if hit {
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO curated_entries (id, owner_id, memory_id, category, priority, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.newID(), owner, memoryID, category, priority, now, now)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// RetrievalMatch is one candidate from the similarity capability.
type RetrievalMatch struct {
	MemoryID  string
	Relevance float64
}

// RetrieveParams holds parameters for the assistant read path.
type RetrieveParams struct {
	Owner   string
	Matches []RetrievalMatch
	Limit   int
	ActorID string
}

// RetrieveContext returns the owner's active curated entries among the
// candidate matches, ordered by (priority desc, relevance desc).
// Retrieval count and last-retrieved time are bumped for every entry
// returned, with a ledger event each, in one transaction.
func (s *SQLiteStore) RetrieveContext(ctx context.Context, p RetrieveParams) ([]model.CuratedEntry, error) {
	if err := requireOwner(p.Owner); err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}
	if len(p.Matches) == 0 {
		return nil, nil
	}

	relevance := make(map[string]float64, len(p.Matches))
	placeholders := make([]string, 0, len(p.Matches))
	args := []interface{}{p.Owner}
	for _, m := range p.Matches {
		relevance[m.MemoryID] = m.Relevance
		placeholders = append(placeholders, "?")
		args = append(args, m.MemoryID)
	}

	query := `SELECT ` + curatedColumns + ` FROM curated_entries
		 WHERE owner_id = ? AND active = 1 AND memory_id IN (` + strings.Join(placeholders, ", ") + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.CuratedEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		e.RelevanceScore = relevance[e.MemoryID]
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].RelevanceScore > entries[j].RelevanceScore
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	if len(entries) == 0 {
		return nil, nil
	}

	actor := p.ActorID
	if actor == "" {
		actor = "assistant"
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for i := range entries {
		e := &entries[i]
		_, err := tx.ExecContext(ctx,
			`UPDATE curated_entries SET retrieval_count = retrieval_count + 1,
			 last_retrieved_at = ?, relevance_score = ?, updated_at = ?
			 WHERE id = ?`,
			formatTime(now), e.RelevanceScore, formatTime(now), e.ID)
		if err != nil {
			return nil, err
		}
		err = s.appendEvent(ctx, tx, model.ProvenanceEvent{
			OwnerID:   p.Owner,
			MemoryID:  e.MemoryID,
			EventType: model.EventRetrieved,
			ActorID:   actor,
			ActorKind: model.ActorAssistant,
			Context:   map[string]any{"entry_id": e.ID, "relevance": e.RelevanceScore},
		})
		if err != nil {
			return nil, err
		}
		e.RetrievalCount++
		t := now
		e.LastRetrievedAt = &t
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeactivateEntry retires an active entry. It never deletes. The
// memory's promoted flag is cleared in the same transaction, so the
// only way back into curated context is a fresh approved promotion.
// Deactivating an already-inactive entry is a no-op.
func (s *SQLiteStore) DeactivateEntry(ctx context.Context, owner, entryID, reason, actorID string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	entry, err := s.GetEntry(ctx, owner, entryID)
	if err != nil {
		return err
	}

	now := formatTime(time.Now())
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	hit, err := execOne(ctx, tx,
		`UPDATE curated_entries SET active = 0, deactivation_reason = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND active = 1`,
		reason, now, entryID, owner)
	if err != nil {
		return err
	}
	if !hit {
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE memories SET promoted = 0, updated_at = ? WHERE id = ? AND owner_id = ?`,
		now, entry.MemoryID, owner)
	if err != nil {
		return fmt.Errorf("clear promoted: %w", err)
	}

	err = s.appendEvent(ctx, tx, model.ProvenanceEvent{
		OwnerID:   owner,
		MemoryID:  entry.MemoryID,
		EventType: model.EventDeactivated,
		ActorID:   actorID,
		ActorKind: model.ActorCurator,
		Context:   map[string]any{"entry_id": entryID, "reason": reason},
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

const curatedColumns = `id, owner_id, memory_id, category, priority, relevance_score,
	retrieval_count, last_retrieved_at, active, deactivation_reason, created_at, updated_at`

// GetEntry loads one curated entry, enforcing ownership.
func (s *SQLiteStore) GetEntry(ctx context.Context, owner, id string) (*model.CuratedEntry, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+curatedColumns+` FROM curated_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if e.OwnerID != owner {
		return nil, fmt.Errorf("entry %s: %w", id, ErrTenantViolation)
	}
	return &e, nil
}

// ListCurated returns an owner's curated entries, active first by
// priority.
func (s *SQLiteStore) ListCurated(ctx context.Context, owner string, activeOnly bool, limit int) ([]model.CuratedEntry, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	where := "owner_id = ?"
	if activeOnly {
		where += " AND active = 1"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+curatedColumns+` FROM curated_entries WHERE `+where+`
		 ORDER BY active DESC, priority DESC, created_at DESC LIMIT ?`,
		owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.CuratedEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ActiveEntryCount reports active entries for one (owner, memory)
// pair. Exists for invariant checks; the schema keeps it at most 1.
func (s *SQLiteStore) ActiveEntryCount(ctx context.Context, owner, memoryID string) (int, error) {
	if err := requireOwner(owner); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM curated_entries WHERE owner_id = ? AND memory_id = ? AND active = 1`,
		owner, memoryID).Scan(&n)
	return n, err
}

func scanEntry(row scanner) (model.CuratedEntry, error) {
	var e model.CuratedEntry
	var lastRetrieved, reason sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&e.ID, &e.OwnerID, &e.MemoryID, &e.Category, &e.Priority, &e.RelevanceScore,
		&e.RetrievalCount, &lastRetrieved, &e.Active, &reason, &createdAt, &updatedAt,
	)
	if err != nil {
		return e, err
	}

	e.LastRetrievedAt = parseTimePtr(lastRetrieved)
	if reason.Valid {
		e.DeactivationReason = reason.String
	}
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return e, nil
}
