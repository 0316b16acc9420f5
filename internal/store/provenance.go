package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/curatorhq/curator/internal/model"
)

// appendEvent writes one ledger row inside the caller's transaction so
// the primary mutation and its provenance commit together or neither
// does.
func (s *SQLiteStore) appendEvent(ctx context.Context, tx *sql.Tx, ev model.ProvenanceEvent) error {
	if err := validateEvent(ev); err != nil {
		return err
	}
	if ev.ID == "" {
		ev.ID = s.newID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO provenance_events (id, owner_id, memory_id, event_type, actor_id, actor_kind, context, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.OwnerID, ev.MemoryID, ev.EventType, ev.ActorID, ev.ActorKind,
		jsonText(ev.Context), formatTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("append provenance: %w", err)
	}
	return nil
}

func validateEvent(ev model.ProvenanceEvent) error {
	if ev.OwnerID == "" {
		return fmt.Errorf("%w: missing owner id", ErrInvalidEvent)
	}
	if ev.MemoryID == "" {
		return fmt.Errorf("%w: missing memory id", ErrInvalidEvent)
	}
	if ev.EventType == "" {
		return fmt.Errorf("%w: missing event type", ErrInvalidEvent)
	}
	if ev.ActorID == "" {
		return fmt.Errorf("%w: missing actor id", ErrInvalidEvent)
	}
	if !model.ValidActorKinds[ev.ActorKind] {
		return fmt.Errorf("%w: unknown actor kind %q", ErrInvalidEvent, ev.ActorKind)
	}
	return nil
}

// RecordEvent appends a standalone provenance event. Used by external
// collaborators (e.g. the assistant runtime recording
// used-in-generation); pipeline mutations write their events inside
// their own transactions instead.
func (s *SQLiteStore) RecordEvent(ctx context.Context, ev model.ProvenanceEvent) (*model.ProvenanceEvent, error) {
	if err := requireOwner(ev.OwnerID); err != nil {
		return nil, err
	}
	if err := validateEvent(ev); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if ev.ID == "" {
		ev.ID = s.newID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := s.appendEvent(ctx, tx, ev); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &ev, nil
}

// ListEventsParams filters the provenance read path.
type ListEventsParams struct {
	Owner     string
	MemoryID  string
	EventType string
	Limit     int
}

// ListEvents returns ledger rows for an owner in sequence order.
func (s *SQLiteStore) ListEvents(ctx context.Context, p ListEventsParams) ([]model.ProvenanceEvent, error) {
	if err := requireOwner(p.Owner); err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}

	where := []string{"owner_id = ?"}
	args := []interface{}{p.Owner}
	if p.MemoryID != "" {
		where = append(where, "memory_id = ?")
		args = append(args, p.MemoryID)
	}
	if p.EventType != "" {
		where = append(where, "event_type = ?")
		args = append(args, p.EventType)
	}

	query := `SELECT seq, id, owner_id, memory_id, event_type, actor_id, actor_kind, context, created_at
		 FROM provenance_events WHERE ` + strings.Join(where, " AND ") + ` ORDER BY seq LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.ProvenanceEvent
	for rows.Next() {
		var ev model.ProvenanceEvent
		var contextJSON sql.NullString
		var createdAt string
		if err := rows.Scan(&ev.Seq, &ev.ID, &ev.OwnerID, &ev.MemoryID, &ev.EventType,
			&ev.ActorID, &ev.ActorKind, &contextJSON, &createdAt); err != nil {
			return nil, err
		}
		ev.Context = parseJSONText(contextJSON)
		ev.CreatedAt = parseTime(createdAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountEvents returns the ledger size for one memory.
func (s *SQLiteStore) CountEvents(ctx context.Context, owner, memoryID string) (int, error) {
	if err := requireOwner(owner); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM provenance_events WHERE owner_id = ? AND memory_id = ?`,
		owner, memoryID).Scan(&n)
	return n, err
}
