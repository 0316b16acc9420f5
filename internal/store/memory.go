package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/curatorhq/curator/internal/model"
)

// SubmitParams holds parameters for ingesting a memory.
type SubmitParams struct {
	Owner      string
	Content    string
	SourceType string
	Metadata   map[string]any
	ActorID    string // defaults to the owner
}

// Fingerprint returns the dedup hash for a content body.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// SubmitMemory ingests content for an owner. Dedup is strict by
// fingerprint: an identical resubmission returns the existing memory
// (created=false) and still appends a ledger event. New memories start
// in quarantine status pending.
func (s *SQLiteStore) SubmitMemory(ctx context.Context, p SubmitParams) (*model.Memory, bool, error) {
	if err := requireOwner(p.Owner); err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, false, fmt.Errorf("content is required")
	}

	sourceType := p.SourceType
	if sourceType == "" {
		sourceType = "text"
	}
	actor := p.ActorID
	if actor == "" {
		actor = p.Owner
	}

	now := time.Now().UTC()
	id := s.newID()
	fp := Fingerprint(p.Content)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO memories (id, owner_id, content, fingerprint, source_type, metadata, quarantine_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, fingerprint) DO NOTHING`,
		id, p.Owner, p.Content, fp, sourceType, jsonText(p.Metadata),
		model.QuarantinePending, formatTime(now), formatTime(now))
	if err != nil {
		return nil, false, fmt.Errorf("insert memory: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	created := n > 0
	eventType := model.EventCreated
	if !created {
		// Idempotent hit: return the existing row, record the replay.
		row := tx.QueryRowContext(ctx,
			`SELECT `+memoryColumns+` FROM memories WHERE owner_id = ? AND fingerprint = ?`,
			p.Owner, fp)
		existing, err := scanMemory(row)
		if err != nil {
			return nil, false, fmt.Errorf("load existing memory: %w", err)
		}
		id = existing.ID
		eventType = model.EventDuplicate
	}

	err = s.appendEvent(ctx, tx, model.ProvenanceEvent{
		OwnerID:   p.Owner,
		MemoryID:  id,
		EventType: eventType,
		ActorID:   actor,
		ActorKind: model.ActorOwner,
		Context:   map[string]any{"source_type": sourceType},
	})
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	mem, err := s.GetMemory(ctx, p.Owner, id)
	if err != nil {
		return nil, false, err
	}
	return mem, created, nil
}

const memoryColumns = `id, owner_id, content, fingerprint, source_type, metadata,
	quarantine_status, quarantine_score, classifier_details, classifier_version,
	importance_score, quality_score, promoted, archived, created_at, updated_at`

// GetMemory loads one memory, enforcing ownership.
func (s *SQLiteStore) GetMemory(ctx context.Context, owner, id string) (*model.Memory, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("memory %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if m.OwnerID != owner {
		return nil, fmt.Errorf("memory %s: %w", id, ErrTenantViolation)
	}
	return &m, nil
}

// ListMemoriesParams filters the memory list.
type ListMemoriesParams struct {
	Owner           string
	Status          string
	IncludeArchived bool
	Limit           int
}

// ListMemories returns an owner's memories, newest first.
func (s *SQLiteStore) ListMemories(ctx context.Context, p ListMemoriesParams) ([]model.Memory, error) {
	if err := requireOwner(p.Owner); err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	where := []string{"owner_id = ?"}
	args := []interface{}{p.Owner}
	if p.Status != "" {
		where = append(where, "quarantine_status = ?")
		args = append(args, p.Status)
	}
	if !p.IncludeArchived {
		where = append(where, "archived = 0")
	}

	query := `SELECT ` + memoryColumns + ` FROM memories WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// ListPendingClassification feeds the classify sweep.
func (s *SQLiteStore) ListPendingClassification(ctx context.Context, owner string, limit int) ([]model.Memory, error) {
	return s.ListMemories(ctx, ListMemoriesParams{
		Owner:  owner,
		Status: model.QuarantinePending,
		Limit:  limit,
	})
}

// ArchiveMemory flips the archived flag. Already-archived memories are
// left untouched (no second ledger event).
func (s *SQLiteStore) ArchiveMemory(ctx context.Context, owner, id, actorID string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	if _, err := s.GetMemory(ctx, owner, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	hit, err := execOne(ctx, tx,
		`UPDATE memories SET archived = 1, updated_at = ? WHERE id = ? AND owner_id = ? AND archived = 0`,
		formatTime(time.Now()), id, owner)
	if err != nil {
		return err
	}
	if !hit {
		return nil
	}

	err = s.appendEvent(ctx, tx, model.ProvenanceEvent{
		OwnerID:   owner,
		MemoryID:  id,
		EventType: model.EventArchived,
		ActorID:   actorID,
		ActorKind: model.ActorOwner,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// SetClassification records a classifier verdict for a memory,
// overwriting any previous one. Re-classification of a non-pending
// memory is recorded as a reclassified event.
func (s *SQLiteStore) SetClassification(ctx context.Context, owner, id, status string, score float64, details map[string]any, version string) (*model.Memory, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if !model.ValidQuarantineStatuses[status] {
		return nil, fmt.Errorf("unknown quarantine status %q", status)
	}

	current, err := s.GetMemory(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE memories SET quarantine_status = ?, quarantine_score = ?,
		 classifier_details = ?, classifier_version = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		status, score, jsonText(details), version, formatTime(time.Now()), id, owner)
	if err != nil {
		return nil, fmt.Errorf("update classification: %w", err)
	}

	eventType := model.EventClassified
	if current.QuarantineStatus != model.QuarantinePending {
		eventType = model.EventReclassified
	}
	err = s.appendEvent(ctx, tx, model.ProvenanceEvent{
		OwnerID:   owner,
		MemoryID:  id,
		EventType: eventType,
		ActorID:   version,
		ActorKind: model.ActorSystem,
		Context:   map[string]any{"status": status, "score": score},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetMemory(ctx, owner, id)
}

// PromotedContents returns id→content for an owner's promoted,
// unarchived memories. Feeds the lexical similarity fallback.
func (s *SQLiteStore) PromotedContents(ctx context.Context, owner string) (map[string]string, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content FROM memories WHERE owner_id = ? AND promoted = 1 AND archived = 0`,
		owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contents := map[string]string{}
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, err
		}
		contents[id] = content
	}
	return contents, rows.Err()
}

func scanMemory(row scanner) (model.Memory, error) {
	var m model.Memory
	var metadata, details, version sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Content, &m.Fingerprint, &m.SourceType, &metadata,
		&m.QuarantineStatus, &m.QuarantineScore, &details, &version,
		&m.ImportanceScore, &m.QualityScore, &m.Promoted, &m.Archived,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return m, err
	}

	m.Metadata = parseJSONText(metadata)
	m.ClassifierDetails = parseJSONText(details)
	if version.Valid {
		m.ClassifierVersion = version.String
	}
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return m, nil
}
