package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/curatorhq/curator/internal/model"
)

// AccrueParams holds a computed compensation accrual. Valuation is the
// caller's pluggable policy; the store only persists the result.
type AccrueParams struct {
	Owner           string
	MemoryID        string
	EventType       string
	UsageContext    string
	ValuePoints     int
	EstimatedValue  float64
	BeneficiaryType string
	BeneficiaryID   string
	ActorID         string
}

// AccrueCompensation appends a ledger row. When the accrual references
// a memory, the memory is owner-checked and a used-in-generation
// provenance event commits with the row.
func (s *SQLiteStore) AccrueCompensation(ctx context.Context, p AccrueParams) (*model.CompensationEntry, error) {
	if err := requireOwner(p.Owner); err != nil {
		return nil, err
	}
	if !model.ValidCompensationEvents[p.EventType] {
		return nil, fmt.Errorf("unknown compensation event %q", p.EventType)
	}
	if p.MemoryID != "" {
		if _, err := s.GetMemory(ctx, p.Owner, p.MemoryID); err != nil {
			return nil, err
		}
	}
	beneficiaryType := p.BeneficiaryType
	if beneficiaryType == "" {
		beneficiaryType = "owner"
	}

	id := s.newID()
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO compensation_entries (id, owner_id, memory_id, event_type, usage_context,
		 value_points, estimated_value, beneficiary_type, beneficiary_id, payment_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Owner, nullable(p.MemoryID), p.EventType, p.UsageContext,
		p.ValuePoints, p.EstimatedValue, beneficiaryType, nullable(p.BeneficiaryID),
		model.PaymentPending, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert compensation: %w", err)
	}

	if p.MemoryID != "" {
		actor := p.ActorID
		if actor == "" {
			actor = "assistant"
		}
		err = s.appendEvent(ctx, tx, model.ProvenanceEvent{
			OwnerID:   p.Owner,
			MemoryID:  p.MemoryID,
			EventType: model.EventUsedInGeneration,
			ActorID:   actor,
			ActorKind: model.ActorAssistant,
			Context:   map[string]any{"compensation_id": id, "event_type": p.EventType},
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetCompensation(ctx, p.Owner, id)
}

// SetPaymentStatus is the external reconciliation hook, the only
// mutation a compensation entry permits.
func (s *SQLiteStore) SetPaymentStatus(ctx context.Context, owner, id, status string) (*model.CompensationEntry, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if !model.ValidPaymentStatuses[status] {
		return nil, fmt.Errorf("unknown payment status %q", status)
	}
	if _, err := s.GetCompensation(ctx, owner, id); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE compensation_entries SET payment_status = ? WHERE id = ? AND owner_id = ?`,
		status, id, owner)
	if err != nil {
		return nil, err
	}
	return s.GetCompensation(ctx, owner, id)
}

const compensationColumns = `id, owner_id, memory_id, event_type, usage_context,
	value_points, estimated_value, beneficiary_type, beneficiary_id, payment_status, created_at`

// GetCompensation loads one compensation entry, enforcing ownership.
func (s *SQLiteStore) GetCompensation(ctx context.Context, owner, id string) (*model.CompensationEntry, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+compensationColumns+` FROM compensation_entries WHERE id = ?`, id)
	e, err := scanCompensation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("compensation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if e.OwnerID != owner {
		return nil, fmt.Errorf("compensation %s: %w", id, ErrTenantViolation)
	}
	return &e, nil
}

// ListCompensation returns an owner's ledger rows, newest first.
func (s *SQLiteStore) ListCompensation(ctx context.Context, owner string, limit int) ([]model.CompensationEntry, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+compensationColumns+` FROM compensation_entries
		 WHERE owner_id = ? ORDER BY created_at DESC LIMIT ?`,
		owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.CompensationEntry
	for rows.Next() {
		e, err := scanCompensation(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanCompensation(row scanner) (model.CompensationEntry, error) {
	var e model.CompensationEntry
	var memoryID, usageContext, beneficiaryID sql.NullString
	var createdAt string

	err := row.Scan(
		&e.ID, &e.OwnerID, &memoryID, &e.EventType, &usageContext,
		&e.ValuePoints, &e.EstimatedValue, &e.BeneficiaryType, &beneficiaryID,
		&e.PaymentStatus, &createdAt,
	)
	if err != nil {
		return e, err
	}

	if memoryID.Valid {
		e.MemoryID = memoryID.String
	}
	if usageContext.Valid {
		e.UsageContext = usageContext.String
	}
	if beneficiaryID.Valid {
		e.BeneficiaryID = beneficiaryID.String
	}
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}
