package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/curatorhq/curator/internal/model"
)

// RecordDecisionParams holds parameters for logging one assistant
// governance choice.
type RecordDecisionParams struct {
	Owner          string
	RequestSummary string
	Decision       string
	Reason         string
	Confidence     float64
	MemoryID       string
	CuratedEntryID string
}

// RecordDecision appends to the decision log. Linked memories are
// owner-checked before the row is written.
func (s *SQLiteStore) RecordDecision(ctx context.Context, p RecordDecisionParams) (*model.Decision, error) {
	if err := requireOwner(p.Owner); err != nil {
		return nil, err
	}
	if !model.ValidDecisions[p.Decision] {
		return nil, fmt.Errorf("unknown decision %q", p.Decision)
	}
	if p.MemoryID != "" {
		if _, err := s.GetMemory(ctx, p.Owner, p.MemoryID); err != nil {
			return nil, err
		}
	}
	if p.CuratedEntryID != "" {
		if _, err := s.GetEntry(ctx, p.Owner, p.CuratedEntryID); err != nil {
			return nil, err
		}
	}

	id := s.newID()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, owner_id, request_summary, decision, reason, confidence, memory_id, curated_entry_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Owner, p.RequestSummary, p.Decision, p.Reason, p.Confidence,
		nullable(p.MemoryID), nullable(p.CuratedEntryID), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert decision: %w", err)
	}
	return s.GetDecision(ctx, p.Owner, id)
}

// OverrideDecision records a human override. This is the only mutation
// a decision permits after creation, and it is single-shot.
func (s *SQLiteStore) OverrideDecision(ctx context.Context, owner, id, overriddenBy, justification string) (*model.Decision, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if _, err := s.GetDecision(ctx, owner, id); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE decisions SET overridden = 1, overridden_by = ?, override_justification = ?, overridden_at = ?
		 WHERE id = ? AND owner_id = ? AND overridden = 0`,
		overriddenBy, justification, formatTime(time.Now()), id, owner)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("decision %s: %w", id, ErrAlreadyResolved)
	}
	return s.GetDecision(ctx, owner, id)
}

const decisionColumns = `id, owner_id, request_summary, decision, reason, confidence,
	memory_id, curated_entry_id, overridden, overridden_by, override_justification,
	created_at, overridden_at`

// GetDecision loads one decision, enforcing ownership.
func (s *SQLiteStore) GetDecision(ctx context.Context, owner, id string) (*model.Decision, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE id = ?`, id)
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decision %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if d.OwnerID != owner {
		return nil, fmt.Errorf("decision %s: %w", id, ErrTenantViolation)
	}
	return &d, nil
}

// ListDecisionsParams filters the decision log read path.
type ListDecisionsParams struct {
	Owner      string
	Decision   string
	Overridden *bool
	Limit      int
}

// ListDecisions returns an owner's decisions, newest first.
func (s *SQLiteStore) ListDecisions(ctx context.Context, p ListDecisionsParams) ([]model.Decision, error) {
	if err := requireOwner(p.Owner); err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	where := []string{"owner_id = ?"}
	args := []interface{}{p.Owner}
	if p.Decision != "" {
		where = append(where, "decision = ?")
		args = append(args, p.Decision)
	}
	if p.Overridden != nil {
		where = append(where, "overridden = ?")
		args = append(args, *p.Overridden)
	}

	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []model.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// DecisionStats are the decision-log aggregates one health window
// reads.
type DecisionStats struct {
	Total         int     `json:"total"`
	Accepted      int     `json:"accepted"`
	Refused       int     `json:"refused"`
	Deferred      int     `json:"deferred"`
	Modified      int     `json:"modified"`
	Overridden    int     `json:"overridden"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// DecisionStats aggregates decisions for an owner inside a window.
func (s *SQLiteStore) DecisionStats(ctx context.Context, owner string, from, to time.Time) (DecisionStats, error) {
	var st DecisionStats
	if err := requireOwner(owner); err != nil {
		return st, err
	}

	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(decision = 'accepted'), 0),
		        COALESCE(SUM(decision = 'refused'), 0),
		        COALESCE(SUM(decision = 'deferred'), 0),
		        COALESCE(SUM(decision = 'modified'), 0),
		        COALESCE(SUM(overridden), 0),
		        AVG(confidence)
		 FROM decisions WHERE owner_id = ? AND created_at >= ? AND created_at < ?`,
		owner, formatTime(from), formatTime(to)).Scan(
		&st.Total, &st.Accepted, &st.Refused, &st.Deferred, &st.Modified, &st.Overridden, &avg)
	if err != nil {
		return st, err
	}
	if avg.Valid {
		st.AvgConfidence = avg.Float64
	}
	return st, nil
}

// RefusalCountsByEntry maps curated entry ids to refused-decision
// counts in a window. Feeds the negative-feedback deactivation edge.
func (s *SQLiteStore) RefusalCountsByEntry(ctx context.Context, owner string, from, to time.Time) (map[string]int, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT curated_entry_id, COUNT(*) FROM decisions
		 WHERE owner_id = ? AND decision = 'refused' AND curated_entry_id IS NOT NULL
		   AND created_at >= ? AND created_at < ?
		 GROUP BY curated_entry_id`,
		owner, formatTime(from), formatTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func scanDecision(row scanner) (model.Decision, error) {
	var d model.Decision
	var reason, memoryID, entryID, overriddenBy, justification, overriddenAt sql.NullString
	var createdAt string

	err := row.Scan(
		&d.ID, &d.OwnerID, &d.RequestSummary, &d.Decision, &reason, &d.Confidence,
		&memoryID, &entryID, &d.Overridden, &overriddenBy, &justification,
		&createdAt, &overriddenAt,
	)
	if err != nil {
		return d, err
	}

	if reason.Valid {
		d.Reason = reason.String
	}
	if memoryID.Valid {
		d.MemoryID = memoryID.String
	}
	if entryID.Valid {
		d.CuratedEntryID = entryID.String
	}
	if overriddenBy.Valid {
		d.OverriddenBy = overriddenBy.String
	}
	if justification.Valid {
		d.OverrideJustification = justification.String
	}
	d.CreatedAt = parseTime(createdAt)
	d.OverriddenAt = parseTimePtr(overriddenAt)
	return d, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
