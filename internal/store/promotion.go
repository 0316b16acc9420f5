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

// RequestParams holds parameters for opening a promotion request.
type RequestParams struct {
	Owner       string
	MemoryID    string
	RequesterID string
	Reason      string
	Priority    string
}

// RequestPromotion opens a review cycle for a memory. Fails with
// ErrIneligibleMemory when quarantine state, the promoted flag, or
// archival forbids it, and with ErrDuplicateRequest when another open
// request exists (enforced by the partial unique index, not a
// read-then-write check).
func (s *SQLiteStore) RequestPromotion(ctx context.Context, p RequestParams) (*model.PromotionRequest, error) {
	if err := requireOwner(p.Owner); err != nil {
		return nil, err
	}
	priority := p.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	if !model.ValidPriorities[priority] {
		return nil, fmt.Errorf("unknown priority %q", priority)
	}

	mem, err := s.GetMemory(ctx, p.Owner, p.MemoryID)
	if err != nil {
		return nil, err
	}
	if !mem.Eligible() {
		return nil, fmt.Errorf("memory %s (status %s, promoted %t): %w",
			mem.ID, mem.QuarantineStatus, mem.Promoted, ErrIneligibleMemory)
	}

	now := time.Now().UTC()
	id := s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO promotion_requests (id, owner_id, memory_id, requester_id, status, priority, reason, auto_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Owner, p.MemoryID, p.RequesterID, model.RequestPending, priority,
		p.Reason, mem.QuarantineScore, formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("memory %s: %w", p.MemoryID, ErrDuplicateRequest)
		}
		return nil, fmt.Errorf("insert request: %w", err)
	}

	err = s.appendEvent(ctx, tx, model.ProvenanceEvent{
		OwnerID:   p.Owner,
		MemoryID:  p.MemoryID,
		EventType: model.EventPromotionRequested,
		ActorID:   p.RequesterID,
		ActorKind: model.ActorOwner,
		Context:   map[string]any{"request_id": id, "priority": priority},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetRequest(ctx, p.Owner, id)
}

// CastVote atomically increments a vote counter on an open request.
// Votes are advisory input to Resolve; they never change status.
func (s *SQLiteStore) CastVote(ctx context.Context, owner, requestID, voterID string, approve bool) (*model.PromotionRequest, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	column := "reject_votes"
	if approve {
		column = "approve_votes"
	}

	req, err := s.GetRequest(ctx, owner, requestID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	hit, err := execOne(ctx, tx,
		`UPDATE promotion_requests SET `+column+` = `+column+` + 1
		 WHERE id = ? AND owner_id = ? AND status IN ('pending', 'in_review')`,
		requestID, owner)
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, fmt.Errorf("request %s: %w", requestID, ErrAlreadyResolved)
	}

	err = s.appendEvent(ctx, tx, model.ProvenanceEvent{
		OwnerID:   owner,
		MemoryID:  req.MemoryID,
		EventType: model.EventVoteCast,
		ActorID:   voterID,
		ActorKind: model.ActorCurator,
		Context:   map[string]any{"request_id": requestID, "approve": approve},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetRequest(ctx, owner, requestID)
}

// StartReview moves a pending request into in_review.
func (s *SQLiteStore) StartReview(ctx context.Context, owner, requestID, reviewerID string) (*model.PromotionRequest, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	req, err := s.GetRequest(ctx, owner, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Open() {
		return nil, fmt.Errorf("request %s: %w", requestID, ErrAlreadyResolved)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE promotion_requests SET status = ?, reviewer_id = ?
		 WHERE id = ? AND owner_id = ? AND status = ?`,
		model.RequestInReview, reviewerID, requestID, owner, model.RequestPending)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetRequest(ctx, owner, requestID)
}

// ResolveParams holds parameters for resolving a promotion request.
type ResolveParams struct {
	Owner      string
	RequestID  string
	ResolverID string
	Outcome    string
	Notes      string

	// Curated entry shape on approval. EntryPriority is clamped to
	// [0, 100]; 0 is legal.
	Category      string
	EntryPriority int
}

// ResolveRequest transitions an open request into a terminal outcome.
// On approval the memory is marked promoted and its curated entry is
// created or reactivated, all in the same transaction as the ledger
// write. Resolving a terminal request fails with ErrAlreadyResolved.
func (s *SQLiteStore) ResolveRequest(ctx context.Context, p ResolveParams) (*model.PromotionRequest, error) {
	if err := requireOwner(p.Owner); err != nil {
		return nil, err
	}
	if !model.ValidOutcomes[p.Outcome] {
		return nil, fmt.Errorf("invalid outcome %q", p.Outcome)
	}

	req, err := s.GetRequest(ctx, p.Owner, p.RequestID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	hit, err := execOne(ctx, tx,
		`UPDATE promotion_requests SET status = ?, reviewer_id = ?, reviewer_notes = ?, resolved_at = ?
		 WHERE id = ? AND owner_id = ? AND status IN ('pending', 'in_review')`,
		p.Outcome, p.ResolverID, p.Notes, formatTime(now), p.RequestID, p.Owner)
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, fmt.Errorf("request %s: %w", p.RequestID, ErrAlreadyResolved)
	}

	eventType := model.EventRejected
	switch p.Outcome {
	case model.RequestApproved:
		eventType = model.EventPromoted
		_, err = tx.ExecContext(ctx,
			`UPDATE memories SET promoted = 1, updated_at = ? WHERE id = ? AND owner_id = ?`,
			formatTime(now), req.MemoryID, p.Owner)
		if err != nil {
			return nil, fmt.Errorf("mark promoted: %w", err)
		}
		if err := s.materializeEntry(ctx, tx, p.Owner, req.MemoryID, p.Category, p.EntryPriority); err != nil {
			return nil, err
		}
	case model.RequestNeedsRevision:
		eventType = model.EventNeedsRevision
	}

	err = s.appendEvent(ctx, tx, model.ProvenanceEvent{
		OwnerID:   p.Owner,
		MemoryID:  req.MemoryID,
		EventType: eventType,
		ActorID:   p.ResolverID,
		ActorKind: model.ActorCurator,
		Context:   map[string]any{"request_id": p.RequestID, "outcome": p.Outcome},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetRequest(ctx, p.Owner, p.RequestID)
}

// ResubmitPromotion opens a fresh request for a memory whose last
// cycle ended in needs_revision. The one-open-request index still
// guards the race with any concurrent request.
func (s *SQLiteStore) ResubmitPromotion(ctx context.Context, p RequestParams) (*model.PromotionRequest, error) {
	if err := requireOwner(p.Owner); err != nil {
		return nil, err
	}

	var lastStatus string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM promotion_requests WHERE owner_id = ? AND memory_id = ?
		 ORDER BY created_at DESC LIMIT 1`,
		p.Owner, p.MemoryID).Scan(&lastStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("memory %s has no prior request: %w", p.MemoryID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if lastStatus != model.RequestNeedsRevision {
		return nil, fmt.Errorf("last request for memory %s is %s, not %s",
			p.MemoryID, lastStatus, model.RequestNeedsRevision)
	}

	return s.RequestPromotion(ctx, p)
}

const requestColumns = `id, owner_id, memory_id, requester_id, status, priority, reason,
	approve_votes, reject_votes, reviewer_id, reviewer_notes, auto_score, manual_score,
	created_at, resolved_at`

// GetRequest loads one promotion request, enforcing ownership.
func (s *SQLiteStore) GetRequest(ctx context.Context, owner, id string) (*model.PromotionRequest, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM promotion_requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if r.OwnerID != owner {
		return nil, fmt.Errorf("request %s: %w", id, ErrTenantViolation)
	}
	return &r, nil
}

// ListRequestsParams filters the review queue. Owner scopes to one
// tenant; Global is the curator surface's explicit opt-in to scan the
// whole queue.
type ListRequestsParams struct {
	Owner    string
	Global   bool
	Status   string
	OpenOnly bool // restrict to pending and in_review
	Limit    int
	Quorum   int // advisory; sets QuorumMet on results when > 0
}

// ListRequests returns promotion requests for the review surface,
// urgent first within equal status.
func (s *SQLiteStore) ListRequests(ctx context.Context, p ListRequestsParams) ([]model.PromotionRequest, error) {
	if !p.Global {
		if err := requireOwner(p.Owner); err != nil {
			return nil, err
		}
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	where := []string{"1=1"}
	args := []interface{}{}
	if !p.Global {
		where = append(where, "owner_id = ?")
		args = append(args, p.Owner)
	}
	if p.Status != "" {
		where = append(where, "status = ?")
		args = append(args, p.Status)
	}
	if p.OpenOnly {
		where = append(where, "status IN ('pending', 'in_review')")
	}

	query := `SELECT ` + requestColumns + ` FROM promotion_requests WHERE ` +
		strings.Join(where, " AND ") + `
		ORDER BY CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END,
		         created_at
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []model.PromotionRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		if p.Quorum > 0 {
			r.QuorumMet = r.ApproveVotes >= p.Quorum
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// OpenRequestCount reports open requests for one memory. Exists for
// invariant checks; the schema keeps it at most 1.
func (s *SQLiteStore) OpenRequestCount(ctx context.Context, owner, memoryID string) (int, error) {
	if err := requireOwner(owner); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM promotion_requests
		 WHERE owner_id = ? AND memory_id = ? AND status IN ('pending', 'in_review')`,
		owner, memoryID).Scan(&n)
	return n, err
}

func scanRequest(row scanner) (model.PromotionRequest, error) {
	var r model.PromotionRequest
	var reason, reviewerID, reviewerNotes, resolvedAt sql.NullString
	var createdAt string

	err := row.Scan(
		&r.ID, &r.OwnerID, &r.MemoryID, &r.RequesterID, &r.Status, &r.Priority, &reason,
		&r.ApproveVotes, &r.RejectVotes, &reviewerID, &reviewerNotes,
		&r.AutoScore, &r.ManualScore, &createdAt, &resolvedAt,
	)
	if err != nil {
		return r, err
	}

	if reason.Valid {
		r.Reason = reason.String
	}
	if reviewerID.Valid {
		r.ReviewerID = reviewerID.String
	}
	if reviewerNotes.Valid {
		r.ReviewerNotes = reviewerNotes.String
	}
	r.CreatedAt = parseTime(createdAt)
	r.ResolvedAt = parseTimePtr(resolvedAt)
	return r, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
