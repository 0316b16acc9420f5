package store

import (
	"context"
	"errors"
	"testing"

	"github.com/curatorhq/curator/internal/model"
)

func TestAccrueCompensation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mem := submitTestMemory(t, s, "alice", "valuable fact")

	entry, err := s.AccrueCompensation(ctx, AccrueParams{
		Owner:          "alice",
		MemoryID:       mem.ID,
		EventType:      model.CompGenerationUse,
		UsageContext:   "answered a deploy question",
		ValuePoints:    5,
		EstimatedValue: 0.005,
	})
	if err != nil {
		t.Fatalf("AccrueCompensation: %v", err)
	}
	if entry.PaymentStatus != model.PaymentPending {
		t.Errorf("payment status = %q, want pending", entry.PaymentStatus)
	}
	if entry.BeneficiaryType != "owner" {
		t.Errorf("beneficiary type = %q, want owner", entry.BeneficiaryType)
	}

	// Memory-linked accruals leave a used-in-generation ledger event.
	events, err := s.ListEvents(ctx, ListEventsParams{
		Owner: "alice", MemoryID: mem.ID, EventType: model.EventUsedInGeneration,
	})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d used-in-generation events, want 1", len(events))
	}
}

func TestAccrueCompensationNoMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry, err := s.AccrueCompensation(ctx, AccrueParams{
		Owner:       "alice",
		EventType:   model.CompCollectiveValue,
		ValuePoints: 10,
	})
	if err != nil {
		t.Fatalf("AccrueCompensation: %v", err)
	}
	if entry.MemoryID != "" {
		t.Errorf("memory id = %q, want empty", entry.MemoryID)
	}
}

func TestAccrueCompensationUnknownEvent(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AccrueCompensation(context.Background(), AccrueParams{
		Owner: "alice", EventType: "tips",
	}); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestAccrueCompensationForeignMemory(t *testing.T) {
	s := newTestStore(t)
	mem := submitTestMemory(t, s, "alice", "not bob's")

	_, err := s.AccrueCompensation(context.Background(), AccrueParams{
		Owner: "bob", MemoryID: mem.ID, EventType: model.CompGenerationUse,
	})
	if !errors.Is(err, ErrTenantViolation) {
		t.Fatalf("err = %v, want ErrTenantViolation", err)
	}
}

func TestAccrueCompensationArchivedMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mem := submitTestMemory(t, s, "alice", "archived but still owed")
	if err := s.ArchiveMemory(ctx, "alice", mem.ID, "alice"); err != nil {
		t.Fatalf("ArchiveMemory: %v", err)
	}

	// Archival never blocks accrual; the ledger keeps referencing the
	// memory.
	if _, err := s.AccrueCompensation(ctx, AccrueParams{
		Owner: "alice", MemoryID: mem.ID, EventType: model.CompTrainingContribution, ValuePoints: 50,
	}); err != nil {
		t.Fatalf("AccrueCompensation on archived memory: %v", err)
	}
}

func TestSetPaymentStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry, err := s.AccrueCompensation(ctx, AccrueParams{
		Owner: "alice", EventType: model.CompResearchCitation, ValuePoints: 25,
	})
	if err != nil {
		t.Fatalf("AccrueCompensation: %v", err)
	}

	got, err := s.SetPaymentStatus(ctx, "alice", entry.ID, model.PaymentPaid)
	if err != nil {
		t.Fatalf("SetPaymentStatus: %v", err)
	}
	if got.PaymentStatus != model.PaymentPaid {
		t.Errorf("payment status = %q, want paid", got.PaymentStatus)
	}

	if _, err := s.SetPaymentStatus(ctx, "alice", entry.ID, "iou"); err == nil {
		t.Fatal("expected error for unknown payment status")
	}
}

func TestListCompensation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, et := range []string{model.CompGenerationUse, model.CompCollectiveValue} {
		if _, err := s.AccrueCompensation(ctx, AccrueParams{Owner: "alice", EventType: et}); err != nil {
			t.Fatalf("AccrueCompensation: %v", err)
		}
	}
	if _, err := s.AccrueCompensation(ctx, AccrueParams{Owner: "bob", EventType: model.CompGenerationUse}); err != nil {
		t.Fatalf("AccrueCompensation: %v", err)
	}

	entries, err := s.ListCompensation(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("ListCompensation: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries for alice, want 2", len(entries))
	}
}
