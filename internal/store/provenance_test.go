package store

import (
	"context"
	"errors"
	"testing"

	"github.com/curatorhq/curator/internal/model"
)

func TestLedgerTracksLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mem := submitTestMemory(t, s, "alice", "full lifecycle")
	classifyTestMemory(t, s, "alice", mem.ID)
	req := requestTestPromotion(t, s, "alice", mem.ID)
	if _, err := s.CastVote(ctx, "alice", req.ID, "carol", true); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if _, err := s.ResolveRequest(ctx, ResolveParams{
		Owner: "alice", RequestID: req.ID, ResolverID: "carol", Outcome: model.RequestApproved,
	}); err != nil {
		t.Fatalf("ResolveRequest: %v", err)
	}

	events, err := s.ListEvents(ctx, ListEventsParams{Owner: "alice", MemoryID: mem.ID})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}

	want := []string{
		model.EventCreated,
		model.EventClassified,
		model.EventPromotionRequested,
		model.EventVoteCast,
		model.EventPromoted,
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.EventType != want[i] {
			t.Errorf("event %d = %q, want %q", i, ev.EventType, want[i])
		}
	}
	// Sequence numbers strictly increase.
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Errorf("seq not increasing: %d then %d", events[i-1].Seq, events[i].Seq)
		}
	}
}

func TestRecordEvent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mem := submitTestMemory(t, s, "alice", "externally used")

	ev, err := s.RecordEvent(ctx, model.ProvenanceEvent{
		OwnerID:   "alice",
		MemoryID:  mem.ID,
		EventType: model.EventUsedInGeneration,
		ActorID:   "assistant-7",
		ActorKind: model.ActorAssistant,
		Context:   map[string]any{"session": "abc"},
	})
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if ev.ID == "" {
		t.Error("event id not assigned")
	}

	n, err := s.CountEvents(ctx, "alice", mem.ID)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if n != 2 {
		t.Errorf("got %d events, want 2", n)
	}
}

func TestRecordEventInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mem := submitTestMemory(t, s, "alice", "content")

	cases := []model.ProvenanceEvent{
		{OwnerID: "alice", MemoryID: mem.ID, EventType: model.EventRetrieved, ActorKind: model.ActorSystem},               // no actor
		{OwnerID: "alice", MemoryID: mem.ID, ActorID: "x", ActorKind: model.ActorSystem},                                  // no type
		{OwnerID: "alice", EventType: model.EventRetrieved, ActorID: "x", ActorKind: model.ActorSystem},                   // no memory
		{OwnerID: "alice", MemoryID: mem.ID, EventType: model.EventRetrieved, ActorID: "x", ActorKind: "superintendent"}, // bad kind
	}
	for i, ev := range cases {
		if _, err := s.RecordEvent(ctx, ev); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("case %d: err = %v, want ErrInvalidEvent", i, err)
		}
	}
}

func TestListEventsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m1 := submitTestMemory(t, s, "alice", "first")
	submitTestMemory(t, s, "alice", "second")
	submitTestMemory(t, s, "bob", "other tenant")

	all, err := s.ListEvents(ctx, ListEventsParams{Owner: "alice"})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d events for alice, want 2", len(all))
	}

	byMemory, err := s.ListEvents(ctx, ListEventsParams{Owner: "alice", MemoryID: m1.ID})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(byMemory) != 1 || byMemory[0].MemoryID != m1.ID {
		t.Errorf("byMemory = %v", byMemory)
	}
}
