package model

import "time"

// Actor kinds for provenance events.
const (
	ActorOwner     = "owner"
	ActorCurator   = "curator"
	ActorSystem    = "system"
	ActorAssistant = "assistant"
)

// ValidActorKinds are the allowed provenance actor kinds.
var ValidActorKinds = map[string]bool{
	ActorOwner:     true,
	ActorCurator:   true,
	ActorSystem:    true,
	ActorAssistant: true,
}

// Provenance event types emitted by the pipeline. The set is open;
// these are the types the pipeline itself writes.
const (
	EventCreated            = "created"
	EventDuplicate          = "duplicate"
	EventClassified         = "classified"
	EventReclassified       = "reclassified"
	EventArchived           = "archived"
	EventPromotionRequested = "promotion-requested"
	EventVoteCast           = "vote-cast"
	EventPromoted           = "promoted"
	EventRejected           = "rejected"
	EventNeedsRevision      = "needs-revision"
	EventRetrieved          = "retrieved"
	EventDeactivated        = "deactivated"
	EventUsedInGeneration   = "used-in-generation"
)

// ProvenanceEvent is one immutable audit fact about a memory. The
// ledger is append-only; no update or delete path exists.
type ProvenanceEvent struct {
	Seq       int64          `json:"seq"`
	ID        string         `json:"id"`
	OwnerID   string         `json:"owner_id"`
	MemoryID  string         `json:"memory_id"`
	EventType string         `json:"event_type"`
	ActorID   string         `json:"actor_id"`
	ActorKind string         `json:"actor_kind"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
