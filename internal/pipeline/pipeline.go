// Package pipeline orchestrates the curation flow across the store and
// the external classifier and similarity capabilities.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/curatorhq/curator/internal/classifier"
	"github.com/curatorhq/curator/internal/compensation"
	"github.com/curatorhq/curator/internal/model"
	"github.com/curatorhq/curator/internal/similarity"
	"github.com/curatorhq/curator/internal/store"
)

// Pipeline wires the durable store to the injected capabilities.
type Pipeline struct {
	Store    *store.SQLiteStore
	Scorer   classifier.Scorer
	Searcher similarity.Searcher
	Policy   classifier.Policy
	Valuer   compensation.Valuer

	// CapabilityTimeout bounds one external scorer or searcher call.
	CapabilityTimeout time.Duration

	Log *slog.Logger
}

// New builds a pipeline with defaults for everything not supplied.
func New(s *store.SQLiteStore, scorer classifier.Scorer, searcher similarity.Searcher) *Pipeline {
	return &Pipeline{
		Store:             s,
		Scorer:            scorer,
		Searcher:          searcher,
		Policy:            classifier.DefaultPolicy(),
		Valuer:            compensation.DefaultValuer,
		CapabilityTimeout: 10 * time.Second,
		Log:               slog.Default(),
	}
}

// Submit ingests content and classifies new memories synchronously.
// Ingestion is atomic and always wins: a classifier timeout leaves the
// memory pending for the sweep instead of failing the submission.
func (p *Pipeline) Submit(ctx context.Context, sp store.SubmitParams) (*model.Memory, error) {
	mem, created, err := p.Store.SubmitMemory(ctx, sp)
	if err != nil {
		return nil, err
	}
	if !created {
		return mem, nil
	}

	classified, err := p.Classify(ctx, sp.Owner, mem.ID)
	if err != nil {
		if errors.Is(err, ErrCapabilityTimeout) {
			p.Log.Warn("classification timed out, memory stays pending",
				"owner", sp.Owner, "memory", mem.ID)
			return mem, nil
		}
		p.Log.Error("classification failed", "owner", sp.Owner, "memory", mem.ID, "err", err)
		return mem, nil
	}
	return classified, nil
}

// Classify runs the external scorer under the capability deadline and
// records the verdict. On timeout the memory's status is untouched.
func (p *Pipeline) Classify(ctx context.Context, owner, memoryID string) (*model.Memory, error) {
	mem, err := p.Store.GetMemory(ctx, owner, memoryID)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, p.CapabilityTimeout)
	defer cancel()

	res, err := p.Scorer.Score(cctx, mem.Content)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("classify memory %s: %w", memoryID, ErrCapabilityTimeout)
		}
		return nil, fmt.Errorf("classify memory %s: %w", memoryID, err)
	}

	details := res.Details
	if details == nil {
		details = map[string]any{}
	}
	details["label"] = res.Label

	status := p.Policy.StatusFor(res.Score)
	return p.Store.SetClassification(ctx, owner, memoryID, status, res.Score, details, p.Scorer.Version())
}

// Sweep re-drives classification for an owner's pending memories.
// Timed-out memories are skipped and stay pending for the next sweep.
func (p *Pipeline) Sweep(ctx context.Context, owner string, limit int) (int, error) {
	pending, err := p.Store.ListPendingClassification(ctx, owner, limit)
	if err != nil {
		return 0, err
	}

	classified := 0
	for _, mem := range pending {
		if err := ctx.Err(); err != nil {
			return classified, err
		}
		if _, err := p.Classify(ctx, owner, mem.ID); err != nil {
			if errors.Is(err, ErrCapabilityTimeout) {
				p.Log.Warn("sweep: classification timed out", "owner", owner, "memory", mem.ID)
				continue
			}
			return classified, err
		}
		classified++
	}
	return classified, nil
}

// Retrieve is the assistant read path: similarity candidates under the
// capability deadline, then the curated store's ranked retrieval.
// Every returned entry accrues generation-use compensation.
func (p *Pipeline) Retrieve(ctx context.Context, owner, query string, limit int) ([]model.CuratedEntry, error) {
	sctx, cancel := context.WithTimeout(ctx, p.CapabilityTimeout)
	defer cancel()

	matches, err := p.Searcher.Search(sctx, owner, query, limit*4)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("similarity search: %w", ErrCapabilityTimeout)
		}
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	retrievalMatches := make([]store.RetrievalMatch, len(matches))
	for i, m := range matches {
		retrievalMatches[i] = store.RetrievalMatch{MemoryID: m.MemoryID, Relevance: m.Relevance}
	}

	entries, err := p.Store.RetrieveContext(ctx, store.RetrieveParams{
		Owner:   owner,
		Matches: retrievalMatches,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if _, err := p.Accrue(ctx, owner, e.MemoryID, model.CompGenerationUse, "retrieve: "+query); err != nil {
			p.Log.Error("compensation accrual failed", "owner", owner, "memory", e.MemoryID, "err", err)
		}
	}
	return entries, nil
}

// Accrue records a compensation entry, valuing the usage with the
// pluggable scoring function and the memory's quality score.
func (p *Pipeline) Accrue(ctx context.Context, owner, memoryID, eventType, usageContext string) (*model.CompensationEntry, error) {
	quality := 0.0
	if memoryID != "" {
		mem, err := p.Store.GetMemory(ctx, owner, memoryID)
		if err != nil {
			return nil, err
		}
		quality = mem.QualityScore
	}

	valuer := p.Valuer
	if valuer == nil {
		valuer = compensation.DefaultValuer
	}
	points, usd := valuer(eventType, quality)

	return p.Store.AccrueCompensation(ctx, store.AccrueParams{
		Owner:          owner,
		MemoryID:       memoryID,
		EventType:      eventType,
		UsageContext:   usageContext,
		ValuePoints:    points,
		EstimatedValue: usd,
	})
}
