package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatorhq/curator/internal/classifier"
	"github.com/curatorhq/curator/internal/model"
	"github.com/curatorhq/curator/internal/similarity"
	"github.com/curatorhq/curator/internal/store"
)

// slowScorer blocks until the capability deadline fires.
type slowScorer struct{}

func (slowScorer) Score(ctx context.Context, content string) (classifier.Result, error) {
	<-ctx.Done()
	return classifier.Result{}, ctx.Err()
}

func (slowScorer) Version() string { return "slow-v1" }

func newTestPipeline(t *testing.T, scorer classifier.Scorer, searcher similarity.Searcher) *Pipeline {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "curator.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	if searcher == nil {
		searcher = similarity.Static{}
	}
	return New(s, scorer, searcher)
}

func TestSubmitClassifiesSafe(t *testing.T) {
	p := newTestPipeline(t, classifier.Static{Result: classifier.Result{Score: 0.95, Label: "clean"}}, nil)
	ctx := context.Background()

	mem, err := p.Submit(ctx, store.SubmitParams{Owner: "alice", Content: "harmless preference note"})
	require.NoError(t, err)
	assert.Equal(t, model.QuarantineSafe, mem.QuarantineStatus)
	assert.Equal(t, 0.95, mem.QuarantineScore)
	assert.Equal(t, "static-v1", mem.ClassifierVersion)
	assert.Equal(t, "clean", mem.ClassifierDetails["label"])
}

func TestSubmitClassifiesFlagged(t *testing.T) {
	p := newTestPipeline(t, classifier.Static{Result: classifier.Result{Score: 0.45, Label: "suspicious"}}, nil)

	mem, err := p.Submit(context.Background(), store.SubmitParams{Owner: "alice", Content: "borderline content"})
	require.NoError(t, err)
	assert.Equal(t, model.QuarantineFlagged, mem.QuarantineStatus)
}

func TestSubmitTimeoutStaysPending(t *testing.T) {
	p := newTestPipeline(t, slowScorer{}, nil)
	p.CapabilityTimeout = 20 * time.Millisecond
	ctx := context.Background()

	// Ingestion wins; the classifier deadline never fails a submission.
	mem, err := p.Submit(ctx, store.SubmitParams{Owner: "alice", Content: "slow to classify"})
	require.NoError(t, err)
	assert.Equal(t, model.QuarantinePending, mem.QuarantineStatus)

	got, err := p.Store.GetMemory(ctx, "alice", mem.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuarantinePending, got.QuarantineStatus)
}

func TestSubmitDuplicateSkipsClassification(t *testing.T) {
	p := newTestPipeline(t, classifier.Static{Result: classifier.Result{Score: 0.95}}, nil)
	ctx := context.Background()

	first, err := p.Submit(ctx, store.SubmitParams{Owner: "alice", Content: "same again"})
	require.NoError(t, err)

	// Swap in a scorer that would flag; the replay must not re-score.
	p.Scorer = classifier.Static{Result: classifier.Result{Score: 0.1}}
	second, err := p.Submit(ctx, store.SubmitParams{Owner: "alice", Content: "same again"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.QuarantineSafe, second.QuarantineStatus)
}

func TestClassifyTimeout(t *testing.T) {
	p := newTestPipeline(t, classifier.Static{Result: classifier.Result{Score: 0.95}}, nil)
	ctx := context.Background()

	mem, err := p.Submit(ctx, store.SubmitParams{Owner: "alice", Content: "classify later"})
	require.NoError(t, err)

	p.Scorer = slowScorer{}
	p.CapabilityTimeout = 20 * time.Millisecond
	_, err = p.Classify(ctx, "alice", mem.ID)
	assert.ErrorIs(t, err, ErrCapabilityTimeout)
}

func TestSweep(t *testing.T) {
	p := newTestPipeline(t, slowScorer{}, nil)
	p.CapabilityTimeout = 20 * time.Millisecond
	ctx := context.Background()

	// Two memories stuck pending behind a dead scorer.
	_, err := p.Submit(ctx, store.SubmitParams{Owner: "alice", Content: "stuck one"})
	require.NoError(t, err)
	_, err = p.Submit(ctx, store.SubmitParams{Owner: "alice", Content: "stuck two"})
	require.NoError(t, err)

	// Scorer recovers; the sweep drains the backlog.
	p.Scorer = classifier.Static{Result: classifier.Result{Score: 0.9}}
	n, err := p.Sweep(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := p.Store.ListPendingClassification(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSweepSkipsTimeouts(t *testing.T) {
	p := newTestPipeline(t, slowScorer{}, nil)
	p.CapabilityTimeout = 20 * time.Millisecond
	ctx := context.Background()

	_, err := p.Submit(ctx, store.SubmitParams{Owner: "alice", Content: "still stuck"})
	require.NoError(t, err)

	n, err := p.Sweep(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// promoteThroughReview pushes a submission through classification,
// request and approval so the retrieval path has an active entry.
func promoteThroughReview(t *testing.T, p *Pipeline, owner, content string) *model.Memory {
	t.Helper()
	ctx := context.Background()

	mem, err := p.Submit(ctx, store.SubmitParams{Owner: owner, Content: content})
	require.NoError(t, err)

	req, err := p.Store.RequestPromotion(ctx, store.RequestParams{
		Owner: owner, MemoryID: mem.ID, RequesterID: owner,
	})
	require.NoError(t, err)
	_, err = p.Store.ResolveRequest(ctx, store.ResolveParams{
		Owner: owner, RequestID: req.ID, ResolverID: "curator", Outcome: model.RequestApproved,
	})
	require.NoError(t, err)
	return mem
}

func TestRetrieve(t *testing.T) {
	p := newTestPipeline(t, classifier.Static{Result: classifier.Result{Score: 0.95}}, nil)
	ctx := context.Background()

	mem := promoteThroughReview(t, p, "alice", "the staging cluster lives in eu-west-1")
	p.Searcher = similarity.Static{Matches: []similarity.Match{{MemoryID: mem.ID, Relevance: 0.8}}}

	entries, err := p.Retrieve(ctx, "alice", "where is staging", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, mem.ID, entries[0].MemoryID)
	assert.Equal(t, 1, entries[0].RetrievalCount)

	// Every retrieved entry accrues generation-use value.
	comp, err := p.Store.ListCompensation(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, comp, 1)
	assert.Equal(t, model.CompGenerationUse, comp[0].EventType)
	assert.Equal(t, 5, comp[0].ValuePoints)
}

func TestRetrieveLexical(t *testing.T) {
	p := newTestPipeline(t, classifier.Static{Result: classifier.Result{Score: 0.95}}, nil)
	ctx := context.Background()

	mem := promoteThroughReview(t, p, "alice", "release checklist for the payments service")
	promoteThroughReview(t, p, "alice", "favorite lunch spots near the office")
	p.Searcher = &similarity.Lexical{Contents: p.Store.PromotedContents}

	entries, err := p.Retrieve(ctx, "alice", "payments release checklist", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, mem.ID, entries[0].MemoryID)
}

func TestRetrieveTimeout(t *testing.T) {
	p := newTestPipeline(t, classifier.Static{Result: classifier.Result{Score: 0.95}}, nil)
	p.Searcher = &similarity.Lexical{Contents: func(ctx context.Context, owner string) (map[string]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	p.CapabilityTimeout = 20 * time.Millisecond

	_, err := p.Retrieve(context.Background(), "alice", "anything", 5)
	assert.ErrorIs(t, err, ErrCapabilityTimeout)
}

func TestAccrue(t *testing.T) {
	p := newTestPipeline(t, classifier.Static{Result: classifier.Result{Score: 0.95}}, nil)
	ctx := context.Background()

	mem, err := p.Submit(ctx, store.SubmitParams{Owner: "alice", Content: "cited in a paper"})
	require.NoError(t, err)

	entry, err := p.Accrue(ctx, "alice", mem.ID, model.CompResearchCitation, "arxiv citation")
	require.NoError(t, err)
	assert.Equal(t, 25, entry.ValuePoints)
	assert.InDelta(t, 0.025, entry.EstimatedValue, 1e-9)
	assert.Equal(t, model.PaymentPending, entry.PaymentStatus)
}

func TestAccrueWithoutMemory(t *testing.T) {
	p := newTestPipeline(t, classifier.Static{Result: classifier.Result{Score: 0.95}}, nil)

	entry, err := p.Accrue(context.Background(), "alice", "", model.CompCollectiveValue, "community share")
	require.NoError(t, err)
	assert.Equal(t, 10, entry.ValuePoints)
	assert.Empty(t, entry.MemoryID)
}
