package similarity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticContents(contents map[string]string) ContentsFunc {
	return func(ctx context.Context, owner string) (map[string]string, error) {
		return contents, nil
	}
}

func TestLexicalSearch(t *testing.T) {
	l := &Lexical{Contents: staticContents(map[string]string{
		"m1": "the deploy pipeline runs on merge to main",
		"m2": "deploy notes for the staging cluster",
		"m3": "lunch menu for friday",
	})}

	matches, err := l.Search(context.Background(), "alice", "deploy pipeline", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Both tokens hit m1, only one hits m2.
	assert.Equal(t, "m1", matches[0].MemoryID)
	assert.Equal(t, 1.0, matches[0].Relevance)
	assert.Equal(t, "m2", matches[1].MemoryID)
	assert.Equal(t, 0.5, matches[1].Relevance)
}

func TestLexicalSearchDeterministicTies(t *testing.T) {
	l := &Lexical{Contents: staticContents(map[string]string{
		"b": "shared token here",
		"a": "shared token there",
		"c": "shared token everywhere",
	})}

	matches, err := l.Search(context.Background(), "alice", "shared token", 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "a", matches[0].MemoryID)
	assert.Equal(t, "b", matches[1].MemoryID)
	assert.Equal(t, "c", matches[2].MemoryID)
}

func TestLexicalSearchLimit(t *testing.T) {
	l := &Lexical{Contents: staticContents(map[string]string{
		"m1": "token", "m2": "token", "m3": "token",
	})}

	matches, err := l.Search(context.Background(), "alice", "token", 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestLexicalSearchNoQueryTokens(t *testing.T) {
	l := &Lexical{Contents: staticContents(map[string]string{"m1": "anything"})}

	matches, err := l.Search(context.Background(), "alice", "  ! ?", 10)
	require.NoError(t, err)
	assert.Nil(t, matches)
}

func TestLexicalSearchCaseInsensitive(t *testing.T) {
	l := &Lexical{Contents: staticContents(map[string]string{
		"m1": "Kubernetes Cluster Config",
	})}

	matches, err := l.Search(context.Background(), "alice", "KUBERNETES config", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].Relevance)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, tokenize("Hello, World!"))
	assert.Empty(t, tokenize("a ? !"))
}

func TestStaticSearcher(t *testing.T) {
	s := Static{Matches: []Match{{MemoryID: "m1", Relevance: 1}, {MemoryID: "m2", Relevance: 0.5}}}

	matches, err := s.Search(context.Background(), "alice", "anything", 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
