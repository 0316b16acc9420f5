// Package similarity defines the external vector-search capability the
// retrieval path calls, plus a lexical fallback for environments
// without a vector service.
package similarity

import (
	"context"
	"sort"
	"strings"
)

// Match is one candidate memory with its relevance score.
type Match struct {
	MemoryID  string  `json:"memory_id"`
	Relevance float64 `json:"relevance_score"`
}

// Searcher is the pluggable similarity capability.
type Searcher interface {
	Search(ctx context.Context, owner, query string, limit int) ([]Match, error)
}

// ContentsFunc supplies the candidate corpus for the lexical fallback:
// memory id to content for one owner.
type ContentsFunc func(ctx context.Context, owner string) (map[string]string, error)

// Lexical scores candidates by query-token overlap. It stands in for a
// real vector service; relevance is the fraction of query tokens
// present in the content.
type Lexical struct {
	Contents ContentsFunc
}

func (l *Lexical) Search(ctx context.Context, owner, query string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 10
	}
	contents, err := l.Contents(ctx, owner)
	if err != nil {
		return nil, err
	}

	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	var matches []Match
	for id, content := range contents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lower := strings.ToLower(content)
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		matches = append(matches, Match{
			MemoryID:  id,
			Relevance: float64(hits) / float64(len(tokens)),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Relevance != matches[j].Relevance {
			return matches[i].Relevance > matches[j].Relevance
		}
		return matches[i].MemoryID < matches[j].MemoryID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Static returns fixed matches; capability stub for tests.
type Static struct {
	Matches []Match
	Err     error
}

func (s Static) Search(ctx context.Context, owner, query string, limit int) ([]Match, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if limit > 0 && len(s.Matches) > limit {
		return s.Matches[:limit], nil
	}
	return s.Matches, nil
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]")
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}
