package curation

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

const DefaultThreshold = 0.8

// Scorer rates how alike two text values are, in [0,1]. It must be symmetric.
type Scorer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Warmer is optionally implemented by scorers that can prepare many texts at once.
type Warmer interface {
	Warm(ctx context.Context, texts []string) error
}

type ScorerFunc func(ctx context.Context, a, b string) (float64, error)

func (f ScorerFunc) Similarity(ctx context.Context, a, b string) (float64, error) {
	return f(ctx, a, b)
}

// ValidThreshold reports whether t is a usable similarity cutoff. NaN is not.
func ValidThreshold(t float64) bool { return t >= 0 && t <= 1 }

// FindCandidates scores every term in the graph against target and returns those
// at or above threshold, most similar first. Ties keep the store's term order.
// The target term itself is never proposed.
func FindCandidates(ctx context.Context, tx graph.Tx, scorer Scorer, target vocab.Term, threshold float64) ([]vocab.Candidate, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if !ValidThreshold(threshold) {
		return nil, &vocab.InvalidEntityError{
			Kind:     vocab.KindQuery,
			Problems: []vocab.FieldProblem{{Field: "threshold", Problem: fmt.Sprintf("%v outside [0,1]", threshold)}},
		}
	}

	nodes, err := tx.Nodes(ctx, graph.LabelTerm)
	if err != nil {
		return nil, err
	}
	terms := make([]vocab.Term, 0, len(nodes))
	for _, n := range nodes {
		if t := termFromNode(n); t != target {
			terms = append(terms, t)
		}
	}

	if w, ok := scorer.(Warmer); ok {
		texts := make([]string, 0, len(terms)+1)
		texts = append(texts, target.Value)
		for _, t := range terms {
			texts = append(texts, t.Value)
		}
		if err := w.Warm(ctx, texts); err != nil {
			return nil, fmt.Errorf("warm scorer: %w", err)
		}
	}

	var out []vocab.Candidate
	for _, t := range terms {
		sim, err := scorer.Similarity(ctx, target.Value, t.Value)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", t, err)
		}
		sim = clamp01(sim)
		if sim < threshold {
			continue
		}
		out = append(out, vocab.Candidate{
			Value:      t.Value,
			OriginName: t.OriginName,
			Similarity: sim,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out, nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
