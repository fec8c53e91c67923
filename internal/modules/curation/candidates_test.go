package curation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

type tableScorer struct {
	scores map[string]float64
	warmed []string
}

func (s *tableScorer) Similarity(_ context.Context, _, b string) (float64, error) {
	return s.scores[b], nil
}

func (s *tableScorer) Warm(_ context.Context, texts []string) error {
	s.warmed = append(s.warmed, texts...)
	return nil
}

func seedTerms(t *testing.T, store *graph.MemStore, terms ...vocab.Term) {
	t.Helper()
	seed(t, store, func(ctx context.Context, tx graph.Tx) error {
		for _, term := range terms {
			if err := tx.UpsertNode(ctx, termNode(term)); err != nil {
				return err
			}
		}
		return nil
	})
}

func find(store graph.Store, scorer Scorer, target vocab.Term, threshold float64) ([]vocab.Candidate, error) {
	var out []vocab.Candidate
	err := store.Read(context.Background(), func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = FindCandidates(ctx, tx, scorer, target, threshold)
		return err
	})
	return out, err
}

func TestFindCandidatesOrdersAndFilters(t *testing.T) {
	store := graph.NewMemStore()
	seedTerms(t, store,
		tumor,
		neoplasm,
		vocab.Term{Value: "neoplasm", OriginName: "GDC"},
		vocab.Term{Value: "tumour", OriginName: "ICD-O"},
		vocab.Term{Value: "banana", OriginName: "NCIt"},
		vocab.Term{Value: "mass", OriginName: "caDSR"},
	)
	scorer := &tableScorer{scores: map[string]float64{
		"tumor":    1,
		"neoplasm": 0.85,
		"tumour":   0.97,
		"banana":   0.1,
		"mass":     0.8,
	}}

	got, err := find(store, scorer, tumor, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, []vocab.Candidate{
		{Value: "tumour", OriginName: "ICD-O", Similarity: 0.97},
		{Value: "neoplasm", OriginName: "GDC", Similarity: 0.85},
		{Value: "neoplasm", OriginName: "NCIt", Similarity: 0.85},
		{Value: "mass", OriginName: "caDSR", Similarity: 0.8},
	}, got)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}
	require.NotEmpty(t, scorer.warmed)
	assert.Equal(t, "tumor", scorer.warmed[0])
	assert.NotContains(t, scorer.warmed[1:], "tumor")
}

func TestFindCandidatesSameValueOtherOriginIsCandidate(t *testing.T) {
	store := graph.NewMemStore()
	other := vocab.Term{Value: "tumor", OriginName: "GDC"}
	seedTerms(t, store, tumor, other)
	scorer := ScorerFunc(func(_ context.Context, a, b string) (float64, error) {
		if a == b {
			return 1, nil
		}
		return 0, nil
	})

	got, err := find(store, scorer, tumor, 0.9)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, other, got[0].Term())
	assert.False(t, got[0].Confirmed)
}

func TestFindCandidatesClampsScores(t *testing.T) {
	store := graph.NewMemStore()
	seedTerms(t, store, tumor, neoplasm, growth)
	scorer := &tableScorer{scores: map[string]float64{"neoplasm": 1.3, "growth": -0.4}}

	got, err := find(store, scorer, tumor, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].Similarity)
	assert.Equal(t, 0.0, got[1].Similarity)
}

func TestFindCandidatesRejectsBadInput(t *testing.T) {
	store := graph.NewMemStore()
	scorer := &tableScorer{scores: map[string]float64{"neoplasm": 0.9, "banana": 0}}

	_, err := find(store, scorer, vocab.Term{Value: "tumor"}, DefaultThreshold)
	assert.ErrorIs(t, err, vocab.ErrInvalidEntity)

	seedTerms(t, store, tumor, neoplasm, vocab.Term{Value: "banana", OriginName: "NCIt"})
	for _, th := range []float64{-0.1, 1.01, math.NaN(), math.Inf(1)} {
		_, err = find(store, scorer, tumor, th)
		var inv *vocab.InvalidEntityError
		require.True(t, errors.As(err, &inv), "threshold %v", th)
		assert.Equal(t, vocab.KindQuery, inv.Kind)
	}
	assert.False(t, ValidThreshold(math.NaN()))
	assert.True(t, ValidThreshold(0))
	assert.True(t, ValidThreshold(1))
}

func TestFindCandidatesPropagatesScorerError(t *testing.T) {
	store := graph.NewMemStore()
	seedTerms(t, store, tumor, neoplasm)
	errModel := errors.New("model unavailable")
	scorer := ScorerFunc(func(context.Context, string, string) (float64, error) { return 0, errModel })

	_, err := find(store, scorer, tumor, DefaultThreshold)
	assert.ErrorIs(t, err, errModel)
}

func TestFindCandidatesEmptyGraph(t *testing.T) {
	got, err := find(graph.NewMemStore(), &tableScorer{}, tumor, DefaultThreshold)
	require.NoError(t, err)
	assert.Empty(t, got)
}
