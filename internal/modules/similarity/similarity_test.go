package similarity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/mdb-curator/internal/platform/embedcache"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   [][]string
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), inputs...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = f.vectors[in]
	}
	return out, nil
}

func (f *fakeEmbedder) embedded() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += len(c)
	}
	return n
}

func newFake() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"tumor":    {1, 0, 0},
		"tumour":   {0.99, 0.1, 0},
		"neoplasm": {0.8, 0.6, 0},
		"banana":   {0, 0, 1},
		"opposite": {-1, 0, 0},
	}}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{-1, 0}), "negative cosine clamps to 0")
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 0}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestEmbeddingScorerSimilarity(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	s := NewEmbeddingScorer(logger.NewNop(), fake, EmbeddingOptions{})

	ab, err := s.Similarity(ctx, "tumor", "neoplasm")
	require.NoError(t, err)
	ba, err := s.Similarity(ctx, "neoplasm", "tumor")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, ab, 1e-6)
	assert.Equal(t, ab, ba)

	same, err := s.Similarity(ctx, "Tumor", "tumor")
	require.NoError(t, err)
	assert.Equal(t, 1.0, same)

	neg, err := s.Similarity(ctx, "tumor", "opposite")
	require.NoError(t, err)
	assert.Equal(t, 0.0, neg)

	assert.Equal(t, 3, fake.embedded(), "vectors are cached after first use")
}

func TestEmbeddingScorerWarmBatches(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	cache := embedcache.NewMemoryCache("m", 0)
	s := NewEmbeddingScorer(logger.NewNop(), fake, EmbeddingOptions{Cache: cache, BatchSize: 2, Concurrency: 2})

	require.NoError(t, s.Warm(ctx, []string{"tumor", "tumour", "neoplasm", "banana", "tumor"}))
	assert.Equal(t, 4, fake.embedded())
	for _, c := range fake.calls {
		assert.LessOrEqual(t, len(c), 2)
	}

	_, err := s.Similarity(ctx, "tumour", "banana")
	require.NoError(t, err)
	assert.Equal(t, 4, fake.embedded())

	require.NoError(t, s.Warm(ctx, []string{"tumor"}))
	assert.Equal(t, 4, fake.embedded())
}

func TestEmbeddingScorerErrors(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	fake.err = errors.New("rate limited")
	s := NewEmbeddingScorer(logger.NewNop(), fake, EmbeddingOptions{})

	_, err := s.Similarity(ctx, "tumor", "neoplasm")
	assert.ErrorIs(t, err, fake.err)
	assert.ErrorIs(t, s.Warm(ctx, []string{"tumor"}), fake.err)
}

func TestLexicalScorer(t *testing.T) {
	ctx := context.Background()
	s := NewLexicalScorer()

	same, err := s.Similarity(ctx, "Tumor", "tumor")
	require.NoError(t, err)
	assert.Equal(t, 1.0, same)

	close1, err := s.Similarity(ctx, "tumor", "tumour")
	require.NoError(t, err)
	close2, err := s.Similarity(ctx, "tumour", "tumor")
	require.NoError(t, err)
	far, err := s.Similarity(ctx, "tumor", "banana")
	require.NoError(t, err)

	assert.Equal(t, close1, close2)
	assert.Greater(t, close1, 0.8)
	assert.Less(t, far, close1)

	blank, err := s.Similarity(ctx, "", "tumor")
	require.NoError(t, err)
	assert.Equal(t, 0.0, blank)
}
