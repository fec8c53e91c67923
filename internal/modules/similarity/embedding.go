package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/mdb-curator/internal/platform/embedcache"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type EmbeddingOptions struct {
	Cache       embedcache.Cache
	BatchSize   int
	Concurrency int
}

// EmbeddingScorer rates similarity as the cosine of two text embeddings,
// clamped to [0,1].
type EmbeddingScorer struct {
	log         *logger.Logger
	embedder    Embedder
	cache       embedcache.Cache
	batchSize   int
	concurrency int
}

func NewEmbeddingScorer(log *logger.Logger, embedder Embedder, opts EmbeddingOptions) *EmbeddingScorer {
	if opts.Cache == nil {
		opts.Cache = embedcache.NewMemoryCache("", 0)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 256
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &EmbeddingScorer{
		log:         log.With("service", "EmbeddingScorer"),
		embedder:    embedder,
		cache:       opts.Cache,
		batchSize:   opts.BatchSize,
		concurrency: opts.Concurrency,
	}
}

func (s *EmbeddingScorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) && strings.TrimSpace(a) != "" {
		return 1, nil
	}
	va, err := s.vector(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := s.vector(ctx, b)
	if err != nil {
		return 0, err
	}
	return Cosine(va, vb), nil
}

// Warm embeds every uncached text in batches so later Similarity calls hit the cache.
func (s *EmbeddingScorer) Warm(ctx context.Context, texts []string) error {
	seen := make(map[string]bool, len(texts))
	var missing []string
	for _, t := range texts {
		if seen[t] {
			continue
		}
		seen[t] = true
		if _, err := s.lookup(ctx, t); err != nil {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for start := 0; start < len(missing); start += s.batchSize {
		end := min(start+s.batchSize, len(missing))
		batch := missing[start:end]
		g.Go(func() error {
			_, err := s.embed(gctx, batch)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Debug("Warmed embeddings", "texts", len(texts), "embedded", len(missing))
	return nil
}

func (s *EmbeddingScorer) vector(ctx context.Context, text string) ([]float32, error) {
	if v, err := s.lookup(ctx, text); err == nil {
		return v, nil
	}
	vecs, err := s.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *EmbeddingScorer) lookup(ctx context.Context, text string) ([]float32, error) {
	v, err := s.cache.Get(ctx, text)
	if err != nil && !errors.Is(err, embedcache.ErrMiss) {
		s.log.Warn("Embedding cache read failed", "error", err)
	}
	return v, err
}

func (s *EmbeddingScorer) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}
	for i, v := range vecs {
		if err := s.cache.Put(ctx, texts[i], v); err != nil {
			s.log.Warn("Embedding cache write failed", "error", err)
		}
	}
	return vecs, nil
}

// Cosine returns the cosine similarity of a and b clamped to [0,1].
// Mismatched or zero-length vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	c := dot / (math.Sqrt(na) * math.Sqrt(nb))
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
