package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrMiss is returned by Get when no vector is stored for the text.
var ErrMiss = errors.New("embedcache: miss")

// Cache stores embedding vectors keyed by the text they were computed from.
type Cache interface {
	Get(ctx context.Context, text string) ([]float32, error)
	Put(ctx context.Context, text string, vec []float32) error
	Close() error
}

// Key is the content address of text under model.
func Key(model, text string) string {
	h := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(h[:])
}

// DefaultMemoryEntries bounds the in-process cache when no size is given.
const DefaultMemoryEntries = 50_000

// memoryCache keeps the most recently used vectors.
type memoryCache struct {
	model string
	lru   *lru.Cache[string, []float32]
}

// NewMemoryCache returns an in-process cache holding at most maxEntries vectors.
// A non-positive maxEntries selects DefaultMemoryEntries.
func NewMemoryCache(model string, maxEntries int) Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	l, err := lru.New[string, []float32](maxEntries)
	if err != nil {
		panic(err) // size is positive
	}
	return &memoryCache{model: model, lru: l}
}

func (c *memoryCache) Get(_ context.Context, text string) ([]float32, error) {
	v, ok := c.lru.Get(Key(c.model, text))
	if !ok {
		return nil, ErrMiss
	}
	return append([]float32(nil), v...), nil
}

func (c *memoryCache) Put(_ context.Context, text string, vec []float32) error {
	c.lru.Add(Key(c.model, text), append([]float32(nil), vec...))
	return nil
}

func (c *memoryCache) Close() error {
	c.lru.Purge()
	return nil
}
