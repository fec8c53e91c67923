package curation

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

const (
	// IDAlphabet omits l, I, L and O.
	IDAlphabet         = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ0123456789"
	IDSize             = 6
	DefaultMaxAttempts = 64
	// DefaultRecentIDs bounds how many issued identifiers the allocator remembers.
	DefaultRecentIDs = 1 << 16
)

// Generator draws one candidate identifier.
type Generator func() (string, error)

func NanoIDGenerator(alphabet string, size int) Generator {
	return func() (string, error) {
		return gonanoid.Generate(alphabet, size)
	}
}

type AllocatorOptions struct {
	Generator   Generator
	MaxAttempts int
	RecentIDs   int
}

// Allocator hands out node identifiers that are unused in the graph and were not
// among its recently issued ones. Recent ids cover transactions that have not
// committed yet; older ids are either in the graph or were rolled back.
type Allocator struct {
	log         *logger.Logger
	gen         Generator
	maxAttempts int
	recent      *lru.Cache[string, struct{}]
}

func NewAllocator(log *logger.Logger, opts AllocatorOptions) *Allocator {
	if opts.Generator == nil {
		opts.Generator = NanoIDGenerator(IDAlphabet, IDSize)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RecentIDs <= 0 {
		opts.RecentIDs = DefaultRecentIDs
	}
	recent, err := lru.New[string, struct{}](opts.RecentIDs)
	if err != nil {
		panic(err) // size is positive
	}
	return &Allocator{
		log:         log.With("component", "Allocator"),
		gen:         opts.Generator,
		maxAttempts: opts.MaxAttempts,
		recent:      recent,
	}
}

// Allocate draws until a free identifier is found or the attempt budget is spent.
// Store errors from the uniqueness probe are returned unchanged.
func (a *Allocator) Allocate(ctx context.Context, tx graph.Tx) (string, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		id, err := a.gen()
		if err != nil {
			return "", fmt.Errorf("draw identifier: %w", err)
		}
		if seen, _ := a.recent.ContainsOrAdd(id, struct{}{}); seen {
			a.log.Debug("identifier already issued, redrawing", "nanoid", id, "attempt", attempt)
			continue
		}
		inUse, err := tx.Exists(ctx, graph.Node{Label: graph.LabelAny, Props: graph.Props{"nanoid": id}})
		if err != nil {
			return "", err
		}
		if inUse {
			a.log.Debug("identifier collision, redrawing", "nanoid", id, "attempt", attempt)
			continue
		}
		return id, nil
	}
	a.log.Error("identifier space exhausted", "attempts", a.maxAttempts)
	return "", fmt.Errorf("%w: no free identifier after %d attempts", vocab.ErrExhaustedIdentifierSpace, a.maxAttempts)
}
