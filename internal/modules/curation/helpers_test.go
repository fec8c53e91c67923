package curation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

var (
	tumor    = vocab.Term{Value: "tumor", OriginName: "NCIt"}
	neoplasm = vocab.Term{Value: "neoplasm", OriginName: "NCIt"}
	growth   = vocab.Term{Value: "growth", OriginName: "caDSR"}
)

var errSequenceDone = errors.New("sequence exhausted")

// seqGen yields the given identifiers in order.
func seqGen(ids ...string) Generator {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(ids) {
			return "", errSequenceDone
		}
		id := ids[i]
		i++
		return id, nil
	}
}

func testAllocator(ids ...string) *Allocator {
	opts := AllocatorOptions{MaxAttempts: 8}
	if len(ids) > 0 {
		opts.Generator = seqGen(ids...)
	}
	return NewAllocator(logger.NewNop(), opts)
}

func seed(t *testing.T, store *graph.MemStore, fn func(ctx context.Context, tx graph.Tx) error) {
	t.Helper()
	require.NoError(t, store.Write(context.Background(), fn))
}

func seedTermWithConcept(t *testing.T, store *graph.MemStore, term vocab.Term, conceptID string) {
	t.Helper()
	seed(t, store, func(ctx context.Context, tx graph.Tx) error {
		if err := tx.UpsertNode(ctx, termNode(term)); err != nil {
			return err
		}
		if conceptID == "" {
			return nil
		}
		c := vocab.Concept{NanoID: conceptID}
		if err := tx.UpsertNode(ctx, conceptNode(c)); err != nil {
			return err
		}
		return tx.UpsertEdge(ctx, graph.RelRepresents, termNode(term), conceptNode(c))
	})
}

func link(store graph.Store, alloc *Allocator, a, b vocab.Term) (LinkOutcome, error) {
	var out LinkOutcome
	err := store.Write(context.Background(), func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = LinkTerms(ctx, tx, alloc, a, b)
		return err
	})
	return out, err
}

func readConcepts(t *testing.T, store graph.Store, term vocab.Term) []vocab.Concept {
	t.Helper()
	var out []vocab.Concept
	require.NoError(t, store.Read(context.Background(), func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = conceptsOf(ctx, tx, term)
		return err
	}))
	return out
}

func readTerms(t *testing.T, store graph.Store, c vocab.Concept) []vocab.Term {
	t.Helper()
	var out []vocab.Term
	require.NoError(t, store.Read(context.Background(), func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = termsOf(ctx, tx, c)
		return err
	}))
	return out
}

func exists(t *testing.T, store graph.Store, n graph.Node) bool {
	t.Helper()
	var ok bool
	require.NoError(t, store.Read(context.Background(), func(ctx context.Context, tx graph.Tx) error {
		var err error
		ok, err = tx.Exists(ctx, n)
		return err
	}))
	return ok
}
