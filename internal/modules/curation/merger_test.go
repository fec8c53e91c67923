package curation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

func merge(store graph.Store, survivor, absorbed vocab.Concept) (MergeOutcome, error) {
	var out MergeOutcome
	err := store.Write(context.Background(), func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = MergeConcepts(ctx, tx, survivor, absorbed)
		return err
	})
	return out, err
}

// c1 <- {tumor, neoplasm}; c2 <- {growth}; pObj -has_object-> c2; pSub -has_subject-> c2 and -has_object-> c3.
func seedMergeGraph(t *testing.T) (*graph.MemStore, vocab.Concept, vocab.Concept, vocab.Predicate, vocab.Predicate) {
	store := graph.NewMemStore()
	c1 := vocab.Concept{NanoID: "c1c1c1"}
	c2 := vocab.Concept{NanoID: "c2c2c2"}
	c3 := vocab.Concept{NanoID: "c3c3c3"}
	pObj := vocab.Predicate{Handle: vocab.HandleNarrower, NanoID: "pObj01"}
	pSub := vocab.Predicate{Handle: vocab.HandleBroader, NanoID: "pSub01"}
	seedTermWithConcept(t, store, tumor, c1.NanoID)
	seedTermWithConcept(t, store, neoplasm, c1.NanoID)
	seedTermWithConcept(t, store, growth, c2.NanoID)
	seed(t, store, func(ctx context.Context, tx graph.Tx) error {
		for _, n := range []graph.Node{conceptNode(c3), predicateNode(pObj), predicateNode(pSub)} {
			if err := tx.UpsertNode(ctx, n); err != nil {
				return err
			}
		}
		if err := tx.UpsertEdge(ctx, graph.RelHasObject, predicateNode(pObj), conceptNode(c2)); err != nil {
			return err
		}
		if err := tx.UpsertEdge(ctx, graph.RelHasSubject, predicateNode(pObj), conceptNode(c3)); err != nil {
			return err
		}
		if err := tx.UpsertEdge(ctx, graph.RelHasSubject, predicateNode(pSub), conceptNode(c2)); err != nil {
			return err
		}
		return tx.UpsertEdge(ctx, graph.RelHasObject, predicateNode(pSub), conceptNode(c3))
	})
	return store, c1, c2, pObj, pSub
}

func TestMergeMovesTermsAndPredicateEdges(t *testing.T) {
	store, c1, c2, pObj, pSub := seedMergeGraph(t)

	out, err := merge(store, c1, c2)
	require.NoError(t, err)
	assert.Equal(t, []vocab.Term{growth}, out.MigratedTerms)
	assert.ElementsMatch(t, []vocab.PredicateEdge{
		{Predicate: pObj, Role: vocab.RoleObject},
		{Predicate: pSub, Role: vocab.RoleSubject},
	}, out.MigratedPredicates)

	assert.False(t, exists(t, store, conceptNode(c2)))
	assert.Equal(t, []vocab.Term{growth, neoplasm, tumor}, readTerms(t, store, c1))

	require.NoError(t, store.Read(context.Background(), func(ctx context.Context, tx graph.Tx) error {
		subj, obj, err := endpoints(ctx, tx, pObj)
		require.NoError(t, err)
		assert.Equal(t, []vocab.Concept{{NanoID: "c3c3c3"}}, subj)
		assert.Equal(t, []vocab.Concept{c1}, obj)

		subj, obj, err = endpoints(ctx, tx, pSub)
		require.NoError(t, err)
		assert.Equal(t, []vocab.Concept{c1}, subj)
		assert.Equal(t, []vocab.Concept{{NanoID: "c3c3c3"}}, obj)
		return nil
	}))
}

// The edges pointing at absorbed before the merge point at survivor afterwards, and
// survivor keeps what it had.
func TestMergeConservesEdges(t *testing.T) {
	store, c1, c2, _, _ := seedMergeGraph(t)
	snapshot := func(c vocab.Concept) []graph.Neighbor {
		var out []graph.Neighbor
		require.NoError(t, store.Read(context.Background(), func(ctx context.Context, tx graph.Tx) error {
			var err error
			out, err = tx.Neighbors(ctx, conceptNode(c), graph.RelAny, graph.Incoming)
			return err
		}))
		return out
	}
	before := append(snapshot(c1), snapshot(c2)...)
	_, edgesBefore := store.Counts()

	_, err := merge(store, c1, c2)
	require.NoError(t, err)

	assert.ElementsMatch(t, before, snapshot(c1))
	_, edgesAfter := store.Counts()
	assert.Equal(t, edgesBefore, edgesAfter)
}

func TestMergeDeduplicatesSharedTerm(t *testing.T) {
	store, c1, c2, _, _ := seedMergeGraph(t)
	seedTermWithConcept(t, store, tumor, c2.NanoID)

	_, err := merge(store, c1, c2)
	require.NoError(t, err)
	assert.Equal(t, []vocab.Concept{c1}, readConcepts(t, store, tumor))
}

func TestMergeRejectsSameConcept(t *testing.T) {
	store, c1, _, _, _ := seedMergeGraph(t)
	_, err := merge(store, c1, c1)
	require.Error(t, err)
	var inv *vocab.InvalidEntityError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, vocab.KindMerge, inv.Kind)
	assert.True(t, exists(t, store, conceptNode(c1)))
}

func TestMergeMissingConceptIsNotFound(t *testing.T) {
	store, c1, _, _, _ := seedMergeGraph(t)
	_, err := merge(store, c1, vocab.Concept{NanoID: "zzzzzz"})
	assert.ErrorIs(t, err, vocab.ErrNotFound)

	_, err = merge(store, vocab.Concept{NanoID: "zzzzzz"}, c1)
	assert.ErrorIs(t, err, vocab.ErrNotFound)

	_, err = merge(store, c1, vocab.Concept{})
	assert.ErrorIs(t, err, vocab.ErrInvalidEntity)
}

func TestMergeFailureAfterDeleteIsFatalAndRolledBack(t *testing.T) {
	store, c1, c2, _, _ := seedMergeGraph(t)
	nodesBefore, edgesBefore := store.Counts()
	errDown := errors.New("connection reset")
	store.FailOn(func(op string) error {
		if op == "upsert_edge" {
			return errDown
		}
		return nil
	})

	_, err := merge(store, c1, c2)
	require.Error(t, err)
	var incomplete *vocab.MergeIncompleteError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, "recreate_represents", incomplete.Stage)
	assert.ErrorIs(t, err, vocab.ErrStoreFailure)

	store.FailOn(nil)
	assert.True(t, exists(t, store, conceptNode(c2)))
	nodesAfter, edgesAfter := store.Counts()
	assert.Equal(t, nodesBefore, nodesAfter)
	assert.Equal(t, edgesBefore, edgesAfter)
}
