package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

func term(value, origin string) Node {
	return Node{Label: LabelTerm, Props: Props{"value": value, "origin_name": origin}}
}

func concept(id string) Node {
	return Node{Label: LabelConcept, Props: Props{"nanoid": id}}
}

func predicate(id, handle string) Node {
	return Node{Label: LabelPredicate, Props: Props{"nanoid": id, "handle": handle}}
}

// runStoreContract exercises the behavior every Store implementation must share.
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()
	tumor := term("tumor", "NCIt")
	neoplasm := term("neoplasm", "NCIt")
	c1 := concept("cnTrA1")
	p1 := predicate("prTrA1", "broader")

	require.NoError(t, store.Write(ctx, func(ctx context.Context, tx Tx) error {
		for _, n := range []Node{tumor, neoplasm, c1, p1} {
			if err := tx.UpsertNode(ctx, n); err != nil {
				return err
			}
		}
		// upserting twice must not duplicate
		if err := tx.UpsertNode(ctx, tumor); err != nil {
			return err
		}
		for _, e := range []struct {
			rel      RelType
			from, to Node
		}{
			{RelRepresents, tumor, c1},
			{RelRepresents, neoplasm, c1},
			{RelRepresents, neoplasm, c1},
			{RelHasObject, p1, c1},
		} {
			if err := tx.UpsertEdge(ctx, e.rel, e.from, e.to); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, store.Read(ctx, func(ctx context.Context, tx Tx) error {
		ok, err := tx.Exists(ctx, tumor)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.Exists(ctx, Node{Label: LabelAny, Props: Props{"nanoid": "prTrA1"}})
		require.NoError(t, err)
		assert.True(t, ok, "nanoid lookup must span labels")

		ok, err = tx.Exists(ctx, term("tumor", "ICD-O"))
		require.NoError(t, err)
		assert.False(t, ok, "origin is part of term identity")

		in, err := tx.Neighbors(ctx, c1, RelAny, Incoming)
		require.NoError(t, err)
		require.Len(t, in, 3)
		assert.Equal(t, LabelPredicate, in[0].Node.Label)
		assert.Equal(t, RelHasObject, in[0].Rel)
		assert.Equal(t, "broader", in[0].Node.Props["handle"])

		reps, err := tx.Neighbors(ctx, c1, RelRepresents, Incoming)
		require.NoError(t, err)
		require.Len(t, reps, 2)
		assert.Equal(t, "neoplasm", reps[0].Node.Props["value"])
		assert.Equal(t, "tumor", reps[1].Node.Props["value"])

		terms, err := tx.Nodes(ctx, LabelTerm)
		require.NoError(t, err)
		assert.Len(t, terms, 2)
		return nil
	}))

	err := store.Write(ctx, func(ctx context.Context, tx Tx) error {
		return tx.UpsertEdge(ctx, RelRepresents, term("ghost", "NCIt"), c1)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEndpointMissing)
	assert.ErrorIs(t, err, vocab.ErrStoreFailure)

	errBoom := errors.New("boom")
	err = store.Write(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.DetachDelete(ctx, c1); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	require.NoError(t, store.Read(ctx, func(ctx context.Context, tx Tx) error {
		ok, err := tx.Exists(ctx, c1)
		require.NoError(t, err)
		assert.True(t, ok, "aborted transaction must not delete")
		return nil
	}))

	require.NoError(t, store.Write(ctx, func(ctx context.Context, tx Tx) error {
		return tx.DetachDelete(ctx, c1)
	}))
	require.NoError(t, store.Read(ctx, func(ctx context.Context, tx Tx) error {
		out, err := tx.Neighbors(ctx, tumor, RelRepresents, Outgoing)
		require.NoError(t, err)
		assert.Empty(t, out)
		ok, err := tx.Exists(ctx, p1)
		require.NoError(t, err)
		assert.True(t, ok, "detach delete removes only the node itself")
		return nil
	}))
}
