package curation

import (
	"context"
	"strings"

	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

func DeleteTerm(ctx context.Context, tx graph.Tx, t vocab.Term) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return detachDelete(ctx, tx, termNode(t), vocab.KindTerm, t.String())
}

func DeleteConcept(ctx context.Context, tx graph.Tx, c vocab.Concept) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return detachDelete(ctx, tx, conceptNode(c), vocab.KindConcept, c.NanoID)
}

// DeletePredicate only needs the nanoid; the handle is not part of a predicate's identity.
func DeletePredicate(ctx context.Context, tx graph.Tx, p vocab.Predicate) error {
	if strings.TrimSpace(p.NanoID) == "" {
		return &vocab.InvalidEntityError{
			Kind:     vocab.KindPredicate,
			Problems: []vocab.FieldProblem{{Field: "nanoid", Problem: "missing"}},
		}
	}
	return detachDelete(ctx, tx, predicateNode(p), vocab.KindPredicate, p.NanoID)
}

func detachDelete(ctx context.Context, tx graph.Tx, key graph.Node, kind vocab.EntityKind, display string) error {
	ok, err := tx.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return &vocab.NotFoundError{Kind: kind, Key: display}
	}
	return tx.DetachDelete(ctx, key)
}
