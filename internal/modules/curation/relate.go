package curation

import (
	"context"

	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

// RelateConcepts creates a new predicate node with has_subject to subject and
// has_object to object. Each call creates a distinct predicate, so relating the
// same pair in the opposite direction never updates an earlier relation.
func RelateConcepts(ctx context.Context, tx graph.Tx, alloc *Allocator, subject, object vocab.Concept, handle vocab.Handle) (vocab.Predicate, error) {
	if err := subject.Validate(); err != nil {
		return vocab.Predicate{}, err
	}
	if err := object.Validate(); err != nil {
		return vocab.Predicate{}, err
	}
	if err := vocab.ValidateHandle(handle); err != nil {
		return vocab.Predicate{}, err
	}
	for _, c := range []vocab.Concept{subject, object} {
		if err := requireConcept(ctx, tx, c); err != nil {
			return vocab.Predicate{}, err
		}
	}

	id, err := alloc.Allocate(ctx, tx)
	if err != nil {
		return vocab.Predicate{}, err
	}
	p := vocab.Predicate{Handle: handle, NanoID: id}
	if err := p.Validate(); err != nil {
		return vocab.Predicate{}, err
	}
	if err := tx.UpsertNode(ctx, predicateNode(p)); err != nil {
		return vocab.Predicate{}, err
	}
	if err := tx.UpsertEdge(ctx, graph.RelHasSubject, predicateNode(p), conceptNode(subject)); err != nil {
		return vocab.Predicate{}, err
	}
	if err := tx.UpsertEdge(ctx, graph.RelHasObject, predicateNode(p), conceptNode(object)); err != nil {
		return vocab.Predicate{}, err
	}
	return p, nil
}
