package curation

import (
	"context"

	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

type MergeOutcome struct {
	Survivor           vocab.Concept         `json:"survivor"`
	Absorbed           vocab.Concept         `json:"absorbed"`
	MigratedTerms      []vocab.Term          `json:"migrated_terms"`
	MigratedPredicates []vocab.PredicateEdge `json:"migrated_predicates"`
}

// MergeConcepts moves every represents, has_subject and has_object edge of absorbed
// onto survivor, then leaves absorbed deleted. Edges survivor already holds are
// untouched. A failure after the delete is reported as *vocab.MergeIncompleteError
// and the caller's transaction must be rolled back.
func MergeConcepts(ctx context.Context, tx graph.Tx, survivor, absorbed vocab.Concept) (MergeOutcome, error) {
	if err := survivor.Validate(); err != nil {
		return MergeOutcome{}, err
	}
	if err := absorbed.Validate(); err != nil {
		return MergeOutcome{}, err
	}
	if survivor.NanoID == absorbed.NanoID {
		return MergeOutcome{}, &vocab.InvalidEntityError{
			Kind:     vocab.KindMerge,
			Problems: []vocab.FieldProblem{{Field: "nanoid", Problem: "survivor and absorbed are the same concept"}},
		}
	}
	for _, c := range []vocab.Concept{survivor, absorbed} {
		if err := requireConcept(ctx, tx, c); err != nil {
			return MergeOutcome{}, err
		}
	}

	terms, err := termsOf(ctx, tx, absorbed)
	if err != nil {
		return MergeOutcome{}, err
	}
	preds, err := predicatesOf(ctx, tx, absorbed)
	if err != nil {
		return MergeOutcome{}, err
	}

	if err := tx.DetachDelete(ctx, conceptNode(absorbed)); err != nil {
		return MergeOutcome{}, err
	}

	incomplete := func(stage string, cause error) error {
		return &vocab.MergeIncompleteError{Survivor: survivor, Absorbed: absorbed, Stage: stage, Cause: cause}
	}
	for _, t := range terms {
		if err := tx.UpsertEdge(ctx, graph.RelRepresents, termNode(t), conceptNode(survivor)); err != nil {
			return MergeOutcome{}, incomplete("recreate_represents", err)
		}
	}
	for _, pe := range preds {
		if err := tx.UpsertEdge(ctx, graph.RelType(pe.Role), predicateNode(pe.Predicate), conceptNode(survivor)); err != nil {
			return MergeOutcome{}, incomplete("recreate_"+string(pe.Role), err)
		}
	}

	return MergeOutcome{
		Survivor:           survivor,
		Absorbed:           absorbed,
		MigratedTerms:      terms,
		MigratedPredicates: preds,
	}, nil
}

func requireConcept(ctx context.Context, tx graph.Tx, c vocab.Concept) error {
	ok, err := tx.Exists(ctx, conceptNode(c))
	if err != nil {
		return err
	}
	if !ok {
		return &vocab.NotFoundError{Kind: vocab.KindConcept, Key: c.NanoID}
	}
	return nil
}

func termsOf(ctx context.Context, tx graph.Tx, c vocab.Concept) ([]vocab.Term, error) {
	ns, err := tx.Neighbors(ctx, conceptNode(c), graph.RelRepresents, graph.Incoming)
	if err != nil {
		return nil, err
	}
	out := make([]vocab.Term, 0, len(ns))
	for _, n := range ns {
		if n.Node.Label == graph.LabelTerm {
			out = append(out, termFromNode(n.Node))
		}
	}
	return out, nil
}

// predicatesOf returns every predicate pointing at c together with the role it uses.
func predicatesOf(ctx context.Context, tx graph.Tx, c vocab.Concept) ([]vocab.PredicateEdge, error) {
	ns, err := tx.Neighbors(ctx, conceptNode(c), graph.RelAny, graph.Incoming)
	if err != nil {
		return nil, err
	}
	var out []vocab.PredicateEdge
	for _, n := range ns {
		role := vocab.Role(n.Rel)
		if n.Node.Label != graph.LabelPredicate || !role.Valid() {
			continue
		}
		out = append(out, vocab.PredicateEdge{Predicate: predicateFromNode(n.Node), Role: role})
	}
	return out, nil
}
