package curation

import (
	"context"
	"slices"
	"strings"

	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

func TermExists(ctx context.Context, tx graph.Tx, t vocab.Term) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	return tx.Exists(ctx, termNode(t))
}

// ConceptsOf lists the concepts t represents. A missing term is NotFound.
func ConceptsOf(ctx context.Context, tx graph.Tx, t vocab.Term) ([]vocab.Concept, error) {
	ok, err := TermExists(ctx, tx, t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &vocab.NotFoundError{Kind: vocab.KindTerm, Key: t.String()}
	}
	return conceptsOf(ctx, tx, t)
}

func TermsOf(ctx context.Context, tx graph.Tx, c vocab.Concept) ([]vocab.Term, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := requireConcept(ctx, tx, c); err != nil {
		return nil, err
	}
	return termsOf(ctx, tx, c)
}

func PredicatesOf(ctx context.Context, tx graph.Tx, c vocab.Concept) ([]vocab.PredicateEdge, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := requireConcept(ctx, tx, c); err != nil {
		return nil, err
	}
	return predicatesOf(ctx, tx, c)
}

// DescribePredicate looks a predicate up by nanoid and resolves its endpoints.
func DescribePredicate(ctx context.Context, tx graph.Tx, p vocab.Predicate) (vocab.PredicateDetail, error) {
	if strings.TrimSpace(p.NanoID) == "" {
		return vocab.PredicateDetail{}, &vocab.InvalidEntityError{
			Kind:     vocab.KindPredicate,
			Problems: []vocab.FieldProblem{{Field: "nanoid", Problem: "missing"}},
		}
	}
	ok, err := tx.Exists(ctx, predicateNode(p))
	if err != nil {
		return vocab.PredicateDetail{}, err
	}
	if !ok {
		return vocab.PredicateDetail{}, &vocab.NotFoundError{Kind: vocab.KindPredicate, Key: p.NanoID}
	}
	subjects, objects, err := endpoints(ctx, tx, p)
	if err != nil {
		return vocab.PredicateDetail{}, err
	}
	out := vocab.PredicateDetail{Predicate: vocab.Predicate{NanoID: p.NanoID}, Subjects: subjects, Objects: objects}

	// The handle lives on the predicate node; read it back through an endpoint.
	for _, c := range slices.Concat(subjects, objects) {
		edges, err := predicatesOf(ctx, tx, c)
		if err != nil {
			return vocab.PredicateDetail{}, err
		}
		for _, e := range edges {
			if e.Predicate.NanoID == p.NanoID {
				out.Predicate = e.Predicate
				return out, nil
			}
		}
	}
	return out, nil
}

func endpoints(ctx context.Context, tx graph.Tx, p vocab.Predicate) (subject, object []vocab.Concept, err error) {
	ns, err := tx.Neighbors(ctx, predicateNode(p), graph.RelAny, graph.Outgoing)
	if err != nil {
		return nil, nil, err
	}
	for _, n := range ns {
		if n.Node.Label != graph.LabelConcept {
			continue
		}
		switch n.Rel {
		case graph.RelHasSubject:
			subject = append(subject, conceptFromNode(n.Node))
		case graph.RelHasObject:
			object = append(object, conceptFromNode(n.Node))
		}
	}
	return subject, object, nil
}
