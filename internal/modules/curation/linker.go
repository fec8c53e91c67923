package curation

import (
	"context"

	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

type LinkBranch string

const (
	// Both terms already represent at least one common concept. Nothing is written.
	BranchAlreadyLinked LinkBranch = "already_linked"
	// Both terms exist and exactly one is anchored; the other joins its concept.
	BranchJoinedExisting LinkBranch = "joined_existing_concept"
	// Both terms exist and neither is anchored; a new concept anchors both.
	BranchNewConceptForBoth LinkBranch = "new_concept_for_existing_terms"
	// One term exists and is anchored; the missing term is created and joins its concept.
	BranchCreatedAndJoined LinkBranch = "created_term_joined_concept"
	// One term exists without a concept; the missing term and a new concept are created.
	BranchCreatedWithNewConcept LinkBranch = "created_term_new_concept"
	// Neither term exists; both terms and a new concept are created.
	BranchCreatedAll LinkBranch = "created_terms_and_concept"
)

// LinkOutcome describes what a link decided and wrote.
type LinkOutcome struct {
	Branch LinkBranch `json:"branch"`
	// Concepts both terms represent once the link is committed.
	Concepts       []vocab.Concept `json:"concepts"`
	CreatedTerms   []vocab.Term    `json:"created_terms,omitempty"`
	CreatedConcept *vocab.Concept  `json:"created_concept,omitempty"`
	// Attached lists the terms that received a new represents edge.
	Attached []vocab.Term `json:"attached,omitempty"`
}

// Mutated reports whether the link wrote anything.
func (o LinkOutcome) Mutated() bool { return o.Branch != BranchAlreadyLinked }

type termState struct {
	exists   bool
	concepts []vocab.Concept
}

// LinkTerms makes a and b represent a common concept using the smallest set of
// additions. It never removes an edge. All reads happen before the first write,
// so tx must be a write transaction that spans the whole call.
func LinkTerms(ctx context.Context, tx graph.Tx, alloc *Allocator, a, b vocab.Term) (LinkOutcome, error) {
	if err := a.Validate(); err != nil {
		return LinkOutcome{}, err
	}
	if err := b.Validate(); err != nil {
		return LinkOutcome{}, err
	}

	sa, err := readTermState(ctx, tx, a)
	if err != nil {
		return LinkOutcome{}, err
	}
	sb, err := readTermState(ctx, tx, b)
	if err != nil {
		return LinkOutcome{}, err
	}

	w := &linkWriter{tx: tx, alloc: alloc}
	switch {
	case sa.exists && sb.exists:
		if shared := intersect(sa.concepts, sb.concepts); len(shared) > 0 {
			return LinkOutcome{Branch: BranchAlreadyLinked, Concepts: shared}, nil
		}
		switch {
		case len(sa.concepts) > 0 && len(sb.concepts) > 0:
			return LinkOutcome{}, &vocab.ConflictError{A: a, B: b, ConceptsA: sa.concepts, ConceptsB: sb.concepts}
		case len(sa.concepts) > 0:
			return w.join(ctx, BranchJoinedExisting, sa.concepts[0], b)
		case len(sb.concepts) > 0:
			return w.join(ctx, BranchJoinedExisting, sb.concepts[0], a)
		default:
			return w.anchorNew(ctx, BranchNewConceptForBoth, a, b)
		}

	case sa.exists || sb.exists:
		existing, missing, state := a, b, sa
		if sb.exists {
			existing, missing, state = b, a, sb
		}
		if err := w.createTerm(ctx, missing); err != nil {
			return LinkOutcome{}, err
		}
		if len(state.concepts) > 0 {
			return w.join(ctx, BranchCreatedAndJoined, state.concepts[0], missing)
		}
		return w.anchorNew(ctx, BranchCreatedWithNewConcept, existing, missing)

	default:
		if err := w.createTerm(ctx, a); err != nil {
			return LinkOutcome{}, err
		}
		if err := w.createTerm(ctx, b); err != nil {
			return LinkOutcome{}, err
		}
		return w.anchorNew(ctx, BranchCreatedAll, a, b)
	}
}

func readTermState(ctx context.Context, tx graph.Tx, t vocab.Term) (termState, error) {
	exists, err := tx.Exists(ctx, termNode(t))
	if err != nil || !exists {
		return termState{exists: exists}, err
	}
	concepts, err := conceptsOf(ctx, tx, t)
	if err != nil {
		return termState{}, err
	}
	return termState{exists: true, concepts: concepts}, nil
}

func conceptsOf(ctx context.Context, tx graph.Tx, t vocab.Term) ([]vocab.Concept, error) {
	ns, err := tx.Neighbors(ctx, termNode(t), graph.RelRepresents, graph.Outgoing)
	if err != nil {
		return nil, err
	}
	out := make([]vocab.Concept, 0, len(ns))
	for _, n := range ns {
		if n.Node.Label == graph.LabelConcept {
			out = append(out, conceptFromNode(n.Node))
		}
	}
	return out, nil
}

// intersect keeps the order of a.
func intersect(a, b []vocab.Concept) []vocab.Concept {
	inB := make(map[string]struct{}, len(b))
	for _, c := range b {
		inB[c.NanoID] = struct{}{}
	}
	var out []vocab.Concept
	for _, c := range a {
		if _, ok := inB[c.NanoID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// linkWriter accumulates the outcome while issuing the writes of one link.
type linkWriter struct {
	tx      graph.Tx
	alloc   *Allocator
	created []vocab.Term
}

func (w *linkWriter) createTerm(ctx context.Context, t vocab.Term) error {
	for _, seen := range w.created {
		if seen == t {
			return nil
		}
	}
	if err := w.tx.UpsertNode(ctx, termNode(t)); err != nil {
		return err
	}
	w.created = append(w.created, t)
	return nil
}

func (w *linkWriter) attach(ctx context.Context, c vocab.Concept, terms ...vocab.Term) ([]vocab.Term, error) {
	var attached []vocab.Term
	for _, t := range terms {
		if len(attached) > 0 && attached[len(attached)-1] == t {
			continue
		}
		if err := w.tx.UpsertEdge(ctx, graph.RelRepresents, termNode(t), conceptNode(c)); err != nil {
			return nil, err
		}
		attached = append(attached, t)
	}
	return attached, nil
}

func (w *linkWriter) join(ctx context.Context, branch LinkBranch, c vocab.Concept, t vocab.Term) (LinkOutcome, error) {
	attached, err := w.attach(ctx, c, t)
	if err != nil {
		return LinkOutcome{}, err
	}
	return LinkOutcome{
		Branch:       branch,
		Concepts:     []vocab.Concept{c},
		CreatedTerms: w.created,
		Attached:     attached,
	}, nil
}

func (w *linkWriter) anchorNew(ctx context.Context, branch LinkBranch, a, b vocab.Term) (LinkOutcome, error) {
	id, err := w.alloc.Allocate(ctx, w.tx)
	if err != nil {
		return LinkOutcome{}, err
	}
	c := vocab.Concept{NanoID: id}
	if err := w.tx.UpsertNode(ctx, conceptNode(c)); err != nil {
		return LinkOutcome{}, err
	}
	attached, err := w.attach(ctx, c, a, b)
	if err != nil {
		return LinkOutcome{}, err
	}
	return LinkOutcome{
		Branch:         branch,
		Concepts:       []vocab.Concept{c},
		CreatedTerms:   w.created,
		CreatedConcept: &c,
		Attached:       attached,
	}, nil
}
