package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/mdb-curator/internal/data/dbctx"
	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/data/repos/audit"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
	"github.com/yungbote/mdb-curator/internal/modules/curation"
	"github.com/yungbote/mdb-curator/internal/observability"
	"github.com/yungbote/mdb-curator/internal/platform/ctxutil"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

const (
	OpLink            = "link"
	OpMerge           = "merge"
	OpRelate          = "relate"
	OpDeleteTerm      = "delete_term"
	OpDeleteConcept   = "delete_concept"
	OpDeletePredicate = "delete_predicate"
)

// LinkResult is the per-row outcome of linking confirmed candidates.
type LinkResult struct {
	Candidate vocab.Candidate       `json:"candidate"`
	Outcome   *curation.LinkOutcome `json:"outcome,omitempty"`
	Skipped   string                `json:"skipped,omitempty"`
	Error     string                `json:"error,omitempty"`
	Err       error                 `json:"-"`
}

type CurationService interface {
	LinkTerms(ctx context.Context, a, b vocab.Term) (curation.LinkOutcome, error)
	MergeConcepts(ctx context.Context, survivor, absorbed vocab.Concept) (curation.MergeOutcome, error)
	RelateConcepts(ctx context.Context, subject, object vocab.Concept, handle vocab.Handle) (vocab.Predicate, error)

	FindSynonyms(ctx context.Context, target vocab.Term, threshold float64) ([]vocab.Candidate, error)
	LinkConfirmed(ctx context.Context, target vocab.Term, candidates []vocab.Candidate) ([]LinkResult, error)
	DefaultThreshold() float64

	TermExists(ctx context.Context, t vocab.Term) (bool, error)
	ConceptsOf(ctx context.Context, t vocab.Term) ([]vocab.Concept, error)
	TermsOf(ctx context.Context, c vocab.Concept) ([]vocab.Term, error)
	PredicatesOf(ctx context.Context, c vocab.Concept) ([]vocab.PredicateEdge, error)
	DescribePredicate(ctx context.Context, p vocab.Predicate) (vocab.PredicateDetail, error)

	DeleteTerm(ctx context.Context, t vocab.Term) error
	DeleteConcept(ctx context.Context, c vocab.Concept) error
	DeletePredicate(ctx context.Context, p vocab.Predicate) error

	Health(ctx context.Context) error
}

type CurationOptions struct {
	Threshold float64
	// Events is optional; without it nothing is audited.
	Events audit.CurationEventRepo
}

type curationService struct {
	log       *logger.Logger
	store     graph.Store
	alloc     *curation.Allocator
	scorer    curation.Scorer
	events    audit.CurationEventRepo
	threshold float64
}

func NewCurationService(
	baseLog *logger.Logger,
	store graph.Store,
	alloc *curation.Allocator,
	scorer curation.Scorer,
	opts CurationOptions,
) CurationService {
	threshold := opts.Threshold
	if threshold == 0 || !curation.ValidThreshold(threshold) {
		threshold = curation.DefaultThreshold
	}
	return &curationService{
		log:       baseLog.With("service", "CurationService"),
		store:     store,
		alloc:     alloc,
		scorer:    scorer,
		events:    opts.Events,
		threshold: threshold,
	}
}

func (s *curationService) DefaultThreshold() float64 { return s.threshold }

func (s *curationService) LinkTerms(ctx context.Context, a, b vocab.Term) (out curation.LinkOutcome, err error) {
	ctx, span := observability.StartSpan(ctx, "curation.link",
		attribute.String("term_a", a.String()),
		attribute.String("term_b", b.String()),
	)
	defer func() { observability.EndSpan(span, err) }()

	err = s.store.Write(ctx, func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = curation.LinkTerms(ctx, tx, s.alloc, a, b)
		return err
	})
	if err != nil {
		s.logFailure("Link terms failed", err, "term_a", a.String(), "term_b", b.String())
		return curation.LinkOutcome{}, err
	}
	span.SetAttributes(attribute.String("branch", string(out.Branch)))
	s.log.Info("Linked terms",
		"branch", out.Branch,
		"term_a", a.String(),
		"term_b", b.String(),
		"concepts", conceptIDs(out.Concepts),
	)
	if out.Mutated() {
		s.record(ctx, OpLink, string(out.Branch), termKey(a), termKey(b), out)
	}
	return out, nil
}

func (s *curationService) MergeConcepts(ctx context.Context, survivor, absorbed vocab.Concept) (out curation.MergeOutcome, err error) {
	ctx, span := observability.StartSpan(ctx, "curation.merge",
		attribute.String("survivor", survivor.NanoID),
		attribute.String("absorbed", absorbed.NanoID),
	)
	defer func() { observability.EndSpan(span, err) }()

	err = s.store.Write(ctx, func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = curation.MergeConcepts(ctx, tx, survivor, absorbed)
		return err
	})
	if err != nil {
		var inc *vocab.MergeIncompleteError
		if errors.As(err, &inc) {
			s.log.Error("Merge aborted after absorbed concept was deleted; transaction rolled back",
				"survivor", survivor.NanoID,
				"absorbed", absorbed.NanoID,
				"stage", inc.Stage,
				"error", inc.Cause,
			)
		} else {
			s.logFailure("Merge concepts failed", err, "survivor", survivor.NanoID, "absorbed", absorbed.NanoID)
		}
		return curation.MergeOutcome{}, err
	}
	s.log.Info("Merged concepts",
		"survivor", survivor.NanoID,
		"absorbed", absorbed.NanoID,
		"terms", len(out.MigratedTerms),
		"predicates", len(out.MigratedPredicates),
	)
	s.record(ctx, OpMerge, "", survivor.NanoID, absorbed.NanoID, out)
	return out, nil
}

func (s *curationService) RelateConcepts(ctx context.Context, subject, object vocab.Concept, handle vocab.Handle) (p vocab.Predicate, err error) {
	ctx, span := observability.StartSpan(ctx, "curation.relate",
		attribute.String("subject", subject.NanoID),
		attribute.String("object", object.NanoID),
		attribute.String("handle", string(handle)),
	)
	defer func() { observability.EndSpan(span, err) }()

	err = s.store.Write(ctx, func(ctx context.Context, tx graph.Tx) error {
		var err error
		p, err = curation.RelateConcepts(ctx, tx, s.alloc, subject, object, handle)
		return err
	})
	if err != nil {
		s.logFailure("Relate concepts failed", err, "subject", subject.NanoID, "object", object.NanoID, "handle", handle)
		return vocab.Predicate{}, err
	}
	s.log.Info("Related concepts", "predicate", p.NanoID, "handle", p.Handle, "subject", subject.NanoID, "object", object.NanoID)
	s.record(ctx, OpRelate, string(handle), subject.NanoID, object.NanoID, p)
	return p, nil
}

func (s *curationService) FindSynonyms(ctx context.Context, target vocab.Term, threshold float64) (out []vocab.Candidate, err error) {
	ctx, span := observability.StartSpan(ctx, "curation.find_synonyms",
		attribute.String("target", target.String()),
		attribute.Float64("threshold", threshold),
	)
	defer func() { observability.EndSpan(span, err) }()

	err = s.store.Read(ctx, func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = curation.FindCandidates(ctx, tx, s.scorer, target, threshold)
		return err
	})
	if err != nil {
		s.logFailure("Find synonyms failed", err, "target", target.String())
		return nil, err
	}
	span.SetAttributes(attribute.Int("candidates", len(out)))
	s.log.Debug("Found synonym candidates", "target", target.String(), "threshold", threshold, "count", len(out))
	return out, nil
}

// LinkConfirmed links target with every confirmed candidate, one transaction each.
// A failed row is reported in its result and does not undo earlier rows.
func (s *curationService) LinkConfirmed(ctx context.Context, target vocab.Term, candidates []vocab.Candidate) ([]LinkResult, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	results := make([]LinkResult, 0, len(candidates))
	linked, failed := 0, 0
	for _, c := range candidates {
		r := LinkResult{Candidate: c}
		switch {
		case !c.Confirmed:
			r.Skipped = "not confirmed"
		case c.Term() == target:
			r.Skipped = "candidate is the target term"
		default:
			if err := ctx.Err(); err != nil {
				return results, err
			}
			out, err := s.LinkTerms(ctx, target, c.Term())
			if err != nil {
				r.Err = err
				r.Error = err.Error()
				failed++
			} else {
				r.Outcome = &out
				linked++
			}
		}
		results = append(results, r)
	}
	s.log.Info("Linked confirmed candidates", "target", target.String(), "rows", len(candidates), "linked", linked, "failed", failed)
	return results, nil
}

func (s *curationService) TermExists(ctx context.Context, t vocab.Term) (ok bool, err error) {
	err = s.store.Read(ctx, func(ctx context.Context, tx graph.Tx) error {
		var err error
		ok, err = curation.TermExists(ctx, tx, t)
		return err
	})
	return ok, err
}

func (s *curationService) ConceptsOf(ctx context.Context, t vocab.Term) (out []vocab.Concept, err error) {
	err = s.store.Read(ctx, func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = curation.ConceptsOf(ctx, tx, t)
		return err
	})
	return out, err
}

func (s *curationService) TermsOf(ctx context.Context, c vocab.Concept) (out []vocab.Term, err error) {
	err = s.store.Read(ctx, func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = curation.TermsOf(ctx, tx, c)
		return err
	})
	return out, err
}

func (s *curationService) PredicatesOf(ctx context.Context, c vocab.Concept) (out []vocab.PredicateEdge, err error) {
	err = s.store.Read(ctx, func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = curation.PredicatesOf(ctx, tx, c)
		return err
	})
	return out, err
}

func (s *curationService) DescribePredicate(ctx context.Context, p vocab.Predicate) (out vocab.PredicateDetail, err error) {
	err = s.store.Read(ctx, func(ctx context.Context, tx graph.Tx) error {
		var err error
		out, err = curation.DescribePredicate(ctx, tx, p)
		return err
	})
	return out, err
}

func (s *curationService) DeleteTerm(ctx context.Context, t vocab.Term) error {
	return s.delete(ctx, OpDeleteTerm, termKey(t), func(ctx context.Context, tx graph.Tx) error {
		return curation.DeleteTerm(ctx, tx, t)
	})
}

func (s *curationService) DeleteConcept(ctx context.Context, c vocab.Concept) error {
	return s.delete(ctx, OpDeleteConcept, c.NanoID, func(ctx context.Context, tx graph.Tx) error {
		return curation.DeleteConcept(ctx, tx, c)
	})
}

func (s *curationService) DeletePredicate(ctx context.Context, p vocab.Predicate) error {
	return s.delete(ctx, OpDeletePredicate, p.NanoID, func(ctx context.Context, tx graph.Tx) error {
		return curation.DeletePredicate(ctx, tx, p)
	})
}

func (s *curationService) delete(ctx context.Context, op, key string, fn func(ctx context.Context, tx graph.Tx) error) (err error) {
	ctx, span := observability.StartSpan(ctx, "curation."+op, attribute.String("key", key))
	defer func() { observability.EndSpan(span, err) }()

	if err = s.store.Write(ctx, fn); err != nil {
		s.logFailure("Delete failed", err, "op", op, "key", key)
		return err
	}
	s.log.Info("Deleted", "op", op, "key", key)
	s.record(ctx, op, "", key, "", nil)
	return nil
}

func (s *curationService) Health(ctx context.Context) error {
	return s.store.Read(ctx, func(ctx context.Context, tx graph.Tx) error {
		_, err := tx.Exists(ctx, graph.Node{Label: graph.LabelConcept, Props: graph.Props{"nanoid": "healthz"}})
		return err
	})
}

// record appends an audit event. The graph already committed, so failures are only logged.
func (s *curationService) record(ctx context.Context, op, branch, subject, object string, details any) {
	if s.events == nil {
		return
	}
	raw := []byte("{}")
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			s.log.Warn("Audit details not encodable", "op", op, "error", err)
		} else {
			raw = b
		}
	}
	ev := &vocab.CurationEvent{
		Operation: op,
		Branch:    branch,
		Subject:   subject,
		Object:    object,
		Details:   datatypes.JSON(raw),
		Operator:  ctxutil.Operator(ctx),
		RequestID: ctxutil.RequestID(ctx),
	}
	if _, err := s.events.Create(dbctx.New(context.WithoutCancel(ctx)), []*vocab.CurationEvent{ev}); err != nil {
		s.log.Warn("Audit write failed", "op", op, "subject", subject, "object", object, "error", err)
	}
}

// logFailure logs caller errors at Info and everything else at Error.
func (s *curationService) logFailure(msg string, err error, kv ...any) {
	kv = append(kv, "error", err)
	switch {
	case errors.Is(err, vocab.ErrInvalidEntity),
		errors.Is(err, vocab.ErrNotFound),
		errors.Is(err, vocab.ErrConflictingConcepts):
		s.log.Info(msg, kv...)
	default:
		s.log.Error(msg, kv...)
	}
}

func termKey(t vocab.Term) string {
	return fmt.Sprintf("%s|%s", t.Value, t.OriginName)
}

func conceptIDs(cs []vocab.Concept) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.NanoID)
	}
	return out
}
