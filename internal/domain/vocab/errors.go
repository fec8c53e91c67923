package vocab

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidEntity            = errors.New("invalid entity")
	ErrConflictingConcepts      = errors.New("conflicting concepts")
	ErrNotFound                 = errors.New("not found")
	ErrStoreFailure             = errors.New("store failure")
	ErrExhaustedIdentifierSpace = errors.New("exhausted identifier space")
)

type EntityKind string

const (
	KindTerm      EntityKind = "term"
	KindConcept   EntityKind = "concept"
	KindPredicate EntityKind = "predicate"
	KindQuery     EntityKind = "synonym_query"
	KindMerge     EntityKind = "merge_request"
)

type FieldProblem struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

type InvalidEntityError struct {
	Kind     EntityKind
	Problems []FieldProblem
}

func (e *InvalidEntityError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+" "+p.Problem)
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(parts, ", "))
}

func (e *InvalidEntityError) Is(target error) bool { return target == ErrInvalidEntity }

// Fields lists the offending field names in report order.
func (e *InvalidEntityError) Fields() []string {
	out := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		out = append(out, p.Field)
	}
	return out
}

// ConflictError is raised when two terms are each anchored to different concepts.
// Resolving it is the caller's decision (merge the concepts, or reject the link).
type ConflictError struct {
	A, B      Term
	ConceptsA []Concept
	ConceptsB []Concept
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting concepts: %s represents %v, %s represents %v",
		e.A, e.ConceptsA, e.B, e.ConceptsB)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflictingConcepts }

type NotFoundError struct {
	Kind EntityKind
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StoreError wraps a transport or transaction failure from the graph store verbatim.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("graph store %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

func (e *StoreError) Is(target error) bool { return target == ErrStoreFailure }

// MergeIncompleteError marks a merge that failed after the absorbed concept was
// deleted. The enclosing transaction must be rolled back; it is never retried.
type MergeIncompleteError struct {
	Survivor Concept
	Absorbed Concept
	Stage    string
	Cause    error
}

func (e *MergeIncompleteError) Error() string {
	return fmt.Sprintf("merge %s into %s failed during %s: %v", e.Absorbed, e.Survivor, e.Stage, e.Cause)
}

func (e *MergeIncompleteError) Unwrap() error { return e.Cause }
