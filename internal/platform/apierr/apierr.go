package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

type Error struct {
	Status  int
	Code    string
	Err     error
	Details any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromDomain maps a curation error onto an HTTP status and a stable code.
func FromDomain(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	var inv *vocab.InvalidEntityError
	if errors.As(err, &inv) {
		return &Error{Status: http.StatusBadRequest, Code: "invalid_" + string(inv.Kind), Err: err, Details: inv.Problems}
	}
	var conflict *vocab.ConflictError
	if errors.As(err, &conflict) {
		return &Error{Status: http.StatusConflict, Code: "conflicting_concepts", Err: err, Details: map[string]any{
			"concepts_a": conflict.ConceptsA,
			"concepts_b": conflict.ConceptsB,
		}}
	}
	var incomplete *vocab.MergeIncompleteError
	if errors.As(err, &incomplete) {
		return &Error{Status: http.StatusInternalServerError, Code: "merge_incomplete", Err: err, Details: map[string]string{"stage": incomplete.Stage}}
	}

	switch {
	case errors.Is(err, vocab.ErrInvalidEntity):
		return New(http.StatusBadRequest, "invalid_entity", err)
	case errors.Is(err, vocab.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, vocab.ErrConflictingConcepts):
		return New(http.StatusConflict, "conflicting_concepts", err)
	case errors.Is(err, vocab.ErrExhaustedIdentifierSpace):
		return New(http.StatusInternalServerError, "identifier_space_exhausted", err)
	case errors.Is(err, vocab.ErrStoreFailure):
		return New(http.StatusServiceUnavailable, "graph_store_failure", err)
	case errors.Is(err, context.DeadlineExceeded):
		return New(http.StatusGatewayTimeout, "timeout", err)
	}
	return New(http.StatusInternalServerError, "internal_error", err)
}
