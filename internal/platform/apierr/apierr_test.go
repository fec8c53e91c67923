package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

func TestFromDomain(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&vocab.InvalidEntityError{Kind: vocab.KindTerm, Problems: []vocab.FieldProblem{{Field: "value", Problem: "missing"}}}, http.StatusBadRequest, "invalid_term"},
		{&vocab.NotFoundError{Kind: vocab.KindConcept, Key: "abc"}, http.StatusNotFound, "not_found"},
		{&vocab.ConflictError{}, http.StatusConflict, "conflicting_concepts"},
		{fmt.Errorf("wrapped: %w", vocab.ErrExhaustedIdentifierSpace), http.StatusInternalServerError, "identifier_space_exhausted"},
		{&vocab.StoreError{Op: "commit", Cause: errors.New("io")}, http.StatusServiceUnavailable, "graph_store_failure"},
		{&vocab.MergeIncompleteError{Stage: "recreate_represents", Cause: errors.New("io")}, http.StatusInternalServerError, "merge_incomplete"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		{New(http.StatusTeapot, "teapot", nil), http.StatusTeapot, "teapot"},
	}
	for _, tc := range cases {
		got := FromDomain(tc.err)
		assert.Equal(t, tc.status, got.Status, tc.err.Error())
		assert.Equal(t, tc.code, got.Code, tc.err.Error())
	}
}

func TestInvalidEntityCarriesProblems(t *testing.T) {
	problems := []vocab.FieldProblem{{Field: "origin_name", Problem: "missing"}}
	got := FromDomain(&vocab.InvalidEntityError{Kind: vocab.KindTerm, Problems: problems})
	assert.Equal(t, problems, got.Details)
	assert.ErrorIs(t, got, vocab.ErrInvalidEntity)
}
