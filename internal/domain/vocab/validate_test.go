package vocab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermValidateReportsEveryMissingField(t *testing.T) {
	err := Term{}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidEntity))

	var inv *InvalidEntityError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, KindTerm, inv.Kind)
	assert.Equal(t, []string{"value", "origin_name"}, inv.Fields())

	err = Term{Value: "tumor", OriginName: "   "}.Validate()
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, []string{"origin_name"}, inv.Fields())

	assert.NoError(t, Term{Value: "tumor", OriginName: "NCIt"}.Validate())
}

func TestConceptValidate(t *testing.T) {
	assert.ErrorIs(t, Concept{}.Validate(), ErrInvalidEntity)
	assert.NoError(t, Concept{NanoID: "aB3dE5"}.Validate())
}

func TestPredicateValidateRejectsUnknownHandles(t *testing.T) {
	for _, h := range Handles {
		assert.NoError(t, Predicate{Handle: h, NanoID: "aB3dE5"}.Validate(), "handle %s", h)
	}

	cases := []struct {
		name   string
		pred   Predicate
		fields []string
	}{
		{name: "unknown handle", pred: Predicate{Handle: "sameAs", NanoID: "aB3dE5"}, fields: []string{"handle"}},
		{name: "wrong case", pred: Predicate{Handle: "ExactMatch", NanoID: "aB3dE5"}, fields: []string{"handle"}},
		{name: "empty", pred: Predicate{}, fields: []string{"handle", "nanoid"}},
		{name: "missing nanoid", pred: Predicate{Handle: HandleBroader}, fields: []string{"nanoid"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.pred.Validate()
			var inv *InvalidEntityError
			require.True(t, errors.As(err, &inv))
			assert.Equal(t, KindPredicate, inv.Kind)
			assert.Equal(t, tc.fields, inv.Fields())
		})
	}
}

func TestValidateHandle(t *testing.T) {
	assert.NoError(t, ValidateHandle(HandleNarrower))
	assert.ErrorIs(t, ValidateHandle(""), ErrInvalidEntity)
	assert.ErrorIs(t, ValidateHandle("broaderThan"), ErrInvalidEntity)
}

func TestErrorTaxonomyMatchesSentinels(t *testing.T) {
	cause := errors.New("connection reset")
	storeErr := &StoreError{Op: "upsert_edge", Cause: cause}
	assert.ErrorIs(t, storeErr, ErrStoreFailure)
	assert.ErrorIs(t, storeErr, cause)

	merge := &MergeIncompleteError{Stage: "recreate_terms", Cause: storeErr}
	assert.ErrorIs(t, merge, ErrStoreFailure)

	assert.ErrorIs(t, &NotFoundError{Kind: KindConcept, Key: "x"}, ErrNotFound)
	assert.ErrorIs(t, &ConflictError{}, ErrConflictingConcepts)
	assert.NotErrorIs(t, &ConflictError{}, ErrInvalidEntity)
}
