// Package errors_test covers the AppError type, its factories and the
// error-chain helpers.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"invalid parameter", errors.ErrCodeInvalidParameter, "SP must be one of 1, 2, 3"},
		{"cycle", errors.ErrCodeDependencyCycle, "A -> B -> A"},
		{"smiles", errors.ErrCodeMoleculeInvalidSMILES, "unclosed ring 1"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)
			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.ErrCodeUnknownDescriptor, "descriptor %q is not registered", "XYZ")
	assert.Equal(t, `descriptor "XYZ" is not registered`, ae.Message)
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.Wrap(nil, errors.ErrCodeInternal, "ignored"))
	assert.Nil(t, errors.Wrapf(nil, errors.ErrCodeInternal, "ignored %d", 1))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("dial tcp: connection refused")
	level1 := errors.Wrap(root, errors.ErrCodeDatabaseError, "postgres unreachable")
	level2 := errors.Wrap(level1, errors.ErrCodeInternal, "failed to persist results")

	assert.Equal(t, level1, stderrors.Unwrap(level2))
	assert.Equal(t, root, stderrors.Unwrap(level1))
	assert.True(t, stderrors.Is(level2, root))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeDependencyCycle, "A -> A")
	outer := errors.Wrap(inner, errors.CodeUnknown, "registering A")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeDependencyCycle, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeDependencyCycle, "A -> A")
	outer := errors.Wrap(inner, errors.ErrCodeInternal, "unexpected")
	assert.Equal(t, errors.ErrCodeInternal, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Error()
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeMoleculeInvalidSMILES, "invalid SMILES").
		WithDetail("input=C1CC")
	assert.Equal(t, "[MOL_001] invalid SMILES: input=C1CC", ae.Error())

	wrapped := errors.Wrap(fmt.Errorf("boom"), errors.ErrCodeCacheError, "redis get")
	assert.Equal(t, "[STORE_002] redis get: boom", wrapped.Error())
}

func TestWithDetail_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	original := errors.New(errors.ErrCodeNotFound, "resource missing")
	detailed := original.WithDetail("id=42")

	assert.Empty(t, original.Detail)
	assert.Equal(t, "id=42", detailed.Detail)
	assert.Equal(t, original.Code, detailed.Code)

	var nilErr *errors.AppError
	assert.Nil(t, nilErr.WithDetail("x"))
	assert.Nil(t, nilErr.WithCause(stderrors.New("x")))
}

func TestWithCause_Unwraps(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("timeout")
	ae := errors.New(errors.ErrCodeToolkitQueryFailed, "shortest paths").WithCause(cause)
	assert.Equal(t, cause, stderrors.Unwrap(ae))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_TraversesChain(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeInvalidParameter, "bad SP")
	outer := fmt.Errorf("building preset: %w", inner)

	assert.True(t, errors.IsCode(outer, errors.ErrCodeInvalidParameter))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeDependencyCycle))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeInvalidParameter))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeCacheError,
		errors.GetCode(errors.New(errors.ErrCodeCacheError, "x")))
}

func TestIs_MatchesSentinelByCode(t *testing.T) {
	t.Parallel()

	sentinel := &errors.AppError{Code: errors.ErrCodeCacheMiss}
	err := fmt.Errorf("lookup: %w", errors.New(errors.ErrCodeCacheMiss, "key absent"))
	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, &errors.AppError{Code: errors.ErrCodeCacheError}))
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, errors.HTTPStatus(errors.New(errors.ErrCodeInvalidParameter, "x")))
	assert.Equal(t, http.StatusNotFound, errors.HTTPStatus(errors.New(errors.ErrCodeResultNotFound, "x")))
	assert.Equal(t, http.StatusInternalServerError, errors.HTTPStatus(stderrors.New("plain")))
	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
	assert.True(t, errors.IsValidation(errors.InvalidParam("x")))
}

//Personal.AI order the ending
