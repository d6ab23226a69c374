package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_WrappedError(t *testing.T) {
	base := NotFound("user not found")
	wrapped := fmt.Errorf("resend: %w", base)

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, kind)
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindAuth))
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestDependency_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Dependency("failed to send login code", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to send login code: dial tcp: connection refused", err.Error())
	assert.Equal(t, "failed to send login code", err.Message)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "dependency", KindDependency.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 400, StatusCode(Validation("bad")))
	assert.Equal(t, 400, StatusCode(Conflict("dup")))
	assert.Equal(t, 400, StatusCode(Auth("no")))
	assert.Equal(t, 400, StatusCode(fmt.Errorf("wrap: %w", NotFound("gone"))))
	assert.Equal(t, 500, StatusCode(Dependency("db", errors.New("down"))))
	assert.Equal(t, 500, StatusCode(errors.New("boom")))
}
