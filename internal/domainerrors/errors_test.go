package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsIs_ComparesByCode(t *testing.T) {
	err := New(CodeNotOwner, "caller 0xb does not own pet 1")

	require.ErrorIs(t, err, ErrNotOwner)
	assert.NotErrorIs(t, err, ErrUnauthorized)

	wrapped := fmt.Errorf("update pet: %w", err)
	require.ErrorIs(t, wrapped, ErrNotOwner)
	assert.Equal(t, CodeNotOwner, CodeOf(wrapped))
}

func TestCodeOf_UntypedIsInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("disk full")))
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "load pet")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "internal_error: load pet: connection reset", err.Error())
	assert.Equal(t, "load pet", Message(err))
}

func TestMessage_FallsBackToCode(t *testing.T) {
	assert.Equal(t, "pet_not_found", Message(ErrPetNotFound))
	assert.Equal(t, "", Message(errors.New("plain")))
}

func TestSpecificNotFoundMatchesGenericNotFound(t *testing.T) {
	require.ErrorIs(t, New(CodePetNotFound, "pet 9"), ErrNotFound)
	require.ErrorIs(t, ErrInstitutionNotFound, ErrNotFound)
	assert.NotErrorIs(t, ErrNotFound, ErrPetNotFound)
	assert.NotErrorIs(t, ErrNotRegistered, ErrNotFound)
}
