package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	err := New(CodeStateConflict, "case is terminal")
	assert.True(t, HasCode(err, CodeStateConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(nil, CodeStateConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeStateConflict))
}

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("row not found")
	err := Wrap(cause, CodeNotFound, "unknown slot")

	require.Error(t, err)
	assert.True(t, HasCode(err, CodeNotFound))
	assert.ErrorIs(t, err, cause)

	// A second wrap reports the outermost code.
	outer := Wrap(err, CodeInternal, "lookup failed")
	assert.True(t, HasCode(outer, CodeInternal))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "bad field")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))

	wrapped := fmt.Errorf("context: %w", New(CodeCapacityExceeded, "slot full"))
	assert.Equal(t, CodeCapacityExceeded, CodeOf(wrapped))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "slot full", MessageOf(New(CodeCapacityExceeded, "slot full")))
	assert.Empty(t, MessageOf(errors.New("uncoded")))
}
