package derrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFatalClassification(t *testing.T) {
	assert.True(t, Fatal(MalformedInput))
	assert.True(t, Fatal(InternalInvariantViolation))
	assert.False(t, Fatal(UnstructurableRegion))
	assert.False(t, Fatal(TypeResolutionAmbiguity))
}

func TestMethodErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewMethodError(MalformedInput, "LFoo;", "bar", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "LFoo;.bar")
}
