package tabulator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTabulationErrorMessageIncludesContext(t *testing.T) {
	wrapped := errors.New("boom")
	err := NewTabulationError(ErrorKindTieBreakUnresolved, 3, "Alice", "could not resolve", wrapped)

	msg := err.Error()
	assert.Contains(t, msg, "tie_break_unresolved")
	assert.Contains(t, msg, "round=3")
	assert.Contains(t, msg, `candidate="Alice"`)
	assert.Contains(t, msg, "could not resolve")
	assert.Contains(t, msg, "boom")
}

func TestTabulationErrorUnwraps(t *testing.T) {
	wrapped := errors.New("boom")
	err := NewTabulationError(ErrorKindUnknown, 0, "", "", wrapped)

	assert.ErrorIs(t, err, wrapped)
}

func TestErrorKindStringUnknownDefault(t *testing.T) {
	var k ErrorKind = 99
	assert.Equal(t, "unknown", k.String())
}
