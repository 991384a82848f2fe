package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/mensur/internal/rational"
)

func TestRenderErrorMessage(t *testing.T) {
	err := NewStructuralOverflowError("position %s already occupied", "1/2")
	assert.Equal(t, "STRUCTURAL_OVERFLOW: position 1/2 already occupied", err.Error())

	err = err.WithBar(3).WithSource(7)
	assert.Equal(t, "STRUCTURAL_OVERFLOW: position 1/2 already occupied (bar=3, source=7)", err.Error())
}

func TestRenderErrorSyntheticSource(t *testing.T) {
	err := NewInvalidDurationError(rational.Zero, "duration must be positive").WithSource(-1)
	_, ok := err.Details["source"]
	assert.False(t, ok)
	assert.Equal(t, "0", err.Details["duration"])
}

func TestRenderErrorHelpersUnwrap(t *testing.T) {
	tests := []struct {
		err  error
		is   func(error) bool
		code ErrorCode
	}{
		{NewInvalidDurationError(rational.Zero, "zero"), IsInvalidDuration, ErrCodeInvalidDuration},
		{NewUnsupportedMeterError(Meter{5, 6}), IsUnsupportedMeter, ErrCodeUnsupportedMeter},
		{NewSplitIntegrityError(rational.One, rational.New(1, 2)), IsSplitIntegrity, ErrCodeSplitIntegrity},
		{NewStructuralOverflowError("overlap"), IsStructuralOverflow, ErrCodeStructuralOverflow},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			wrapped := fmt.Errorf("render melody: %w", tt.err)
			assert.True(t, tt.is(wrapped))
			assert.Equal(t, tt.code, CodeOf(wrapped))
		})
	}

	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.False(t, IsInvalidDuration(nil))
}
