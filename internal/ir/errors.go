package ir

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/mensur/internal/rational"
)

// RenderError is a fatal failure that aborts rendering of a whole melody.
//
// Partial output is never returned alongside a RenderError. The one
// recoverable condition, a non-atomic duration reaching the token writer,
// is not an error: it is counted and rendered as FallbackSymbol.
type RenderError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details carries bar numbers, source indexes and offending values.
	Details map[string]string
}

// ErrorCode categorizes render errors.
type ErrorCode string

const (
	// ErrCodeInvalidDuration: a zero or negative duration, or a notated
	// value longer than the longest supported base.
	ErrCodeInvalidDuration ErrorCode = "INVALID_DURATION"

	// ErrCodeUnsupportedMeter: a bar length whose tuplet factor is neither
	// 1 nor 3/2.
	ErrCodeUnsupportedMeter ErrorCode = "UNSUPPORTED_METER"

	// ErrCodeSplitIntegrity: split fragments do not add up to the event.
	ErrCodeSplitIntegrity ErrorCode = "SPLIT_INTEGRITY"

	// ErrCodeStructuralOverflow: two events claim the same position, or an
	// event runs into the next onset.
	ErrCodeStructuralOverflow ErrorCode = "STRUCTURAL_OVERFLOW"

	// ErrCodeRenderFallback names the fallback diagnostic. It is never
	// returned as an error.
	ErrCodeRenderFallback ErrorCode = "RENDER_FALLBACK"
)

// Error implements the error interface.
func (e *RenderError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	parts := make([]string, 0, len(e.Details))
	for _, k := range slices.Sorted(maps.Keys(e.Details)) {
		parts = append(parts, k+"="+e.Details[k])
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

// WithBar records the bar the error was detected in.
func (e *RenderError) WithBar(n int) *RenderError {
	return e.with("bar", strconv.Itoa(n))
}

// WithSource records the source index of the offending event.
func (e *RenderError) WithSource(index int) *RenderError {
	if index < 0 {
		return e
	}
	return e.with("source", strconv.Itoa(index))
}

func (e *RenderError) with(k, v string) *RenderError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[k] = v
	return e
}

// NewInvalidDurationError creates a RenderError for an unusable duration.
func NewInvalidDurationError(d rational.Frac, reason string) *RenderError {
	return &RenderError{
		Code:    ErrCodeInvalidDuration,
		Message: reason,
		Details: map[string]string{"duration": d.String()},
	}
}

// NewUnsupportedMeterError creates a RenderError for a meter whose bar
// length cannot be notated.
func NewUnsupportedMeterError(m Meter) *RenderError {
	return &RenderError{
		Code:    ErrCodeUnsupportedMeter,
		Message: fmt.Sprintf("meter %s has an irregular bar length of %s quarters", m, m.QPer()),
		Details: map[string]string{"meter": m.String()},
	}
}

// NewSplitIntegrityError creates a RenderError for fragments that do not
// sum to the original duration.
func NewSplitIntegrityError(want, got rational.Frac) *RenderError {
	return &RenderError{
		Code:    ErrCodeSplitIntegrity,
		Message: "split fragments do not sum to the event duration",
		Details: map[string]string{"want": want.String(), "got": got.String()},
	}
}

// NewStructuralOverflowError creates a RenderError for colliding events.
func NewStructuralOverflowError(format string, args ...any) *RenderError {
	return &RenderError{
		Code:    ErrCodeStructuralOverflow,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf returns the code of the RenderError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsInvalidDuration reports whether err is an INVALID_DURATION error.
// Uses errors.As to handle wrapped errors.
func IsInvalidDuration(err error) bool { return CodeOf(err) == ErrCodeInvalidDuration }

// IsUnsupportedMeter reports whether err is an UNSUPPORTED_METER error.
func IsUnsupportedMeter(err error) bool { return CodeOf(err) == ErrCodeUnsupportedMeter }

// IsSplitIntegrity reports whether err is a SPLIT_INTEGRITY error.
func IsSplitIntegrity(err error) bool { return CodeOf(err) == ErrCodeSplitIntegrity }

// IsStructuralOverflow reports whether err is a STRUCTURAL_OVERFLOW error.
func IsStructuralOverflow(err error) bool { return CodeOf(err) == ErrCodeStructuralOverflow }
