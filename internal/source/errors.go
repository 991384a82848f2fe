package source

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error codes carried by LoadError.
const (
	ErrCodeNotFound    = "E_NOT_FOUND"
	ErrCodeFormat      = "E_FORMAT"
	ErrCodeParse       = "E_PARSE"
	ErrCodeSchema      = "E_SCHEMA"
	ErrCodeMIDI        = "E_MIDI"
	ErrCodeNoNotes     = "E_NO_NOTES"
	ErrCodeTimeFormat  = "E_TIME_FORMAT"
	ErrCodeMeterChange = "E_METER_CHANGE"
)

// LoadError is a failure to read or validate an input document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func loadErrorf(code, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...)}
}
