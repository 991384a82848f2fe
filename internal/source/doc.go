// Package source turns melody documents and Standard MIDI Files into
// ir.Melody values.
//
// Melody documents are YAML, JSON or CUE. All three are checked against
// an embedded CUE schema before they are decoded, so range errors (a
// pitch above 127, a key outside -7..7, an unknown field) are reported
// with a file position instead of surfacing later as render errors.
//
// ReadMIDI extracts a single voice from a MIDI track and expresses it in
// bars and quarter-note fractions, optionally snapped to a grid.
package source
