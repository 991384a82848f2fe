// Package rational provides the exact time arithmetic used throughout the
// renderer.
//
// Every musical position and length is a Frac measured in quarter notes.
// Floating point never enters the pipeline: bar lengths, beat offsets and
// tuplet factors are compared with exact equality.
package rational
