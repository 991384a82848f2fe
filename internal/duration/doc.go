// Package duration decomposes lengths into atomic notated values.
//
// An atomic value is a power-of-two note length with a bounded number of
// dots. SplitDuration works on integer tick counts; Notate and
// SplitNonAtomic work on quarter-note fractions whose denominator is a
// power of two, which is what tuplet scaling produces.
package duration
