package duration

import (
	"strconv"
	"strings"

	"github.com/roach88/mensur/internal/rational"
)

// Duration is a LilyPond duration: Log is the duration log (0 whole,
// 2 quarter, -1 breve, -2 longa).
type Duration struct {
	Log  int
	Dots int
}

// MinLog is the longest representable base, the longa.
const MinLog = -2

// Base returns the duration without dots: "4", "16", `\breve`.
func (d Duration) Base() string {
	switch d.Log {
	case -1:
		return `\breve`
	case -2:
		return `\longa`
	}
	return strconv.Itoa(1 << d.Log)
}

func (d Duration) String() string {
	return d.Base() + strings.Repeat(".", d.Dots)
}

// Length returns the duration in quarter notes.
func (d Duration) Length() rational.Frac {
	var base rational.Frac
	if d.Log <= 2 {
		base = rational.Int(int64(1) << (2 - d.Log))
	} else {
		base = rational.New(1, int64(1)<<(d.Log-2))
	}
	v := Value{Base: 1 << d.Dots, Dots: d.Dots}
	return base.Mul(rational.New(v.Ticks(), 1<<d.Dots))
}

// Notate returns the LilyPond duration for f quarter notes. It reports
// false when f is not atomic: f must be m·2^e/d with d a power of two,
// m+1 a power of two and at most MaxDots dots.
func (dc Decomposer) Notate(f rational.Frac) (Duration, bool) {
	if f.Sign() <= 0 || !rational.IsPowerOfTwo(f.Den()) {
		return Duration{}, false
	}
	m, e := f.Num(), 0
	for m%2 == 0 {
		m /= 2
		e++
	}
	val, ok := dc.calcDots(m)
	if !ok {
		return Duration{}, false
	}
	// The base spans val.Base·2^e ticks of 1/den quarters.
	k := rational.Log2(val.Base) + e - rational.Log2(f.Den())
	log := 2 - k
	if log < MinLog {
		return Duration{}, false
	}
	return Duration{Log: log, Dots: val.Dots}, true
}

// IsAtomic reports whether f quarter notes can be written as one value.
func (dc Decomposer) IsAtomic(f rational.Frac) bool {
	_, ok := dc.Notate(f)
	return ok
}

// IsAtomic uses the Default decomposer.
func IsAtomic(f rational.Frac) bool { return Default.IsAtomic(f) }
