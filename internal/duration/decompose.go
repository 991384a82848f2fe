package duration

import (
	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/rational"
)

// Value is one atomic chunk in integer ticks: a power-of-two base extended
// by Dots dots. Its length is Base·(2 - 2^-Dots).
type Value struct {
	Base int64
	Dots int
}

// Ticks returns the chunk length in ticks.
func (v Value) Ticks() int64 {
	return 2*v.Base - v.Base>>v.Dots
}

// Length converts the chunk to quarter notes, given the tick size 1/unit.
func (v Value) Length(unit int64) rational.Frac {
	return rational.New(v.Ticks(), unit)
}

// CalcDots returns the single dotted value of length v when v is of the
// form 2^k-1: base 2^(k-1) with k-1 dots. It reports false otherwise.
func CalcDots(v int64) (Value, bool) {
	if v <= 0 || !rational.IsPowerOfTwo(v+1) {
		return Value{}, false
	}
	return Value{
		Base: rational.PrevPowerOfTwo(v),
		Dots: rational.Log2(v+1) - 1,
	}, true
}

// Decomposer splits tick counts into atomic chunks, allowing at most
// MaxDots dots per chunk.
type Decomposer struct {
	MaxDots int
}

// Default allows double dots.
var Default = Decomposer{MaxDots: 2}

func (d Decomposer) calcDots(v int64) (Value, bool) {
	val, ok := CalcDots(v)
	if !ok || val.Dots > d.MaxDots {
		return Value{}, false
	}
	return val, true
}

// SplitDuration decomposes v ticks into atomic chunks. When maxPeriod is
// positive, whole periods are split off first so no chunk exceeds it.
// The remainder is a single dotted value when possible, otherwise the
// largest power of two is peeled off greedily until the rest is one.
func (d Decomposer) SplitDuration(v, maxPeriod int64) ([]Value, error) {
	if v <= 0 {
		return nil, ir.NewInvalidDurationError(rational.Int(v), "duration must be positive")
	}
	var out []Value
	if maxPeriod > 0 && v >= maxPeriod {
		period, err := d.SplitDuration(maxPeriod, 0)
		if err != nil {
			return nil, err
		}
		for i := int64(0); i < v/maxPeriod; i++ {
			out = append(out, period...)
		}
		v %= maxPeriod
		if v == 0 {
			return out, nil
		}
	}
	if val, ok := d.calcDots(v); ok {
		return append(out, val), nil
	}
	for v > 0 {
		p := rational.PrevPowerOfTwo(v)
		out = append(out, Value{Base: p})
		v -= p
		if val, ok := d.calcDots(v); ok {
			return append(out, val), nil
		}
	}
	return out, nil
}

// SplitDuration decomposes with the Default decomposer.
func SplitDuration(v, maxPeriod int64) ([]Value, error) {
	return Default.SplitDuration(v, maxPeriod)
}
