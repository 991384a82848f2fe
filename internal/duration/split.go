package duration

import (
	"github.com/roach88/mensur/internal/rational"
)

// SplitNonAtomic breaks a duration with a power-of-two denominator into
// atomic lengths that sum to dur.
//
// The largest power-of-two part of the numerator is peeled off and the
// remainder is split recursively. The large part comes first when start
// falls on its grid; otherwise the remainder is written first so the
// large part lands closer to an aligned position.
func (dc Decomposer) SplitNonAtomic(start, dur rational.Frac) []rational.Frac {
	if dur.Sign() <= 0 {
		return nil
	}
	if dc.IsAtomic(dur) || !rational.IsPowerOfTwo(dur.Den()) {
		return []rational.Frac{dur}
	}
	big := rational.New(rational.PrevPowerOfTwo(dur.Num()), dur.Den())
	rest := dur.Sub(big)
	if rest.IsZero() {
		return []rational.Frac{dur}
	}
	if start.Div(big).IsInt() {
		return append([]rational.Frac{big}, dc.SplitNonAtomic(start.Add(big), rest)...)
	}
	return append(dc.SplitNonAtomic(start, rest), big)
}
