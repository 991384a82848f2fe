package rational

import "math/bits"

// GCD returns the greatest common divisor of two non-negative integers.
func GCD(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// LCM returns the least common multiple of two positive integers.
func LCM(a, b int64) int64 {
	return a / GCD(a, b) * b
}

// IsPowerOfTwo reports whether n is 1, 2, 4, 8, ...
func IsPowerOfTwo(n int64) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 returns floor(log2(n)) for n >= 1.
func Log2(n int64) int {
	return bits.Len64(uint64(n)) - 1
}

// PrevPowerOfTwo returns the largest power of two <= n, for n >= 1.
func PrevPowerOfTwo(n int64) int64 {
	if n < 1 {
		return 0
	}
	return int64(1) << Log2(n)
}

// ClosestPowerOfTwo returns the power of two nearest to n, taking the lower
// one on ties (6 -> 4, 3 -> 2).
func ClosestPowerOfTwo(n int64) int64 {
	lo := PrevPowerOfTwo(n)
	if lo == 0 || lo == n {
		return lo
	}
	hi := lo << 1
	if n-lo <= hi-n {
		return lo
	}
	return hi
}

// AnalyseFracDuration separates a duration into the notated value and the
// tuplet factor relating it to real time: value = num/cp and
// factor = den/cp, where cp is the power of two closest to the denominator.
// The factor is 1 exactly when the denominator is already a power of two.
func AnalyseFracDuration(f Frac) (value, factor Frac) {
	cp := ClosestPowerOfTwo(f.Den())
	return New(f.Num(), cp), New(f.Den(), cp)
}
