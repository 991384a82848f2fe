package rational

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"strconv"
)

// Frac is an exact, always-reduced fraction with a positive denominator.
//
// Frac is a value type: two fractions denoting the same number compare
// equal with ==. The zero value is 0.
type Frac struct {
	num int64
	den int64 // 0 is read as 1 so the zero value is canonical
}

// Zero and One are the most common constants.
var (
	Zero = Frac{}
	One  = Frac{num: 1, den: 1}
)

// New returns num/den in lowest terms. It panics if den is zero.
func New(num, den int64) Frac {
	if den == 0 {
		panic("rational: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	if num == 0 {
		return Frac{}
	}
	g := GCD(abs(num), den)
	return Frac{num: num / g, den: den / g}
}

// Int returns n/1.
func Int(n int64) Frac {
	if n == 0 {
		return Frac{}
	}
	return Frac{num: n, den: 1}
}

// Parse reads "n/d", an integer, or a decimal such as "1.5".
func Parse(s string) (Frac, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Frac{}, fmt.Errorf("invalid fraction %q", s)
	}
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Frac{}, fmt.Errorf("fraction %q out of range", s)
	}
	return New(r.Num().Int64(), r.Denom().Int64()), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Frac {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Num returns the numerator.
func (f Frac) Num() int64 { return f.num }

// Den returns the denominator, always >= 1.
func (f Frac) Den() int64 {
	if f.den == 0 {
		return 1
	}
	return f.den
}

// Add, Sub, Mul, Div and Cmp cancel common factors first and check the
// remaining int64 products; a product that still overflows is computed
// with math/big. A result that does not fit in int64 panics.

func (f Frac) Add(g Frac) Frac {
	if r, ok := f.addSmall(g.num, g); ok {
		return r
	}
	return fromRat(new(big.Rat).Add(f.rat(), g.rat()))
}

func (f Frac) Sub(g Frac) Frac {
	if g.num != math.MinInt64 {
		if r, ok := f.addSmall(-g.num, g); ok {
			return r
		}
	}
	return fromRat(new(big.Rat).Sub(f.rat(), g.rat()))
}

// addSmall returns f + num/g.Den() over the least common denominator.
func (f Frac) addSmall(num int64, g Frac) (Frac, bool) {
	fd, gd := f.Den(), g.Den()
	c := GCD(fd, gd)
	l, ok1 := mul64(f.num, gd/c)
	r, ok2 := mul64(num, fd/c)
	d, ok3 := mul64(fd, gd/c)
	if !ok1 || !ok2 || !ok3 {
		return Frac{}, false
	}
	n, ok := add64(l, r)
	if !ok {
		return Frac{}, false
	}
	return New(n, d), true
}

func (f Frac) Mul(g Frac) Frac {
	if f.num == 0 || g.num == 0 {
		return Zero
	}
	if f.num != math.MinInt64 && g.num != math.MinInt64 {
		a := GCD(abs(f.num), g.Den())
		b := GCD(abs(g.num), f.Den())
		n, ok1 := mul64(f.num/a, g.num/b)
		d, ok2 := mul64(f.Den()/b, g.Den()/a)
		if ok1 && ok2 {
			return New(n, d)
		}
	}
	return fromRat(new(big.Rat).Mul(f.rat(), g.rat()))
}

// Div panics when g is zero.
func (f Frac) Div(g Frac) Frac {
	if g.num == 0 {
		panic("rational: division by zero")
	}
	if g.num == math.MinInt64 {
		return fromRat(new(big.Rat).Quo(f.rat(), g.rat()))
	}
	return f.Mul(New(g.Den(), g.num))
}

// MulInt returns f·n.
func (f Frac) MulInt(n int64) Frac { return f.Mul(Int(n)) }

// Cmp returns -1, 0 or +1.
func (f Frac) Cmp(g Frac) int {
	if f.Den() == g.Den() {
		return cmpInt(f.num, g.num)
	}
	l, ok1 := mul64(f.num, g.Den())
	r, ok2 := mul64(g.num, f.Den())
	if ok1 && ok2 {
		return cmpInt(l, r)
	}
	return f.rat().Cmp(g.rat())
}

func cmpInt(l, r int64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

func (f Frac) Less(g Frac) bool { return f.Cmp(g) < 0 }

// Sign returns -1, 0 or +1.
func (f Frac) Sign() int {
	switch {
	case f.num < 0:
		return -1
	case f.num > 0:
		return 1
	}
	return 0
}

func (f Frac) IsZero() bool { return f.num == 0 }

// IsInt reports whether f has denominator 1.
func (f Frac) IsInt() bool { return f.Den() == 1 }

// Floor returns the largest integer <= f.
func (f Frac) Floor() int64 {
	q := f.num / f.Den()
	if f.num%f.Den() != 0 && f.num < 0 {
		q--
	}
	return q
}

// FracPart returns f - Floor(f), in [0, 1).
func (f Frac) FracPart() Frac { return f.Sub(Int(f.Floor())) }

// Min returns the smaller of f and g.
func Min(f, g Frac) Frac {
	if g.Less(f) {
		return g
	}
	return f
}

// Max returns the larger of f and g.
func Max(f, g Frac) Frac {
	if f.Less(g) {
		return g
	}
	return f
}

// Float64 is for display only.
func (f Frac) Float64() float64 { return float64(f.num) / float64(f.Den()) }

// String renders "n/d", or "n" for integers.
func (f Frac) String() string {
	if f.IsInt() {
		return strconv.FormatInt(f.num, 10)
	}
	return strconv.FormatInt(f.num, 10) + "/" + strconv.FormatInt(f.den, 10)
}

// MarshalText implements encoding.TextMarshaler.
func (f Frac) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Frac) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MarshalJSON writes fractions as strings so they survive JSON number handling.
func (f Frac) MarshalJSON() ([]byte, error) { return json.Marshal(f.String()) }

// UnmarshalJSON accepts "n/d" strings and bare JSON numbers.
func (f *Frac) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return f.UnmarshalText([]byte(s))
	}
	return f.UnmarshalText(b)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// mul64 returns a·b and whether it fits in an int64.
func mul64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	neg := (a < 0) != (b < 0)
	hi, lo := bits.Mul64(magnitude(a), magnitude(b))
	switch {
	case hi != 0:
		return 0, false
	case neg && lo <= 1<<63:
		return int64(-lo), true
	case !neg && lo < 1<<63:
		return int64(lo), true
	}
	return 0, false
}

// add64 returns a+b and whether it fits in an int64.
func add64(a, b int64) (int64, bool) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, false
	}
	return s, true
}

func magnitude(n int64) uint64 {
	if n < 0 {
		return uint64(-n)
	}
	return uint64(n)
}

func (f Frac) rat() *big.Rat { return big.NewRat(f.num, f.Den()) }

func fromRat(r *big.Rat) Frac {
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		panic("rational: result overflows int64: " + r.RatString())
	}
	return New(r.Num().Int64(), r.Denom().Int64())
}
