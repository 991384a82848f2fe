package engine

import "github.com/roach88/mensur/internal/ir"

// DefaultMaxBars is the default limit on the bars of one melody.
// It stops a single absurdly long note from allocating an unbounded
// number of bars.
const DefaultMaxBars = 10000

// BarQuota enforces the bar limit of one render.
//
// The quota is checked whenever the stream may have grown: once after
// building and again before each bar is processed, since splitting a
// long note appends bars.
type BarQuota struct {
	maxBars int
}

// NewBarQuota creates a quota with the given limit. A limit of zero or
// less disables the check.
func NewBarQuota(maxBars int) *BarQuota {
	return &BarQuota{maxBars: maxBars}
}

// Check returns STRUCTURAL_OVERFLOW if bars exceeds the limit.
func (q *BarQuota) Check(bars int) error {
	if q.maxBars <= 0 || bars <= q.maxBars {
		return nil
	}
	return ir.NewStructuralOverflowError("melody needs %d bars, limit is %d", bars, q.maxBars)
}

// MaxBars returns the limit.
func (q *BarQuota) MaxBars() int { return q.maxBars }
