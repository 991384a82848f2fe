package render

import (
	"fmt"

	"github.com/roach88/mensur/internal/model"
	"github.com/roach88/mensur/internal/rational"
)

var (
	half        = rational.New(1, 2)
	threeHalves = rational.New(3, 2)
)

// PrettyFactor returns the \tuplet ratio for a beat subdivided into
// divisor parts. The plain factor divisor/2^k is scaled so the
// denominator matches the note values actually written: a sextuplet beat
// is 6/4, not 3/2.
func PrettyFactor(divisor int64) string {
	tf := model.FactorOf(divisor)
	k := int64(1)
	if c := rational.ClosestPowerOfTwo(divisor); c >= tf.Den() && c%tf.Den() == 0 {
		k = c / tf.Den()
	}
	return fmt.Sprintf("%d/%d", tf.Num()*k, tf.Den()*k)
}

// HalfSplit reports whether a sextuplet beat reads better as two triplet
// halves and returns the events of each half. That is the case when the
// beat does not hold six equal notes and nothing, including a note tied
// over from the previous beat, crosses the middle of the beat.
func HalfSplit(bt *model.Beat) (first, second []*model.Event, ok bool) {
	events := bt.Events()
	if bt.TupletFactor() != threeHalves || bt.Divisor != 6 || len(events) == int(bt.Divisor) {
		return nil, nil, false
	}
	if bt.Len() != rational.One || half.Less(bt.Bar().CarryIn(bt.Number)) {
		return nil, nil, false
	}
	for _, ev := range events {
		if ev.QPos.Less(half) && half.Less(ev.End()) {
			return nil, nil, false
		}
		if ev.QPos.Less(half) {
			first = append(first, ev)
		} else {
			second = append(second, ev)
		}
	}
	return first, second, true
}
