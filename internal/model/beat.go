package model

import (
	"slices"

	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/rational"
)

// Beat is one quarter-note beat of a bar. The last beat of a bar whose
// length is not a whole number of quarters is shorter.
type Beat struct {
	// Number is 1-based.
	Number int

	// Divisor is the subdivision count, fixed by set_virtual_durations.
	// Zero until then.
	Divisor int64

	events []*Event
	bar    *Bar
	idx    int
}

// Bar returns the owning bar.
func (b *Beat) Bar() *Bar { return b.bar }

// Events returns the events in onset order. The slice must not be
// modified.
func (b *Beat) Events() []*Event { return b.events }

// Start returns the beat's offset in the bar.
func (b *Beat) Start() rational.Frac { return rational.Int(int64(b.Number - 1)) }

// Len returns the beat length: one quarter, or the remainder of the bar.
func (b *Beat) Len() rational.Frac {
	return rational.Min(rational.One, b.bar.QPer().Sub(b.Start()))
}

// TupletFactor returns Divisor over the largest power of two not above
// it. Before the divisor is fixed it is derived from the current contents.
func (b *Beat) TupletFactor() rational.Frac {
	d := b.Divisor
	if d == 0 {
		d = b.ComputeDivisor()
	}
	return FactorOf(d)
}

// FactorOf returns d / PrevPowerOfTwo(d).
func FactorOf(d int64) rational.Frac {
	return rational.New(d, rational.PrevPowerOfTwo(d))
}

// ComputeDivisor returns the least common multiple of the denominators of
// every beat-relative boundary: event onsets and ends, the end of any
// event carried in from an earlier beat, the beat length, a pickup start
// falling in this beat and the divisor hints of the events.
func (b *Beat) ComputeDivisor() int64 {
	d := b.Len().Den()
	for _, ev := range b.events {
		d = rational.LCM(d, ev.QPos.Den())
		d = rational.LCM(d, ev.End().Den())
		if ev.DivisorHint > 0 {
			d = rational.LCM(d, int64(ev.DivisorHint))
		}
	}
	if c := b.bar.CarryIn(b.Number); c.Sign() > 0 {
		d = rational.LCM(d, c.Den())
	}
	if off := b.bar.Offset.Sub(b.Start()); off.Sign() > 0 && off.Less(b.Len()) {
		d = rational.LCM(d, off.Den())
	}
	return d
}

// GetPrecedingEvent returns the event before ev in this beat, or nil.
func (b *Beat) GetPrecedingEvent(ev *Event) *Event {
	if ev.beat != b || ev.idx == 0 {
		return nil
	}
	return b.events[ev.idx-1]
}

// GetSucceedingEvent returns the event after ev in this beat, or nil.
func (b *Beat) GetSucceedingEvent(ev *Event) *Event {
	if ev.beat != b || ev.idx+1 >= len(b.events) {
		return nil
	}
	return b.events[ev.idx+1]
}

// InsertSimpleEvent inserts ev at ev.QPos, keeping onset order. It fails
// with STRUCTURAL_OVERFLOW when the position is taken or ev would overlap
// a neighbour in this beat.
func (b *Beat) InsertSimpleEvent(ev *Event) error {
	b.bar.checkMutable()
	i, found := slices.BinarySearchFunc(b.events, ev.QPos, func(e *Event, pos rational.Frac) int {
		return e.QPos.Cmp(pos)
	})
	if found {
		return b.overflow(ev, "position %s of beat %d already occupied", ev.QPos, b.Number)
	}
	if i > 0 {
		if prev := b.events[i-1]; ev.QPos.Less(prev.End()) {
			return b.overflow(ev, "event at %s overlaps preceding event ending at %s", ev.QPos, prev.End())
		}
	}
	if i < len(b.events) {
		if next := b.events[i]; next.QPos.Less(ev.End()) {
			return b.overflow(ev, "event ending at %s overlaps onset %s", ev.End(), next.QPos)
		}
	}
	b.events = slices.Insert(b.events, i, ev)
	ev.beat = b
	for j := i; j < len(b.events); j++ {
		b.events[j].idx = j
	}
	return nil
}

// Remove detaches ev from the beat.
func (b *Beat) Remove(ev *Event) {
	b.bar.checkMutable()
	if ev.beat != b {
		return
	}
	b.events = slices.Delete(b.events, ev.idx, ev.idx+1)
	for j := ev.idx; j < len(b.events); j++ {
		b.events[j].idx = j
	}
	ev.beat = nil
}

func (b *Beat) overflow(ev *Event, format string, args ...any) error {
	return ir.NewStructuralOverflowError(format, args...).WithBar(b.bar.Number).WithSource(ev.Origin)
}
