package model

import (
	"slices"

	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/rational"
)

// Bar is one measure. Beats are created lazily as events arrive.
type Bar struct {
	// Number may be zero or negative for pickup bars.
	Number int
	Meter  ir.Meter

	// Offset is where notation starts in a pickup bar rendered with
	// \partial. Zero for ordinary bars.
	Offset rational.Frac

	stage  Stage
	beats  []*Beat
	stream *Stream
	idx    int
}

// Stream returns the owning stream.
func (b *Bar) Stream() *Stream { return b.stream }

// QPer returns the bar length in quarter notes.
func (b *Bar) QPer() rational.Frac { return b.Meter.QPer() }

// BeatCount returns the number of beat slots, counting a short last beat.
func (b *Bar) BeatCount() int {
	q := b.QPer()
	n := int(q.Floor())
	if !q.IsInt() {
		n++
	}
	return n
}

// Beats returns the existing beats in ascending order. The slice must not
// be modified.
func (b *Bar) Beats() []*Beat { return b.beats }

// Beat returns beat n, or nil if it has not been created.
func (b *Bar) Beat(n int) *Beat {
	i, found := b.findBeat(n)
	if !found {
		return nil
	}
	return b.beats[i]
}

// EnsureBeat returns beat n, creating it if necessary.
func (b *Bar) EnsureBeat(n int) *Beat {
	i, found := b.findBeat(n)
	if found {
		return b.beats[i]
	}
	b.checkMutable()
	bt := &Beat{Number: n, bar: b}
	b.beats = slices.Insert(b.beats, i, bt)
	for j := i; j < len(b.beats); j++ {
		b.beats[j].idx = j
	}
	return bt
}

func (b *Bar) findBeat(n int) (int, bool) {
	return slices.BinarySearchFunc(b.beats, n, func(bt *Beat, n int) int { return bt.Number - n })
}

// GetPrecedingBeat returns the existing beat before bt, or nil.
func (b *Bar) GetPrecedingBeat(bt *Beat) *Beat {
	if bt.bar != b || bt.idx == 0 {
		return nil
	}
	return b.beats[bt.idx-1]
}

// GetSucceedingBeat returns the existing beat after bt, or nil.
func (b *Bar) GetSucceedingBeat(bt *Beat) *Beat {
	if bt.bar != b || bt.idx+1 >= len(b.beats) {
		return nil
	}
	return b.beats[bt.idx+1]
}

// Events returns all events of the bar in onset order.
func (b *Bar) Events() []*Event {
	var out []*Event
	for _, bt := range b.beats {
		out = append(out, bt.events...)
	}
	return out
}

// InsertEvent places ev at barPos, in the beat containing that position.
// Besides the checks of Beat.InsertSimpleEvent it rejects overlaps with
// events of other beats. An event may run past the bar line until
// fill_up_beats splits it.
func (b *Bar) InsertEvent(ev *Event, barPos rational.Frac) error {
	if barPos.Sign() < 0 || !barPos.Less(b.QPer()) {
		return ir.NewStructuralOverflowError("position %s outside bar of %s quarters", barPos, b.QPer()).
			WithBar(b.Number).WithSource(ev.Origin)
	}
	end := barPos.Add(ev.QDur)
	if prev := b.lastEventBefore(barPos); prev != nil && barPos.Less(prev.BarEnd()) {
		return ir.NewStructuralOverflowError("event at %s overlaps event ending at %s", barPos, prev.BarEnd()).
			WithBar(b.Number).WithSource(ev.Origin)
	}
	if next := b.firstEventAfter(barPos); next != nil && next.BarPos().Less(end) {
		return ir.NewStructuralOverflowError("event ending at %s overlaps onset %s", end, next.BarPos()).
			WithBar(b.Number).WithSource(ev.Origin)
	}

	n := int(barPos.Floor()) + 1
	bt := b.EnsureBeat(n)
	ev.QPos = barPos.Sub(bt.Start())
	if err := bt.InsertSimpleEvent(ev); err != nil {
		if len(bt.events) == 0 {
			b.dropBeat(bt)
		}
		return err
	}
	return nil
}

func (b *Bar) dropBeat(bt *Beat) {
	b.beats = slices.Delete(b.beats, bt.idx, bt.idx+1)
	for j := bt.idx; j < len(b.beats); j++ {
		b.beats[j].idx = j
	}
}

func (b *Bar) lastEventBefore(pos rational.Frac) *Event {
	var last *Event
	for _, ev := range b.Events() {
		if !ev.BarPos().Less(pos) {
			break
		}
		last = ev
	}
	return last
}

func (b *Bar) firstEventAfter(pos rational.Frac) *Event {
	for _, ev := range b.Events() {
		if pos.Less(ev.BarPos()) {
			return ev
		}
	}
	return nil
}

// CarryIn returns how far events starting in earlier beats reach into
// beat n, measured from the beat start. Zero when nothing reaches it.
func (b *Bar) CarryIn(n int) rational.Frac {
	start := rational.Int(int64(n - 1))
	reach := rational.Zero
	for _, bt := range b.beats {
		if bt.Number >= n {
			break
		}
		for _, ev := range bt.events {
			reach = rational.Max(reach, ev.BarEnd().Sub(start))
		}
	}
	return reach
}

func (b *Bar) checkMutable() {
	if b.stream != nil && b.stream.frozen {
		panic("model: stream is frozen")
	}
}
