package model

import (
	"fmt"
	"slices"

	"github.com/roach88/mensur/internal/ir"
)

// Stream is the ordered list of bars of one melody.
type Stream struct {
	bars   []*Bar
	frozen bool
}

// NewStream returns an empty stream.
func NewStream() *Stream { return &Stream{} }

// Bars returns the bars in ascending order. The slice must not be
// modified.
func (s *Stream) Bars() []*Bar { return s.bars }

// Bar returns bar n, or nil.
func (s *Stream) Bar(n int) *Bar {
	i, found := s.findBar(n)
	if !found {
		return nil
	}
	return s.bars[i]
}

// EnsureBar returns bar n, creating it with meter m if absent.
func (s *Stream) EnsureBar(n int, m ir.Meter) *Bar {
	i, found := s.findBar(n)
	if found {
		return s.bars[i]
	}
	if s.frozen {
		panic("model: stream is frozen")
	}
	b := &Bar{Number: n, Meter: m, stream: s}
	s.bars = slices.Insert(s.bars, i, b)
	for j := i; j < len(s.bars); j++ {
		s.bars[j].idx = j
	}
	return b
}

func (s *Stream) findBar(n int) (int, bool) {
	return slices.BinarySearchFunc(s.bars, n, func(b *Bar, n int) int { return b.Number - n })
}

// GetPrecedingBar returns the bar before b, or nil.
func (s *Stream) GetPrecedingBar(b *Bar) *Bar {
	if b.stream != s || b.idx == 0 {
		return nil
	}
	return s.bars[b.idx-1]
}

// GetSucceedingBar returns the bar after b, or nil.
func (s *Stream) GetSucceedingBar(b *Bar) *Bar {
	if b.stream != s || b.idx+1 >= len(s.bars) {
		return nil
	}
	return s.bars[b.idx+1]
}

// Freeze forbids further structural changes. Rendering works on a frozen
// stream.
func (s *Stream) Freeze() { s.frozen = true }

// Frozen reports whether Freeze was called.
func (s *Stream) Frozen() bool { return s.frozen }

// PlaceOverhang inserts fragments produced by splitting an event of bar
// from into the bars they belong to, creating bars as needed. Target bars
// must not have been processed yet.
//
// Fragment positions assume every target bar has from's length. When a
// target bar has a different meter, that fragment and all later ones are
// merged into a single tied event at the start of the first differing
// bar, to be split again when that bar is processed.
func (s *Stream) PlaceOverhang(from *Bar, frags []Fragment) error {
	for i, f := range frags {
		target := s.EnsureBar(from.Number+f.DiffBar, from.Meter)
		if target.stage != StageBuilt {
			panic(fmt.Sprintf("model: overhang into bar %d after it ran %s", target.Number, target.stage))
		}
		if target.QPer() != from.QPer() {
			return s.placeMerged(from, frags[i:])
		}
		if err := target.InsertEvent(f.Event, f.BarPos); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stream) placeMerged(from *Bar, frags []Fragment) error {
	first := frags[0]
	merged := *first.Event
	merged.beat, merged.idx = nil, 0
	for _, f := range frags[1:] {
		merged.QDur = merged.QDur.Add(f.Event.QDur)
	}
	merged.Tie = frags[len(frags)-1].Event.Tie

	// The first differing bar starts where the preceding fragments end,
	// which is a bar line of from's length.
	target := s.Bar(from.Number + first.DiffBar)
	if !first.BarPos.IsZero() {
		return ir.NewStructuralOverflowError("overhang into bar %d does not start at its bar line", target.Number).
			WithBar(from.Number).WithSource(merged.Origin)
	}
	return target.InsertEvent(&merged, first.BarPos)
}
