package model

import (
	"errors"

	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/partition"
	"github.com/roach88/mensur/internal/rational"
)

// Fragment is a continuation of a split event that belongs to a later
// bar. BarPos is its position in that bar, assuming the bar has the same
// length as the bar the event started in.
type Fragment struct {
	Event   *Event
	DiffBar int
	BarPos  rational.Frac
}

// Split cuts e into tied atomic fragments at beat and bar boundaries.
//
// e itself becomes the first fragment. Later fragments in the same bar
// are inserted at their beats; fragments past the bar line are returned
// for Stream.PlaceOverhang. Rests are never tied.
func (e *Event) Split(p partition.Partitioner) ([]Fragment, error) {
	bar := e.Bar()
	qper := bar.QPer()
	start := e.BarPos()
	chunks, err := p.Split(start, e.QDur, qper)
	if err != nil {
		var re *ir.RenderError
		if errors.As(err, &re) {
			re.WithBar(bar.Number).WithSource(e.Origin)
		}
		return nil, err
	}

	lastTie := e.Tie
	var overhang []Fragment
	for i, c := range chunks {
		tie := c.Tie
		if i == len(chunks)-1 {
			tie = lastTie
		}
		tie = tie && !e.Rest
		if i == 0 {
			e.QDur = c.Dur
			e.Tie = tie
			continue
		}
		frag := &Event{
			Pitch:       e.Pitch,
			Rest:        e.Rest,
			QDur:        c.Dur,
			Tie:         tie,
			BackRef:     Synthetic,
			Origin:      e.Origin,
			DivisorHint: e.DivisorHint,
		}
		abs := start.Add(c.Offset)
		diff := abs.Div(qper).Floor()
		pos := abs.Sub(qper.MulInt(diff))
		if diff == 0 {
			if err := bar.InsertEvent(frag, pos); err != nil {
				return nil, err
			}
			continue
		}
		overhang = append(overhang, Fragment{Event: frag, DiffBar: int(diff), BarPos: pos})
	}
	return overhang, nil
}
