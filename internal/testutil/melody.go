// Package testutil holds builders and deterministic stand-ins shared by
// the tests of several packages.
package testutil

import (
	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/rational"
)

// Q parses a fraction literal such as "3/2" and panics on error.
func Q(s string) rational.Frac { return rational.MustParse(s) }

// MelodyBuilder assembles an ir.Melody event by event.
//
//	m := testutil.NewMelody("4/4").
//		Note(60, "0", "1").
//		Note(62, "1", "3").
//		Bar(2).Rest("0", "4").
//		Build()
type MelodyBuilder struct {
	m   ir.Melody
	bar int
}

// NewMelody starts a melody in the given meter, at bar 1.
func NewMelody(meter string) *MelodyBuilder {
	m, err := ir.ParseMeter(meter)
	if err != nil {
		panic(err)
	}
	return &MelodyBuilder{m: ir.Melody{ID: "test", Meter: m}, bar: 1}
}

// ID sets the melody ID.
func (b *MelodyBuilder) ID(id string) *MelodyBuilder {
	b.m.ID = id
	return b
}

// Key sets the key signature in fifths.
func (b *MelodyBuilder) Key(fifths int) *MelodyBuilder {
	b.m.Key = fifths
	return b
}

// Bar sets the bar number for the following events.
func (b *MelodyBuilder) Bar(n int) *MelodyBuilder {
	b.bar = n
	return b
}

// Note appends a note whose qdur equals its qioi.
func (b *MelodyBuilder) Note(pitch int, qpos, qioi string) *MelodyBuilder {
	return b.add(ir.InputEvent{Pitch: pitch, QPos: Q(qpos), QIOI: Q(qioi), QDur: Q(qioi)})
}

// Rest appends a rest.
func (b *MelodyBuilder) Rest(qpos, qioi string) *MelodyBuilder {
	return b.add(ir.InputEvent{Rest: true, QPos: Q(qpos), QIOI: Q(qioi), QDur: Q(qioi)})
}

// Dur sets the sounding length of the last event.
func (b *MelodyBuilder) Dur(qdur string) *MelodyBuilder {
	return b.Last(func(ev *ir.InputEvent) { ev.QDur = Q(qdur) })
}

// Meter marks a meter change at the bar of the last event.
func (b *MelodyBuilder) Meter(meter string) *MelodyBuilder {
	m, err := ir.ParseMeter(meter)
	if err != nil {
		panic(err)
	}
	return b.Last(func(ev *ir.InputEvent) { ev.Meter = &m })
}

// Annotate sets the annotation of the last event.
func (b *MelodyBuilder) Annotate(text string) *MelodyBuilder {
	return b.Last(func(ev *ir.InputEvent) { ev.Annotation = text })
}

// Divisor sets the subdivision hint of the last event.
func (b *MelodyBuilder) Divisor(d int) *MelodyBuilder {
	return b.Last(func(ev *ir.InputEvent) { ev.Divisor = d })
}

// Last applies fn to the most recently added event.
func (b *MelodyBuilder) Last(fn func(*ir.InputEvent)) *MelodyBuilder {
	if len(b.m.Events) == 0 {
		panic("testutil: no event to modify")
	}
	fn(&b.m.Events[len(b.m.Events)-1])
	return b
}

func (b *MelodyBuilder) add(ev ir.InputEvent) *MelodyBuilder {
	ev.Index = len(b.m.Events)
	ev.Bar = b.bar
	b.m.Events = append(b.m.Events, ev)
	return b
}

// Build returns the melody. The builder may be reused afterwards.
func (b *MelodyBuilder) Build() ir.Melody {
	m := b.m
	m.Events = append([]ir.InputEvent(nil), b.m.Events...)
	return m
}
