package model

import (
	"fmt"

	"github.com/roach88/mensur/internal/duration"
	"github.com/roach88/mensur/internal/rational"
)

// Synthetic is the BackRef of events that do not come from the input:
// rests inserted into gaps and continuation fragments of split events.
const Synthetic = -1

// Event is a note or rest owned by a Beat.
type Event struct {
	Pitch int
	Rest  bool

	// QPos is the offset from the start of the owning beat.
	QPos rational.Frac

	// QDur is the real length being notated.
	QDur rational.Frac

	Tie bool

	// BackRef is the input index, or Synthetic.
	BackRef int

	// Origin is the input index the event descends from, also for split
	// fragments. Synthetic for inserted rests.
	Origin int

	Annotation  string
	DivisorHint int

	virtual    rational.Frac
	hasVirtual bool

	beat *Beat
	idx  int
}

// NewRest returns a synthetic rest of length d.
func NewRest(d rational.Frac) *Event {
	return &Event{Rest: true, QDur: d, BackRef: Synthetic, Origin: Synthetic}
}

// Beat returns the owning beat, nil before insertion.
func (e *Event) Beat() *Beat { return e.beat }

// Bar returns the owning bar.
func (e *Event) Bar() *Bar {
	if e.beat == nil {
		return nil
	}
	return e.beat.bar
}

// End returns QPos+QDur, relative to the owning beat.
func (e *Event) End() rational.Frac { return e.QPos.Add(e.QDur) }

// BarPos returns the onset relative to the bar.
func (e *Event) BarPos() rational.Frac { return e.beat.Start().Add(e.QPos) }

// BarEnd returns the end relative to the bar.
func (e *Event) BarEnd() rational.Frac { return e.BarPos().Add(e.QDur) }

// Virtual returns the notated length once set.
func (e *Event) Virtual() (rational.Frac, bool) { return e.virtual, e.hasVirtual }

// SetVirtual records the notated length. It may be set only once.
func (e *Event) SetVirtual(v rational.Frac) {
	if e.hasVirtual {
		panic(fmt.Sprintf("model: virtual duration of event at %s set twice", e.QPos))
	}
	e.virtual, e.hasVirtual = v, true
}

// IsMultiBeat reports whether the event may stay a single value across
// beat boundaries: it starts on a beat, ends inside the bar and is
// atomic. With syncopation enabled, a quarter starting half a beat late
// outside a triplet beat also qualifies.
func (e *Event) IsMultiBeat(d duration.Decomposer, syncopation bool) bool {
	if e.BarEnd().Cmp(e.Bar().QPer()) > 0 {
		return false
	}
	if e.QPos.IsZero() {
		return d.IsAtomic(e.QDur)
	}
	return syncopation &&
		e.QPos == half &&
		e.QDur == rational.One &&
		e.beat.TupletFactor() != threeHalves
}

var (
	half        = rational.New(1, 2)
	threeHalves = rational.New(3, 2)
)

func (e *Event) String() string {
	name := "r"
	if !e.Rest {
		name = fmt.Sprintf("p%d", e.Pitch)
	}
	tie := ""
	if e.Tie {
		tie = "~"
	}
	return fmt.Sprintf("%s@%s+%s%s", name, e.QPos, e.QDur, tie)
}
