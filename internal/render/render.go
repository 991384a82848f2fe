package render

import (
	"fmt"
	"log/slog"

	"github.com/roach88/mensur/internal/duration"
	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/model"
	"github.com/roach88/mensur/internal/rational"
	"github.com/roach88/mensur/internal/spelling"
)

// Renderer emits tokens for a stream whose bars have all run the full
// pipeline.
type Renderer struct {
	Decomposer duration.Decomposer
	Speller    spelling.Speller
	Logger     *slog.Logger
}

// Output is the result of rendering a stream.
type Output struct {
	Tokens []ir.Token

	// Fallbacks counts events whose duration could not be notated and
	// were written as the sentinel.
	Fallbacks int
}

// Text joins the tokens with single spaces.
func (o Output) Text() string { return ir.JoinTokens(o.Tokens) }

// Render walks s bar by bar. s must be frozen.
func (r *Renderer) Render(s *model.Stream) Output {
	if !s.Frozen() {
		panic("render: stream is not frozen")
	}
	speller := r.Speller
	if speller == nil {
		speller = spelling.ForKey(0)
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &writer{dec: r.Decomposer, speller: speller, logger: logger}

	var meter ir.Meter
	for i, bar := range s.Bars() {
		if bar.Stage() != model.StageRested {
			panic(fmt.Sprintf("render: bar %d stopped after %s", bar.Number, bar.Stage()))
		}
		if i > 0 {
			w.emit(ir.Token{Kind: ir.TokenBarCheck})
		}
		if (i == 0 && bar.Meter != ir.CommonTime) || (i > 0 && bar.Meter != meter) {
			w.emit(ir.Token{Kind: ir.TokenTime, Arg: bar.Meter.String()})
		}
		meter = bar.Meter
		if bar.Offset.Sign() > 0 {
			w.emit(ir.Token{Kind: ir.TokenPartial, Arg: w.partial(bar.QPer().Sub(bar.Offset))})
		}
		w.bar = bar.Number
		for _, bt := range bar.Beats() {
			w.beat(bt)
		}
	}
	return w.out
}

type writer struct {
	dec     duration.Decomposer
	speller spelling.Speller
	logger  *slog.Logger
	bar     int
	out     Output
}

func (w *writer) emit(t ir.Token) { w.out.Tokens = append(w.out.Tokens, t) }

// partial writes the length of a pickup as a LilyPond duration, using a
// multiplier when no single value fits.
func (w *writer) partial(length rational.Frac) string {
	if d, ok := w.dec.Notate(length); ok {
		return d.String()
	}
	return "4*" + length.String()
}

func (w *writer) beat(bt *model.Beat) {
	events := bt.Events()
	if len(events) == 0 {
		return
	}
	tf := bt.TupletFactor()
	if tf == rational.One {
		w.events(events)
		return
	}
	if first, second, ok := HalfSplit(bt); ok {
		for _, half := range [][]*model.Event{first, second} {
			switch {
			case len(half) == 0:
			case len(half) == 1 && w.plain(half[0]):
			default:
				w.tuplet("3/2", half)
			}
		}
		return
	}
	w.tuplet(PrettyFactor(bt.Divisor), events)
}

func (w *writer) tuplet(ratio string, events []*model.Event) {
	w.emit(ir.Token{Kind: ir.TokenTupletOpen, Arg: ratio})
	w.events(events)
	w.emit(ir.Token{Kind: ir.TokenTupletClose})
}

// plain emits ev at its real length when that is a notatable value, so a
// lone event in a half beat needs no bracket.
func (w *writer) plain(ev *model.Event) bool {
	if _, ok := w.dec.Notate(ev.QDur); !ok {
		return false
	}
	w.emit(w.tokenOf(ev, ev.QDur))
	return true
}

func (w *writer) events(events []*model.Event) {
	for _, ev := range events {
		w.emit(w.token(ev))
	}
}

func (w *writer) token(ev *model.Event) ir.Token {
	v, ok := ev.Virtual()
	if !ok {
		panic(fmt.Sprintf("render: bar %d: event %s has no notated length", w.bar, ev))
	}
	return w.tokenOf(ev, v)
}

// tokenOf renders ev with notated length v.
func (w *writer) tokenOf(ev *model.Event, v rational.Frac) ir.Token {
	t := ir.Token{Kind: ir.TokenNote, Tie: ev.Tie, Annotation: ev.Annotation}
	if ev.Rest {
		t.Kind, t.Symbol = ir.TokenRest, "r"
	} else {
		t.Symbol = w.speller.Spell(ev.Pitch)
	}
	d, ok := w.dec.Notate(v)
	if !ok {
		t.Fallback = true
		w.out.Fallbacks++
		w.logger.Warn("duration not notatable",
			"code", string(ir.ErrCodeRenderFallback),
			"bar", w.bar,
			"beat", ev.Beat().Number,
			"virtual", v.String(),
			"source", ev.Origin)
		return t
	}
	t.Duration, t.Dots = d.Base(), d.Dots
	return t
}
