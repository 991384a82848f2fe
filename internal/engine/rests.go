package engine

import (
	"slices"

	"github.com/roach88/mensur/internal/model"
	"github.com/roach88/mensur/internal/partition"
	"github.com/roach88/mensur/internal/rational"
)

type span struct {
	start, end rational.Frac
}

func (s span) len() rational.Frac { return s.end.Sub(s.start) }

// insertRests fills every part of the bar not covered by an event. Whole
// beats without any note are merged into as few rests as possible first;
// gaps inside beats are filled afterwards. In a pickup bar nothing before
// the pickup offset is filled.
func (p *pipeline) insertRests(bar *model.Bar) error {
	bar.Enter(model.StageRested)
	if err := p.barRests(bar); err != nil {
		return err
	}
	if err := p.beatRests(bar); err != nil {
		return err
	}
	return p.finishRests(bar)
}

// barRests fills runs of beats that no event touches. A run of whole
// beats becomes rests of at most a whole note each; a short last beat
// gets a rest of its own.
func (p *pipeline) barRests(bar *model.Bar) error {
	qper := bar.QPer()
	touched := func(n int) bool {
		start := rational.Int(int64(n - 1))
		return bar.Beat(n) != nil || bar.CarryIn(n).Sign() > 0 || start.Less(bar.Offset)
	}

	var gaps []span
	for n := 1; n <= bar.BeatCount(); n++ {
		if touched(n) {
			continue
		}
		start := rational.Int(int64(n - 1))
		end := rational.Min(start.Add(rational.One), qper)
		if k := len(gaps) - 1; k >= 0 && gaps[k].end == start && end.IsInt() {
			gaps[k].end = end
			continue
		}
		gaps = append(gaps, span{start, end})
	}

	for _, g := range gaps {
		lengths := []rational.Frac{g.len()}
		if g.len().IsInt() {
			values, err := p.dec.SplitDuration(g.len().Num(), partition.WholeNote.Floor())
			if err != nil {
				return err
			}
			lengths = lengths[:0]
			for _, v := range values {
				lengths = append(lengths, v.Length(1))
			}
		}
		pos := g.start
		for _, l := range lengths {
			if err := bar.InsertEvent(model.NewRest(l), pos); err != nil {
				return err
			}
			pos = pos.Add(l)
		}
	}
	return nil
}

// beatRests fills the gaps left inside beats: before the first event not
// covered by a note from an earlier beat, between events and up to the
// beat end.
func (p *pipeline) beatRests(bar *model.Bar) error {
	qper := bar.QPer()
	for n := 1; n <= bar.BeatCount(); n++ {
		start := rational.Int(int64(n - 1))
		length := rational.Min(rational.One, qper.Sub(start))
		cursor := rational.Max(bar.CarryIn(n), bar.Offset.Sub(start))
		if !cursor.Less(length) {
			continue
		}

		var gaps []span
		if bt := bar.Beat(n); bt != nil {
			for _, ev := range bt.Events() {
				if cursor.Less(ev.QPos) {
					gaps = append(gaps, span{cursor, ev.QPos})
				}
				cursor = rational.Max(cursor, ev.End())
			}
		}
		if cursor.Less(length) {
			gaps = append(gaps, span{cursor, length})
		}
		if len(gaps) == 0 {
			continue
		}

		bt := bar.EnsureBeat(n)
		for _, g := range gaps {
			r := model.NewRest(g.len())
			r.QPos = g.start
			if err := bt.InsertSimpleEvent(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// finishRests gives beats created for rests their divisor and every new
// rest its notated length, splitting rests that are not atomic.
func (p *pipeline) finishRests(bar *model.Bar) error {
	for _, bt := range bar.Beats() {
		if bt.Divisor == 0 {
			bt.Divisor = bt.ComputeDivisor()
		}
		tf := model.FactorOf(bt.Divisor)
		for _, ev := range slices.Clone(bt.Events()) {
			if _, ok := ev.Virtual(); ok {
				continue
			}
			ev.SetVirtual(ev.QDur.Mul(tf))
			if err := p.atomize(bt, ev); err != nil {
				return err
			}
		}
	}
	return nil
}
