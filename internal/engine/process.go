package engine

import (
	"log/slog"
	"slices"

	"github.com/roach88/mensur/internal/duration"
	"github.com/roach88/mensur/internal/model"
	"github.com/roach88/mensur/internal/partition"
	"github.com/roach88/mensur/internal/rational"
)

// Process runs the pass pipeline over every bar of s in ascending order.
// Bars appended while splitting are processed in turn.
func (e *Engine) Process(s *model.Stream) error {
	p := &pipeline{
		stream:      s,
		dec:         e.opts.Decomposer(),
		part:        e.opts.Partitioner(),
		syncopation: e.opts.Syncopation,
		logger:      e.logger,
	}
	quota := NewBarQuota(e.maxBars)
	for i := 0; i < len(s.Bars()); i++ {
		if err := quota.Check(len(s.Bars())); err != nil {
			return err
		}
		if err := p.run(s.Bars()[i]); err != nil {
			return err
		}
	}
	return nil
}

type pipeline struct {
	stream      *model.Stream
	dec         duration.Decomposer
	part        partition.Partitioner
	syncopation bool
	logger      *slog.Logger
}

func (p *pipeline) run(bar *model.Bar) error {
	passes := []func(*model.Bar) error{
		p.fillUpBeats,
		p.setVirtualDurations,
		p.handleNonAtomics,
		p.insertRests,
	}
	for _, pass := range passes {
		if err := pass(bar); err != nil {
			return err
		}
	}
	p.logger.Debug("bar processed",
		"bar", bar.Number,
		"meter", bar.Meter.String(),
		"beats", len(bar.Beats()),
		"events", len(bar.Events()))
	return nil
}

// fillUpBeats splits every event that cannot stay a single value across
// the beats it touches. Fragments past the bar line go to later bars.
func (p *pipeline) fillUpBeats(bar *model.Bar) error {
	bar.Enter(model.StageFilled)
	for _, ev := range bar.Events() {
		if ev.IsMultiBeat(p.dec, p.syncopation) {
			continue
		}
		overhang, err := ev.Split(p.part)
		if err != nil {
			return err
		}
		if err := p.stream.PlaceOverhang(bar, overhang); err != nil {
			return err
		}
	}
	return nil
}

// setVirtualDurations fixes each beat's divisor and gives every event its
// notated length, the real length scaled by the beat's tuplet factor.
func (p *pipeline) setVirtualDurations(bar *model.Bar) error {
	bar.Enter(model.StageVirtual)
	for _, bt := range bar.Beats() {
		bt.Divisor = bt.ComputeDivisor()
		tf := model.FactorOf(bt.Divisor)
		for _, ev := range bt.Events() {
			ev.SetVirtual(ev.QDur.Mul(tf))
		}
	}
	return nil
}

// handleNonAtomics replaces events whose notated length needs more than
// one value by tied chains of atomic values.
func (p *pipeline) handleNonAtomics(bar *model.Bar) error {
	bar.Enter(model.StageAtomic)
	for _, bt := range bar.Beats() {
		for _, ev := range slices.Clone(bt.Events()) {
			if err := p.atomize(bt, ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// atomize splits ev in place when its virtual length is not atomic but
// lies on a power-of-two grid. Anything else is left for the renderer's
// fallback.
func (p *pipeline) atomize(bt *model.Beat, ev *model.Event) error {
	v, _ := ev.Virtual()
	if p.dec.IsAtomic(v) || !rational.IsPowerOfTwo(v.Den()) {
		return nil
	}
	tf := model.FactorOf(bt.Divisor)
	parts := p.dec.SplitNonAtomic(ev.QPos.Mul(tf), v)
	if len(parts) < 2 {
		return nil
	}

	bt.Remove(ev)
	pos := ev.QPos
	for i, part := range parts {
		last := i == len(parts)-1
		frag := &model.Event{
			Pitch:       ev.Pitch,
			Rest:        ev.Rest,
			QPos:        pos,
			QDur:        part.Div(tf),
			Tie:         !ev.Rest && (!last || ev.Tie),
			BackRef:     model.Synthetic,
			Origin:      ev.Origin,
			DivisorHint: ev.DivisorHint,
		}
		if i == 0 {
			frag.BackRef = ev.BackRef
			frag.Annotation = ev.Annotation
		}
		if err := bt.InsertSimpleEvent(frag); err != nil {
			return err
		}
		frag.SetVirtual(part)
		pos = pos.Add(frag.QDur)
	}
	return nil
}
