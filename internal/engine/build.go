package engine

import (
	"cmp"
	"slices"

	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/model"
	"github.com/roach88/mensur/internal/rational"
)

// Build validates m and lays its events out in a fresh stream. Every bar
// between the first and the last event exists afterwards, empty bars
// included. Events are matched to bars by their bar number and keep their
// position in m.Events as back reference.
func (e *Engine) Build(m ir.Melody) (*model.Stream, error) {
	s := model.NewStream()
	if len(m.Events) == 0 {
		return s, nil
	}

	order := make([]int, len(m.Events))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ea, eb := m.Events[a], m.Events[b]
		if c := cmp.Compare(ea.Bar, eb.Bar); c != 0 {
			return c
		}
		return ea.QPos.Cmp(eb.QPos)
	})

	first, last := m.Events[order[0]].Bar, m.Events[order[len(order)-1]].Bar
	if err := NewBarQuota(e.maxBars).Check(last - first + 1); err != nil {
		return nil, err
	}

	changes := make(map[int]ir.Meter)
	for _, ev := range m.Events {
		if ev.Meter != nil {
			changes[ev.Bar] = *ev.Meter
		}
	}
	meter := m.Meter
	if meter == (ir.Meter{}) {
		meter = ir.CommonTime
	}
	for n := first; n <= last; n++ {
		if c, ok := changes[n]; ok {
			meter = c
		}
		if err := CheckMeter(meter); err != nil {
			return nil, err.WithBar(n)
		}
		s.EnsureBar(n, meter)
	}

	for _, i := range order {
		ev := m.Events[i]
		mev, err := e.event(ev, i)
		if err != nil {
			return nil, err
		}
		if err := s.Bar(ev.Bar).InsertEvent(mev, ev.QPos); err != nil {
			return nil, err
		}
	}

	if pickup := s.Bars()[0]; e.opts.PickupPartial && pickup.Number <= 0 {
		pickup.Offset = m.Events[order[0]].QPos
	}
	return s, nil
}

// MaxDenominator bounds the denominators of event positions and lengths.
// Finer subdivisions are rejected as INVALID_DURATION.
const MaxDenominator = 1 << 16

// event converts one input event, checking 0 < qdur <= qioi. A zero qdur
// means the reader did not know the sounding length and defaults to qioi.
func (e *Engine) event(ev ir.InputEvent, index int) (*model.Event, error) {
	for _, f := range []rational.Frac{ev.QPos, ev.QIOI, ev.QDur} {
		if f.Den() > MaxDenominator {
			return nil, ir.NewInvalidDurationError(f, "denominator exceeds 65536").
				WithBar(ev.Bar).WithSource(index)
		}
	}
	if ev.QIOI.Sign() <= 0 {
		return nil, ir.NewInvalidDurationError(ev.QIOI, "qioi must be positive").
			WithBar(ev.Bar).WithSource(index)
	}
	qdur := ev.QDur
	if qdur.IsZero() {
		qdur = ev.QIOI
	}
	if qdur.Sign() < 0 || ev.QIOI.Less(qdur) {
		return nil, ir.NewInvalidDurationError(qdur, "qdur must be positive and not exceed qioi").
			WithBar(ev.Bar).WithSource(index)
	}
	if ev.Divisor < 0 {
		return nil, ir.NewInvalidDurationError(rational.Int(int64(ev.Divisor)), "divisor hint must not be negative").
			WithBar(ev.Bar).WithSource(index)
	}
	span := ev.QIOI
	if e.opts.NotateDurations {
		span = qdur
	}
	return &model.Event{
		Pitch:       ev.Pitch,
		Rest:        ev.Rest,
		QDur:        span,
		BackRef:     index,
		Origin:      index,
		Annotation:  ev.Annotation,
		DivisorHint: ev.Divisor,
	}, nil
}

var threeHalves = rational.New(3, 2)

// CheckMeter accepts meters whose bar length is a plain or a dotted
// value: both the numerator and the denominator of the bar length in
// quarters must sit at a tuplet factor of 1 or 3/2 from the nearest power
// of two. 5/4, 7/8 and 9/8 are rejected.
func CheckMeter(m ir.Meter) *ir.RenderError {
	if err := m.Validate(); err != nil {
		return ir.NewUnsupportedMeterError(m)
	}
	qper := m.QPer()
	_, factor := rational.AnalyseFracDuration(qper)
	bar := rational.New(qper.Num(), rational.ClosestPowerOfTwo(qper.Num()))
	for _, f := range []rational.Frac{factor, bar} {
		if f != rational.One && f != threeHalves {
			return ir.NewUnsupportedMeterError(m)
		}
	}
	return nil
}
