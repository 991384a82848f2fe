package render

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mensur/internal/duration"
	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/model"
	"github.com/roach88/mensur/internal/rational"
	"github.com/roach88/mensur/internal/spelling"
)

func q(s string) rational.Frac { return rational.MustParse(s) }

type placed struct {
	pitch   int
	rest    bool
	pos     string
	dur     string
	virtual string
	tie     bool
}

// bar adds a bar holding evs, fixes divisors from the contents and marks
// the bar as fully processed. An empty virtual means dur times the beat's
// tuplet factor.
func bar(t *testing.T, s *model.Stream, n int, meter ir.Meter, evs ...placed) *model.Bar {
	t.Helper()
	b := s.EnsureBar(n, meter)
	var made []*model.Event
	for _, p := range evs {
		ev := &model.Event{Pitch: p.pitch, Rest: p.rest, QDur: q(p.dur), Tie: p.tie, BackRef: model.Synthetic, Origin: model.Synthetic}
		require.NoError(t, b.InsertEvent(ev, q(p.pos)))
		made = append(made, ev)
	}
	for _, bt := range b.Beats() {
		bt.Divisor = bt.ComputeDivisor()
	}
	for i, ev := range made {
		v := ev.QDur.Mul(ev.Beat().TupletFactor())
		if evs[i].virtual != "" {
			v = q(evs[i].virtual)
		}
		ev.SetVirtual(v)
	}
	for st := model.StageFilled; st <= model.StageRested; st++ {
		b.Enter(st)
	}
	return b
}

func renderer() *Renderer {
	return &Renderer{Decomposer: duration.Default, Speller: spelling.ForKey(0)}
}

func TestRender_BarStructure(t *testing.T) {
	s := model.NewStream()
	pickup := bar(t, s, 0, ir.Meter{Num: 3, Den: 4},
		placed{pitch: 67, pos: "2", dur: "1"})
	pickup.Offset = q("2")
	bar(t, s, 1, ir.Meter{Num: 3, Den: 4},
		placed{pitch: 72, pos: "0", dur: "3", tie: true})
	bar(t, s, 2, ir.CommonTime,
		placed{pitch: 72, pos: "0", dur: "1"},
		placed{rest: true, pos: "1", dur: "3"})
	s.Freeze()

	out := renderer().Render(s)
	assert.Equal(t, `\time 3/4 \partial 4 g'4 | c''2.~ | \time 4/4 c''4 r2.`, out.Text())
	assert.Zero(t, out.Fallbacks)
}

func TestRender_TupletBrackets(t *testing.T) {
	s := model.NewStream()
	bar(t, s, 1, ir.Meter{Num: 2, Den: 4},
		placed{pitch: 60, pos: "0", dur: "2/3"},
		placed{pitch: 62, pos: "2/3", dur: "1/3"},
		placed{pitch: 64, pos: "1", dur: "1/5"},
		placed{pitch: 65, pos: "6/5", dur: "4/5"})
	s.Freeze()

	out := renderer().Render(s)
	assert.Equal(t, `\tuplet 3/2 { c'4 d'8 } \tuplet 5/4 { e'16 f'4 }`, out.Text())
}

func TestRender_OneEventTupletIsBracketed(t *testing.T) {
	s := model.NewStream()
	bar(t, s, 1, ir.CommonTime,
		placed{pitch: 60, pos: "0", dur: "4/3"},
		placed{rest: true, pos: "4/3", dur: "2/3"},
		placed{rest: true, pos: "2", dur: "2"})
	s.Freeze()

	out := renderer().Render(s)
	assert.Equal(t, `\tuplet 3/2 { c'2 } \tuplet 3/2 { r4 } r2`, out.Text())
}

func TestRender_HalfSplitLoneEventIsPlain(t *testing.T) {
	tests := []struct {
		name string
		evs  []placed
		want string
	}{
		{
			name: "lone event in the second half",
			evs: []placed{
				{pitch: 60, pos: "0", dur: "1/3"},
				{pitch: 62, pos: "1/3", dur: "1/6"},
				{pitch: 64, pos: "1/2", dur: "1/2"},
			},
			want: `\time 1/4 \tuplet 3/2 { c'8 d'16 } e'8`,
		},
		{
			name: "lone event in the first half",
			evs: []placed{
				{pitch: 60, pos: "0", dur: "1/2"},
				{pitch: 62, pos: "1/2", dur: "1/6"},
				{pitch: 64, pos: "2/3", dur: "1/3"},
			},
			want: `\time 1/4 c'8 \tuplet 3/2 { d'16 e'8 }`,
		},
		{
			name: "lone rest",
			evs: []placed{
				{rest: true, pos: "0", dur: "1/2"},
				{pitch: 62, pos: "1/2", dur: "1/3"},
				{pitch: 64, pos: "5/6", dur: "1/6"},
			},
			want: `\time 1/4 r8 \tuplet 3/2 { d'8 e'16 }`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := model.NewStream()
			bar(t, s, 1, ir.Meter{Num: 1, Den: 4}, tt.evs...)
			s.Freeze()

			out := renderer().Render(s)
			assert.Equal(t, tt.want, out.Text())
			assert.Zero(t, out.Fallbacks)
		})
	}
}

func TestRender_Fallback(t *testing.T) {
	var logs bytes.Buffer
	r := renderer()
	r.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	s := model.NewStream()
	bar(t, s, 1, ir.CommonTime,
		placed{pitch: 60, pos: "0", dur: "4", virtual: "5/4", tie: true})
	s.Freeze()

	out := r.Render(s)
	assert.Equal(t, "X~", out.Text())
	assert.Equal(t, 1, out.Fallbacks)
	assert.True(t, out.Tokens[0].Fallback)
	assert.Contains(t, logs.String(), "RENDER_FALLBACK")
	assert.Contains(t, logs.String(), "virtual=5/4")
}

func TestRender_RequiresFrozenProcessedStream(t *testing.T) {
	s := model.NewStream()
	bar(t, s, 1, ir.CommonTime, placed{pitch: 60, pos: "0", dur: "4"})
	assert.Panics(t, func() { renderer().Render(s) }, "stream not frozen")

	s = model.NewStream()
	s.EnsureBar(1, ir.CommonTime)
	s.Freeze()
	assert.Panics(t, func() { renderer().Render(s) }, "bar not processed")
}

func TestPrettyFactor(t *testing.T) {
	tests := []struct {
		divisor int64
		want    string
	}{
		{3, "3/2"},
		{5, "5/4"},
		{6, "6/4"},
		{7, "14/8"},
		{9, "9/8"},
		{12, "12/8"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PrettyFactor(tt.divisor), "divisor %d", tt.divisor)
	}
}

func TestHalfSplit(t *testing.T) {
	t.Run("events on both sides", func(t *testing.T) {
		s := model.NewStream()
		b := bar(t, s, 1, ir.Meter{Num: 1, Den: 4},
			placed{pitch: 60, pos: "0", dur: "1/3"},
			placed{pitch: 62, pos: "1/3", dur: "1/6"},
			placed{pitch: 64, pos: "1/2", dur: "1/6"},
			placed{pitch: 65, pos: "2/3", dur: "1/3"})
		first, second, ok := HalfSplit(b.Beat(1))
		require.True(t, ok)
		assert.Len(t, first, 2)
		assert.Len(t, second, 2)
	})
	t.Run("event across the middle", func(t *testing.T) {
		s := model.NewStream()
		b := bar(t, s, 1, ir.Meter{Num: 1, Den: 4},
			placed{pitch: 60, pos: "0", dur: "1/6"},
			placed{pitch: 62, pos: "1/6", dur: "2/3"},
			placed{pitch: 64, pos: "5/6", dur: "1/6"})
		_, _, ok := HalfSplit(b.Beat(1))
		assert.False(t, ok)
	})
	t.Run("plain triplet", func(t *testing.T) {
		s := model.NewStream()
		b := bar(t, s, 1, ir.Meter{Num: 1, Den: 4},
			placed{pitch: 60, pos: "0", dur: "1/3"},
			placed{pitch: 62, pos: "1/3", dur: "2/3"})
		_, _, ok := HalfSplit(b.Beat(1))
		assert.False(t, ok)
	})
}
