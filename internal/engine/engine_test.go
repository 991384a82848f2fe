package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/testutil"
)

func renderMelody(t *testing.T, m ir.Melody, opts ...Option) *Result {
	t.Helper()
	opts = append([]Option{WithIDGenerator(testutil.NewFixedIDGenerator(""))}, opts...)
	res, err := New(opts...).Render(m)
	require.NoError(t, err)
	return res
}

func TestRender_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		melody ir.Melody
		opts   []Option
		want   string
	}{
		{
			name:   "quarter on the downbeat",
			melody: testutil.NewMelody("4/4").Note(60, "0", "1").Build(),
			want:   "c'4 r2.",
		},
		{
			name: "empty bar between notes",
			melody: testutil.NewMelody("4/4").
				Note(60, "0", "4").
				Bar(3).Note(62, "0", "4").
				Build(),
			want: "c'1 | r1 | d'1",
		},
		{
			name:   "offbeat note tied over the beat",
			melody: testutil.NewMelody("4/4").Note(60, "1/2", "5/4").Build(),
			want:   "r8 c'8~ c'8. r16 r2",
		},
		{
			name:   "quarter tied to a sixteenth",
			melody: testutil.NewMelody("4/4").Note(60, "0", "5/4").Build(),
			want:   "c'4~ c'16 r8. r2",
		},
		{
			name: "syncopated quarter",
			melody: testutil.NewMelody("4/4").
				Note(60, "0", "1/2").
				Note(62, "1/2", "1").
				Note(64, "3/2", "1/2").
				Note(65, "2", "2").
				Build(),
			want: "c'8 d'4 e'8 f'2",
		},
		{
			name: "syncopation disabled",
			melody: testutil.NewMelody("4/4").
				Note(60, "0", "1/2").
				Note(62, "1/2", "1").
				Note(64, "3/2", "1/2").
				Note(65, "2", "2").
				Build(),
			opts: []Option{WithSyncopation(false)},
			want: "c'8 d'8~ d'8 e'8 f'2",
		},
		{
			name: "triplet eighths",
			melody: testutil.NewMelody("4/4").
				Note(60, "0", "1/3").
				Note(62, "1/3", "1/3").
				Note(64, "2/3", "1/3").
				Note(65, "1", "3").
				Build(),
			want: `\tuplet 3/2 { c'8 d'8 e'8 } f'2.`,
		},
		{
			name: "sextuplet beat read as two triplets",
			melody: testutil.NewMelody("4/4").
				Note(60, "0", "1/3").
				Note(62, "1/3", "1/6").
				Note(64, "1/2", "1/3").
				Note(65, "5/6", "1/6").
				Build(),
			want: `\tuplet 3/2 { c'8 d'16 } \tuplet 3/2 { e'8 f'16 } r2.`,
		},
		{
			name: "six sextuplets",
			melody: testutil.NewMelody("2/4").
				Note(60, "0", "1/6").
				Note(62, "1/6", "1/6").
				Note(64, "1/3", "1/6").
				Note(65, "1/2", "1/6").
				Note(67, "2/3", "1/6").
				Note(69, "5/6", "1/6").
				Build(),
			want: `\time 2/4 \tuplet 6/4 { c'16 d'16 e'16 f'16 g'16 a'16 } r4`,
		},
		{
			name:   "note tied across the bar line",
			melody: testutil.NewMelody("4/4").Note(60, "3", "2").Build(),
			want:   "r2. c'4~ | c'4 r2.",
		},
		{
			name: "overhang into a bar with another meter",
			melody: testutil.NewMelody("4/4").
				Note(60, "3", "3").
				Bar(2).Note(62, "2", "1").Meter("3/4").
				Build(),
			want: `r2. c'4~ | \time 3/4 c'2 d'4`,
		},
		{
			name: "pickup rendered with partial",
			melody: testutil.NewMelody("4/4").
				Bar(0).Note(67, "3", "1").
				Bar(1).Note(72, "0", "4").
				Build(),
			want: `\partial 4 g'4 | c''1`,
		},
		{
			name: "pickup filled with rests",
			melody: testutil.NewMelody("4/4").
				Bar(0).Note(67, "3", "1").
				Bar(1).Note(72, "0", "4").
				Build(),
			opts: []Option{WithPickupPartial(false)},
			want: "r2. g'4 | c''1",
		},
		{
			name:   "notated as sounding length",
			melody: testutil.NewMelody("4/4").Note(60, "0", "2").Dur("1").Build(),
			opts:   []Option{WithNotateDurations(true)},
			want:   "c'4 r2.",
		},
		{
			name:   "notated as onset interval",
			melody: testutil.NewMelody("4/4").Note(60, "0", "2").Dur("1").Build(),
			want:   "c'2 r2",
		},
		{
			name: "compound meter",
			melody: testutil.NewMelody("6/8").
				Note(60, "0", "3/2").
				Rest("3/2", "3/2").
				Build(),
			want: `\time 6/8 c'4. r8 r4`,
		},
		{
			name: "short last beat",
			melody: testutil.NewMelody("3/8").
				Note(60, "0", "1").
				Build(),
			want: `\time 3/8 c'4 r8`,
		},
		{
			name: "input rest and annotation",
			melody: testutil.NewMelody("4/4").
				Rest("0", "1").
				Note(60, "1", "3").Annotate("Am").
				Build(),
			want: `r4 c'2.^"Am"`,
		},
		{
			name: "flat key",
			melody: testutil.NewMelody("4/4").Key(-2).
				Note(70, "0", "2").
				Note(63, "2", "2").
				Build(),
			want: "bes'2 es'2",
		},
		{
			name:   "single dot cap",
			melody: testutil.NewMelody("4/4").Note(60, "0", "7/2").Build(),
			opts:   []Option{WithMaxDots(1)},
			want:   "c'2~ c'4. r8",
		},
		{
			name:   "double dotted",
			melody: testutil.NewMelody("4/4").Note(60, "0", "7/2").Build(),
			want:   "c'2.. r8",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := renderMelody(t, tt.melody, tt.opts...)
			assert.Equal(t, tt.want, res.Text)
			assert.Zero(t, res.Fallbacks)
		})
	}
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name   string
		melody ir.Melody
		is     func(error) bool
	}{
		{
			name:   "zero onset interval",
			melody: testutil.NewMelody("4/4").Note(60, "0", "0").Build(),
			is:     ir.IsInvalidDuration,
		},
		{
			name:   "sounding length exceeds interval",
			melody: testutil.NewMelody("4/4").Note(60, "0", "1").Dur("2").Build(),
			is:     ir.IsInvalidDuration,
		},
		{
			name:   "quintuple bar length",
			melody: testutil.NewMelody("3/5").Note(60, "0", "1").Build(),
			is:     ir.IsUnsupportedMeter,
		},
		{
			name:   "irregular meter",
			melody: testutil.NewMelody("7/8").Note(60, "0", "1").Build(),
			is:     ir.IsUnsupportedMeter,
		},
		{
			name:   "denominator beyond the subdivision limit",
			melody: testutil.NewMelody("4/4").Note(60, "0", "1/131072").Build(),
			is:     ir.IsInvalidDuration,
		},
		{
			name: "huge prime denominators",
			melody: testutil.NewMelody("4/4").
				Note(60, "0", "1/4294967311").
				Note(62, "1/4294967311", "4294967310/4294967311").
				Build(),
			is: ir.IsInvalidDuration,
		},
		{
			name: "meter change to unsupported meter",
			melody: testutil.NewMelody("4/4").
				Note(60, "0", "4").
				Bar(2).Note(62, "0", "1").Meter("4/5").
				Build(),
			is: ir.IsUnsupportedMeter,
		},
		{
			name: "two events at one position",
			melody: testutil.NewMelody("4/4").
				Note(60, "1", "1").
				Note(62, "1", "1").
				Build(),
			is: ir.IsStructuralOverflow,
		},
		{
			name: "event runs into the next onset",
			melody: testutil.NewMelody("4/4").
				Note(60, "0", "2").
				Note(62, "1", "1").
				Build(),
			is: ir.IsStructuralOverflow,
		},
		{
			name:   "position outside the bar",
			melody: testutil.NewMelody("3/4").Note(60, "3", "1").Build(),
			is:     ir.IsStructuralOverflow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().Render(tt.melody)
			require.Error(t, err)
			assert.Nil(t, res, "no partial output on error")
			assert.True(t, tt.is(err), "unexpected error %v", err)
		})
	}
}

func TestRender_ErrorCarriesLocation(t *testing.T) {
	m := testutil.NewMelody("4/4").
		Note(60, "0", "1").
		Bar(2).Note(62, "0", "1").Dur("2").
		Build()

	_, err := New().Render(m)
	require.Error(t, err)
	var re *ir.RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "2", re.Details["bar"])
	assert.Equal(t, "1", re.Details["source"])
}

func TestRender_EmptyMelody(t *testing.T) {
	res := renderMelody(t, ir.Melody{Meter: ir.CommonTime})
	assert.Empty(t, res.Text)
	assert.Zero(t, res.Bars)
}

func TestRender_Deterministic(t *testing.T) {
	m := testutil.NewMelody("3/4").
		Note(60, "1/3", "5").
		Bar(2).Note(62, "7/3", "2/3").
		Build()

	first := renderMelody(t, m)
	for i := 0; i < 5; i++ {
		again := renderMelody(t, m)
		assert.Equal(t, first.Text, again.Text)
		assert.Equal(t, first.Hash, again.Hash)
	}
}

func TestRender_HashDependsOnOptions(t *testing.T) {
	m := testutil.NewMelody("4/4").Note(60, "0", "1").Build()

	a := renderMelody(t, m)
	b := renderMelody(t, m, WithSyncopation(false))
	assert.Equal(t, a.Text, b.Text)
	assert.Equal(t, a.MelodyHash, b.MelodyHash)
	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestRender_InvalidOptions(t *testing.T) {
	m := testutil.NewMelody("4/4").Note(60, "0", "1").Build()
	_, err := New(WithMaxDots(9)).Render(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_dots")
}
