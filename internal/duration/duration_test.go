package duration

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/rational"
)

func TestCalcDots(t *testing.T) {
	tests := []struct {
		in   int64
		want Value
		ok   bool
	}{
		{1, Value{1, 0}, true},
		{3, Value{2, 1}, true},
		{7, Value{4, 2}, true},
		{15, Value{8, 3}, true},
		{2, Value{}, false},
		{5, Value{}, false},
		{0, Value{}, false},
		{-1, Value{}, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			got, ok := CalcDots(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				assert.Equal(t, tt.in, got.Ticks())
			}
		})
	}
}

func TestSplitDuration_Documented(t *testing.T) {
	tests := []struct {
		in   int64
		want []Value
	}{
		{7, []Value{{4, 2}}},
		{5, []Value{{4, 0}, {1, 0}}},
		{11, []Value{{8, 0}, {2, 1}}},
		{4, []Value{{4, 0}}},
		{6, []Value{{4, 0}, {2, 0}}},
		{1, []Value{{1, 0}}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			got, err := SplitDuration(tt.in, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitDuration_MaxPeriod(t *testing.T) {
	got, err := SplitDuration(11, 4)
	require.NoError(t, err)
	assert.Equal(t, []Value{{4, 0}, {4, 0}, {2, 1}}, got)

	got, err = SplitDuration(8, 4)
	require.NoError(t, err)
	assert.Equal(t, []Value{{4, 0}, {4, 0}}, got)
}

func TestSplitDuration_SumsAndAtomic(t *testing.T) {
	for _, d := range []Decomposer{{MaxDots: 0}, {MaxDots: 1}, Default} {
		for v := int64(1); v <= 64; v++ {
			for _, period := range []int64{0, 4, 16} {
				chunks, err := d.SplitDuration(v, period)
				require.NoError(t, err)

				var sum int64
				for _, c := range chunks {
					sum += c.Ticks()
					assert.True(t, rational.IsPowerOfTwo(c.Base), "base %d of %d", c.Base, v)
					assert.LessOrEqual(t, c.Dots, d.MaxDots, "dots of %d", v)
					if period > 0 {
						assert.LessOrEqual(t, c.Ticks(), period)
					}
				}
				assert.Equal(t, v, sum, "chunks of %d", v)
			}
		}
	}
}

func TestSplitDuration_SingleDotCap(t *testing.T) {
	got, err := Decomposer{MaxDots: 1}.SplitDuration(7, 0)
	require.NoError(t, err)
	assert.Equal(t, []Value{{4, 0}, {2, 1}}, got)
}

func TestSplitDuration_RejectsNonPositive(t *testing.T) {
	_, err := SplitDuration(0, 0)
	assert.True(t, ir.IsInvalidDuration(err))

	_, err = SplitDuration(-3, 4)
	assert.True(t, ir.IsInvalidDuration(err))
}

func TestValueLength(t *testing.T) {
	assert.Equal(t, rational.New(3, 4), Value{2, 1}.Length(4))
	assert.Equal(t, rational.Int(4), Value{4, 0}.Length(1))
}
