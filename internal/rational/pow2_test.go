package rational

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosestPowerOfTwo(t *testing.T) {
	tests := []struct{ in, want int64 }{
		{1, 1}, {2, 2}, {3, 2}, {5, 4}, {6, 4}, {7, 8}, {12, 8}, {13, 16}, {24, 16},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, ClosestPowerOfTwo(tt.in))
		})
	}
}

func TestPrevPowerOfTwo(t *testing.T) {
	assert.Equal(t, int64(1), PrevPowerOfTwo(1))
	assert.Equal(t, int64(4), PrevPowerOfTwo(6))
	assert.Equal(t, int64(8), PrevPowerOfTwo(8))
	assert.Equal(t, int64(0), PrevPowerOfTwo(0))
	assert.True(t, IsPowerOfTwo(16))
	assert.False(t, IsPowerOfTwo(12))
	assert.False(t, IsPowerOfTwo(0))
	assert.Equal(t, 3, Log2(8))
}

func TestLCM(t *testing.T) {
	assert.Equal(t, int64(6), LCM(2, 3))
	assert.Equal(t, int64(12), LCM(4, 6))
	assert.Equal(t, int64(5), GCD(0, 5))
}

func TestAnalyseFracDuration(t *testing.T) {
	tests := []struct {
		in            Frac
		value, factor Frac
	}{
		{New(1, 3), New(1, 2), New(3, 2)},
		{New(2, 3), One, New(3, 2)},
		{New(1, 5), New(1, 4), New(5, 4)},
		{New(1, 6), New(1, 4), New(3, 2)},
		{New(3, 2), New(3, 2), One},
		{Int(4), Int(4), One},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			value, factor := AnalyseFracDuration(tt.in)
			assert.Equal(t, tt.value, value)
			assert.Equal(t, tt.factor, factor)
		})
	}
}
