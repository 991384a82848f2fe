package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mensur/internal/ir"
)

func TestMelodyBuilder(t *testing.T) {
	m := NewMelody("3/4").
		Note(60, "0", "1").Annotate("A").
		Bar(2).Rest("0", "3").Meter("6/8").
		Build()

	require.Len(t, m.Events, 2)
	assert.Equal(t, ir.Meter{Num: 3, Den: 4}, m.Meter)
	assert.Equal(t, 1, m.Events[0].Bar)
	assert.Equal(t, "A", m.Events[0].Annotation)
	assert.Equal(t, 2, m.Events[1].Bar)
	assert.True(t, m.Events[1].Rest)
	assert.Equal(t, 1, m.Events[1].Index)
	require.NotNil(t, m.Events[1].Meter)
	assert.Equal(t, "6/8", m.Events[1].Meter.String())
}

func TestMelodyBuilder_LastWithoutEventPanics(t *testing.T) {
	assert.Panics(t, func() { NewMelody("4/4").Dur("1") })
}

func TestDeterministicClock(t *testing.T) {
	c := NewDeterministicClock()
	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, Epoch.Add(time.Second), c.Now())
	assert.Equal(t, int64(2), c.Calls())

	c.Reset()
	assert.Equal(t, Epoch, c.Now())
}

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "test-rendering", NewFixedIDGenerator("").Generate())
	g := NewFixedIDGenerator("r")
	assert.Equal(t, "r", g.Generate())
	assert.Equal(t, "r", g.Generate())
}
