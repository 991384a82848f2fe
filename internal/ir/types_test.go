package ir

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mensur/internal/rational"
)

func TestMeterQPer(t *testing.T) {
	tests := []struct {
		meter Meter
		want  rational.Frac
	}{
		{Meter{4, 4}, rational.Int(4)},
		{Meter{3, 4}, rational.Int(3)},
		{Meter{6, 8}, rational.Int(3)},
		{Meter{7, 8}, rational.New(7, 2)},
		{Meter{2, 2}, rational.Int(4)},
	}
	for _, tt := range tests {
		t.Run(tt.meter.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.meter.QPer())
		})
	}
}

func TestParseMeter(t *testing.T) {
	m, err := ParseMeter("6/8")
	require.NoError(t, err)
	assert.Equal(t, Meter{6, 8}, m)

	for _, bad := range []string{"6", "a/8", "0/4", "3/0"} {
		_, err := ParseMeter(bad)
		assert.Error(t, err, bad)
	}
}

func TestMelodyYAML(t *testing.T) {
	src := `
title: test
key: -1
meter: 3/4
events:
  - index: 0
    pitch: 65
    bar: 1
    qpos: 0
    qioi: 1/2
    qdur: 1/2
  - index: 1
    rest: true
    bar: 1
    qpos: 1/2
    qioi: 5/2
    meter: 6/8
    annotation: fermata
`
	var m Melody
	require.NoError(t, yaml.Unmarshal([]byte(src), &m))

	assert.Equal(t, Meter{3, 4}, m.Meter)
	assert.Equal(t, -1, m.Key)
	require.Len(t, m.Events, 2)
	assert.Equal(t, rational.New(1, 2), m.Events[0].QIOI)
	assert.True(t, m.Events[1].Rest)
	assert.Equal(t, &Meter{6, 8}, m.Events[1].Meter)
	assert.Equal(t, "fermata", m.Events[1].Annotation)
}

func TestMelodyJSONRoundTrip(t *testing.T) {
	m := Melody{
		Meter:  Meter{3, 4},
		Events: []InputEvent{{Pitch: 60, QPos: rational.New(1, 3), QIOI: rational.New(2, 3), QDur: rational.New(2, 3)}},
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"meter":"3/4"`)
	assert.Contains(t, string(data), `"qpos":"1/3"`)

	var back Melody
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
}

func TestTokenString(t *testing.T) {
	tests := []struct {
		token Token
		want  string
	}{
		{Token{Kind: TokenNote, Symbol: "c'", Duration: "4"}, "c'4"},
		{Token{Kind: TokenNote, Symbol: "fis", Duration: "8", Dots: 1, Tie: true}, "fis8.~"},
		{Token{Kind: TokenRest, Symbol: "r", Duration: `\breve`}, `r\breve`},
		{Token{Kind: TokenNote, Symbol: "g'", Duration: "2", Annotation: "+"}, `g'2^"+"`},
		{Token{Kind: TokenNote, Symbol: "g'", Duration: "3", Fallback: true, Tie: true}, "X~"},
		{Token{Kind: TokenTupletOpen, Arg: "3/2"}, `\tuplet 3/2 {`},
		{Token{Kind: TokenTupletClose}, "}"},
		{Token{Kind: TokenBarCheck}, "|"},
		{Token{Kind: TokenTime, Arg: "6/8"}, `\time 6/8`},
		{Token{Kind: TokenPartial, Arg: "4"}, `\partial 4`},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.String())
		})
	}
}

func TestJoinTokens(t *testing.T) {
	tokens := []Token{
		{Kind: TokenNote, Symbol: "c'", Duration: "2"},
		{Kind: TokenRest, Symbol: "r", Duration: "2"},
		{Kind: TokenBarCheck},
	}
	assert.Equal(t, "c'2 r2 |", JoinTokens(tokens))
	assert.Equal(t, "", JoinTokens(nil))
}
