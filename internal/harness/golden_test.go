package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mensur/internal/ir"
)

func TestSnapshot_Canonical(t *testing.T) {
	s := Snapshot{ScenarioName: "tied", Result: tiedResult()}
	data, err := ir.MarshalCanonical(s.toCanonical())
	require.NoError(t, err)

	want := `{"bars":2,"fallbacks":0,"scenario_name":"tied","text":"r2. c'4~ | c'4 r2.","tokens":[` +
		`{"kind":"rest","text":"r2."},` +
		`{"kind":"note","text":"c'4~"},` +
		`{"kind":"bar_check","text":"|"},` +
		`{"kind":"note","text":"c'4"},` +
		`{"kind":"rest","text":"r2."}]}`
	assert.Equal(t, want, string(data))
}

func TestSnapshot_Error(t *testing.T) {
	r := NewResult("bad")
	r.ErrorCode = "UNSUPPORTED_METER"
	r.ErrorMessage = "UNSUPPORTED_METER: meter 3/5"

	s := Snapshot{ScenarioName: "bad", Result: r}
	data, err := ir.MarshalCanonical(s.toCanonical())
	require.NoError(t, err)
	assert.Equal(t, `{"error":"UNSUPPORTED_METER","scenario_name":"bad"}`, string(data))
}

func TestSnapshot_OmitsHashes(t *testing.T) {
	r := tiedResult()
	r.Hash = "abc"
	r.MelodyHash = "def"
	s := Snapshot{ScenarioName: "tied", Result: r}
	obj := s.toCanonical()
	assert.NotContains(t, obj, "hash")
	assert.NotContains(t, obj, "melody_hash")
}
