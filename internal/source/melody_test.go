package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/rational"
)

func TestLoadMelody_AllFormatsAgree(t *testing.T) {
	var hashes []string
	for _, name := range []string{"waltz.yaml", "waltz.json", "waltz.cue"} {
		t.Run(name, func(t *testing.T) {
			m, err := LoadMelody(filepath.Join("testdata", name))
			require.NoError(t, err)

			assert.Equal(t, "waltz", m.ID)
			assert.Equal(t, "Little Waltz", m.Title)
			assert.Equal(t, 1, m.Key)
			assert.Equal(t, ir.Meter{Num: 3, Den: 4}, m.Meter)
			assert.Equal(t, filepath.Join("testdata", name), m.Source)
			require.Len(t, m.Events, 6)

			third := rational.New(1, 3)
			assert.Equal(t, rational.New(7, 3), m.Events[3].QPos)
			assert.Equal(t, third, m.Events[3].QIOI)
			assert.Equal(t, "G", m.Events[1].Annotation)
			assert.Equal(t, rational.Int(2), m.Events[5].QDur)
			for i, ev := range m.Events {
				assert.Equal(t, i, ev.Index)
			}

			h, err := ir.MelodyHash(m)
			require.NoError(t, err)
			hashes = append(hashes, h)
		})
	}
	require.Len(t, hashes, 3)
	assert.Equal(t, hashes[0], hashes[1])
	assert.Equal(t, hashes[0], hashes[2])
}

func TestParseMelody_Defaults(t *testing.T) {
	m, err := ParseMelody("min.yaml", []byte("events:\n  - {bar: 1, qpos: 0, qioi: 4, pitch: 60}\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, ir.CommonTime, m.Meter)
	assert.Empty(t, m.ID)
	assert.Equal(t, rational.Int(4), m.Events[0].QIOI)
	assert.True(t, m.Events[0].QDur.IsZero())
}

func TestParseMelody_DecimalFractions(t *testing.T) {
	m, err := ParseMelody("dec.json", []byte(`{"events":[{"bar":1,"qpos":0.5,"qioi":"1.5","pitch":60}]}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, rational.New(1, 2), m.Events[0].QPos)
	assert.Equal(t, rational.New(3, 2), m.Events[0].QIOI)
}

func TestParseMelody_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		f    Format
		path string
	}{
		{"pitch out of range", "events:\n  - {bar: 1, qpos: 0, qioi: 1, pitch: 128}\n", FormatYAML, "pitch"},
		{"key out of range", "key: 9\nevents: []\n", FormatYAML, "key"},
		{"unknown field", "tempo: 120\nevents: []\n", FormatYAML, "tempo"},
		{"bad meter", `{"meter": "3-4", "events": []}`, FormatJSON, "meter"},
		{"bad fraction", `{"events": [{"bar": 1, "qpos": "one", "qioi": 1}]}`, FormatJSON, "qpos"},
		{"missing qioi", "events: [{bar: 1, qpos: 0}]\n", FormatCUE, "qioi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMelody("doc."+string(tt.f), []byte(tt.doc), tt.f)
			require.Error(t, err)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, ErrCodeSchema, le.Code)
			assert.Contains(t, le.Message, tt.path)
		})
	}
}

func TestParseMelody_SyntaxError(t *testing.T) {
	_, err := ParseMelody("broken.json", []byte(`{"events": [`), FormatJSON)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeParse, le.Code)
}

func TestLoadMelody_NotFound(t *testing.T) {
	_, err := LoadMelody(filepath.Join(t.TempDir(), "missing.yaml"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
		"a.json": FormatJSON,
		"a.cue":  FormatCUE,
		"a.mid":  FormatMIDI,
	} {
		got, err := FormatOf(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatOf("a.txt")
	assert.Error(t, err)
}

func TestEncodeMelody_ReadsBack(t *testing.T) {
	orig, err := LoadMelody(filepath.Join("testdata", "waltz.yaml"))
	require.NoError(t, err)
	orig.Events[2].Meter = &ir.Meter{Num: 2, Den: 4}
	want, err := ir.MelodyHash(orig)
	require.NoError(t, err)

	for _, f := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(f), func(t *testing.T) {
			data, err := EncodeMelody(orig, f)
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "out."+string(f))
			require.NoError(t, os.WriteFile(path, data, 0o644))
			back, err := LoadMelody(path)
			require.NoError(t, err)

			got, err := ir.MelodyHash(back)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, orig.ID, back.ID)
		})
	}

	_, err = EncodeMelody(orig, FormatCUE)
	assert.Error(t, err)
}
