package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mensur/internal/ir"
)

// Format names a melody document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
	FormatMIDI Format = "midi"
)

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	case ".mid", ".midi", ".smf":
		return FormatMIDI, nil
	}
	return "", loadErrorf(ErrCodeFormat, "cannot tell the format of %q from its extension", path)
}

// Load reads a melody from any supported file. MIDI files are read with
// DefaultMIDIOptions.
func Load(path string) (ir.Melody, error) {
	f, err := FormatOf(path)
	if err != nil {
		return ir.Melody{}, err
	}
	if f == FormatMIDI {
		return ReadMIDI(path, DefaultMIDIOptions())
	}
	return LoadMelody(path)
}

// LoadMelody reads a YAML, JSON or CUE melody document. The ID defaults
// to the file name without its extension and Source to path.
func LoadMelody(path string) (ir.Melody, error) {
	f, err := FormatOf(path)
	if err != nil {
		return ir.Melody{}, err
	}
	data, err := readFile(path)
	if err != nil {
		return ir.Melody{}, err
	}
	m, err := ParseMelody(path, data, f)
	if err != nil {
		return ir.Melody{}, err
	}
	if m.ID == "" {
		m.ID = baseName(path)
	}
	if m.Source == "" {
		m.Source = path
	}
	return m, nil
}

// ParseMelody validates data against the melody schema and decodes it.
// name is used in error positions only.
func ParseMelody(name string, data []byte, f Format) (ir.Melody, error) {
	ctx := cuecontext.New()
	doc, err := compile(ctx, name, data, f)
	if err != nil {
		return ir.Melody{}, err
	}
	v, err := validate(ctx, name, doc)
	if err != nil {
		return ir.Melody{}, err
	}

	var m ir.Melody
	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return ir.Melody{}, loadErrorf(ErrCodeParse, "%s: %v", name, err)
		}
	case FormatJSON:
		if err := decodeJSON(data, &m); err != nil {
			return ir.Melody{}, loadErrorf(ErrCodeParse, "%s: %v", name, err)
		}
	case FormatCUE:
		// CUE documents may compute fields, so decode the evaluated value.
		b, err := v.MarshalJSON()
		if err != nil {
			return ir.Melody{}, cueError(ErrCodeParse, name, err)
		}
		if err := decodeJSON(b, &m); err != nil {
			return ir.Melody{}, loadErrorf(ErrCodeParse, "%s: %v", name, err)
		}
	}
	normalize(&m)
	return m, nil
}

func decodeJSON(data []byte, m *ir.Melody) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(m)
}

// normalize fills the defaults every reader agrees on.
func normalize(m *ir.Melody) {
	if m.Meter == (ir.Meter{}) {
		m.Meter = ir.CommonTime
	}
	for i := range m.Events {
		m.Events[i].Index = i
	}
}

// EncodeMelody writes m as a YAML or JSON document that ParseMelody reads
// back unchanged.
func EncodeMelody(m ir.Melody, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return nil, fmt.Errorf("encoding melody: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding melody: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		b, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding melody: %w", err)
		}
		return append(b, '\n'), nil
	}
	return nil, loadErrorf(ErrCodeFormat, "cannot encode melodies as %q", f)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, loadErrorf(ErrCodeNotFound, "file not found: %s", path)
	}
	if err != nil {
		return nil, loadErrorf(ErrCodeNotFound, "reading %s: %v", path, err)
	}
	return data, nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
