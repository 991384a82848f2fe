package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mensur/internal/engine"
	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/source"
)

// Scenario defines a render scenario: one melody rendered under one
// option set, with the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file and
	// is the melody ID when the melody has none.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// MelodyFile is a melody document or MIDI file. Relative paths are
	// resolved against the scenario file.
	MelodyFile string `yaml:"melody_file,omitempty"`

	// Melody is an inline melody document.
	Melody yaml.Node `yaml:"melody,omitempty"`

	// Options override engine defaults field by field.
	Options map[string]any `yaml:"options,omitempty"`

	// RenderingID is the fixed rendering ID. Defaults to "test-rendering".
	RenderingID string `yaml:"rendering_id,omitempty"`

	// Expect is the expected outcome. Nil means the render must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions check the result and the scenario store.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// dir is the directory of the scenario file.
	dir string
}

// ExpectClause specifies the expected render outcome.
type ExpectClause struct {
	// Text is the exact rendered text.
	Text *string `yaml:"text,omitempty"`

	// Error is the expected render error code (e.g. "INVALID_DURATION").
	Error string `yaml:"error,omitempty"`

	// Fallbacks is the expected number of fallback durations.
	Fallbacks *int `yaml:"fallbacks,omitempty"`
}

// Assertion validates the rendered result or the final store state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "contains" / "not_contains": Text is a substring of the output
	// - "token_count": Kind appears exactly Count times
	// - "tie_count": Count tokens carry a tie
	// - "bar_count": the stream has Count bars
	// - "token_order": Tokens appear in order
	// - "log_contains": Text appears in the engine log
	// - "replay_matches": the stored rendering replays to its hash
	// - "final_state": Query table and verify expected values
	Type string `yaml:"type"`

	// Text is the substring (contains, not_contains, log_contains).
	Text string `yaml:"text,omitempty"`

	// Kind is a token kind name (token_count).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number (token_count, tie_count, bar_count).
	Count int `yaml:"count,omitempty"`

	// Tokens are token texts in expected order (token_order).
	Tokens []string `yaml:"tokens,omitempty"`

	// Table is the store table name (final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (final_state).
	// All fields must match exactly.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertContains      = "contains"
	AssertNotContains   = "not_contains"
	AssertTokenCount    = "token_count"
	AssertTieCount      = "tie_count"
	AssertBarCount      = "bar_count"
	AssertTokenOrder    = "token_order"
	AssertLogContains   = "log_contains"
	AssertReplayMatches = "replay_matches"
	AssertFinalState    = "final_state"
)

var errorCodes = []ir.ErrorCode{
	ir.ErrCodeInvalidDuration,
	ir.ErrCodeUnsupportedMeter,
	ir.ErrCodeSplitIntegrity,
	ir.ErrCodeStructuralOverflow,
}

var tokenKinds = []string{"note", "rest", "tuplet_open", "tuplet_close", "bar_check", "time", "partial"}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	scenario.dir = filepath.Dir(path)
	return scenario, nil
}

// ParseScenario parses a scenario document. Relative melody_file paths
// are resolved against the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string)
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", s.Name, prev, p)
		}
		seen[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// LoadMelody returns the scenario's melody. Melody files default their ID
// to the file name; inline melodies default it to the scenario name.
func (s *Scenario) LoadMelody() (ir.Melody, error) {
	var (
		m   ir.Melody
		err error
	)
	if s.MelodyFile != "" {
		path := s.MelodyFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.dir, path)
		}
		m, err = source.Load(path)
		if err != nil {
			return ir.Melody{}, err
		}
	} else {
		data, merr := yaml.Marshal(&s.Melody)
		if merr != nil {
			return ir.Melody{}, fmt.Errorf("scenario %s: encode melody: %w", s.Name, merr)
		}
		m, err = source.ParseMelody(s.Name, data, source.FormatYAML)
		if err != nil {
			return ir.Melody{}, err
		}
	}
	if m.ID == "" {
		m.ID = s.Name
	}
	return m, nil
}

// EngineOptions returns the engine options: defaults overridden by the
// scenario's options block.
func (s *Scenario) EngineOptions() (engine.Options, error) {
	if len(s.Options) == 0 {
		return engine.DefaultOptions(), nil
	}
	data, err := yaml.Marshal(s.Options)
	if err != nil {
		return engine.Options{}, fmt.Errorf("scenario %s: encode options: %w", s.Name, err)
	}
	return engine.ParseConfig(data)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	hasInline := s.Melody.Kind != 0
	if s.MelodyFile == "" && !hasInline {
		return fmt.Errorf("one of melody_file or melody is required")
	}
	if s.MelodyFile != "" && hasInline {
		return fmt.Errorf("melody_file and melody are mutually exclusive")
	}
	if hasInline && s.Melody.Kind != yaml.MappingNode {
		return fmt.Errorf("melody must be a mapping")
	}

	if e := s.Expect; e != nil {
		if e.Text != nil && e.Error != "" {
			return fmt.Errorf("expect: text and error are mutually exclusive")
		}
		if e.Error != "" && !slices.Contains(errorCodes, ir.ErrorCode(e.Error)) {
			return fmt.Errorf("expect: unknown error code %q", e.Error)
		}
		if e.Fallbacks != nil && *e.Fallbacks < 0 {
			return fmt.Errorf("expect: fallbacks must be non-negative")
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertContains, AssertNotContains, AssertLogContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertTokenCount:
		if !slices.Contains(tokenKinds, a.Kind) {
			return fmt.Errorf("assertions[%d]: unknown token kind %q", index, a.Kind)
		}
		fallthrough
	case AssertTieCount, AssertBarCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertTokenOrder:
		if len(a.Tokens) == 0 {
			return fmt.Errorf("assertions[%d]: tokens list is required for token_order", index)
		}
	case AssertReplayMatches:
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
