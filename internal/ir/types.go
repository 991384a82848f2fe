package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/mensur/internal/rational"
)

// Meter is a time signature such as 3/4 or 6/8.
type Meter struct {
	Num int
	Den int
}

// CommonTime is the meter assumed when a melody names none.
var CommonTime = Meter{Num: 4, Den: 4}

// QPer returns the bar length in quarter notes.
func (m Meter) QPer() rational.Frac {
	return rational.New(int64(4*m.Num), int64(m.Den))
}

// Validate checks that both parts are positive.
func (m Meter) Validate() error {
	if m.Num <= 0 || m.Den <= 0 {
		return fmt.Errorf("meter %d/%d: numerator and denominator must be positive", m.Num, m.Den)
	}
	return nil
}

func (m Meter) String() string {
	return strconv.Itoa(m.Num) + "/" + strconv.Itoa(m.Den)
}

// ParseMeter reads "n/d".
func ParseMeter(s string) (Meter, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Meter{}, fmt.Errorf("invalid meter %q: want n/d", s)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return Meter{}, fmt.Errorf("invalid meter %q: %w", s, err)
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return Meter{}, fmt.Errorf("invalid meter %q: %w", s, err)
	}
	m := Meter{Num: n, Den: d}
	if err := m.Validate(); err != nil {
		return Meter{}, err
	}
	return m, nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Meter) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Meter) UnmarshalText(b []byte) error {
	v, err := ParseMeter(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// InputEvent is one timed event as delivered by a reader.
//
// QPos is the onset within the bar and QIOI the distance to the next
// onset; QDur is the sounding length, 0 < QDur <= QIOI. All three are in
// quarter notes.
type InputEvent struct {
	// Index is the event's position in the source, carried into
	// diagnostics.
	Index int `json:"index" yaml:"index"`

	// Pitch is a MIDI note number. Ignored for rests.
	Pitch int  `json:"pitch,omitempty" yaml:"pitch,omitempty"`
	Rest  bool `json:"rest,omitempty" yaml:"rest,omitempty"`

	// Onset is the absolute onset in seconds. It is informational and
	// never used for notation.
	Onset float64 `json:"onset,omitempty" yaml:"onset,omitempty"`

	Bar  int           `json:"bar" yaml:"bar"`
	QPos rational.Frac `json:"qpos" yaml:"qpos"`
	QIOI rational.Frac `json:"qioi" yaml:"qioi"`
	QDur rational.Frac `json:"qdur,omitempty" yaml:"qdur,omitempty"`

	// Meter overrides the melody meter from this event's bar onwards.
	Meter *Meter `json:"meter,omitempty" yaml:"meter,omitempty"`

	// Divisor is an optional subdivision hint for the event's beat.
	Divisor int `json:"divisor,omitempty" yaml:"divisor,omitempty"`

	// Annotation is copied onto the first notated fragment.
	Annotation string `json:"annotation,omitempty" yaml:"annotation,omitempty"`
}

// Melody is a single-voice piece ready for rendering.
type Melody struct {
	ID     string       `json:"id,omitempty" yaml:"id,omitempty"`
	Title  string       `json:"title,omitempty" yaml:"title,omitempty"`
	Key    int          `json:"key,omitempty" yaml:"key,omitempty"`
	Meter  Meter        `json:"meter" yaml:"meter"`
	Events []InputEvent `json:"events" yaml:"events"`
	Source string       `json:"source,omitempty" yaml:"source,omitempty"`
}

// TokenKind classifies output tokens.
type TokenKind int

const (
	TokenNote TokenKind = iota
	TokenRest
	TokenTupletOpen
	TokenTupletClose
	TokenBarCheck
	TokenTime
	TokenPartial
)

var tokenKindNames = [...]string{"note", "rest", "tuplet_open", "tuplet_close", "bar_check", "time", "partial"}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "unknown"
}

// Token is one element of the rendered LilyPond text.
type Token struct {
	Kind TokenKind

	// Symbol is the spelled pitch for notes, "r" for rests.
	Symbol string

	// Duration is the base value ("4", "8", "\breve"), without dots.
	Duration string
	Dots     int
	Tie      bool

	// Fallback marks a duration that could not be notated; the token
	// renders as the visible sentinel "X".
	Fallback bool

	Annotation string

	// Arg holds the tuplet ratio ("3/2"), the meter ("3/4") or the partial
	// duration ("8") for the structural kinds.
	Arg string
}

// FallbackSymbol stands in for a duration that is not atomic.
const FallbackSymbol = "X"

func (t Token) String() string {
	switch t.Kind {
	case TokenTupletOpen:
		return `\tuplet ` + t.Arg + " {"
	case TokenTupletClose:
		return "}"
	case TokenBarCheck:
		return "|"
	case TokenTime:
		return `\time ` + t.Arg
	case TokenPartial:
		return `\partial ` + t.Arg
	}
	var b strings.Builder
	if t.Fallback {
		b.WriteString(FallbackSymbol)
	} else {
		b.WriteString(t.Symbol)
		b.WriteString(t.Duration)
		b.WriteString(strings.Repeat(".", t.Dots))
	}
	if t.Annotation != "" {
		b.WriteString(`^"`)
		b.WriteString(strings.ReplaceAll(t.Annotation, `"`, `\"`))
		b.WriteString(`"`)
	}
	if t.Tie {
		b.WriteString("~")
	}
	return b.String()
}

// JoinTokens renders tokens separated by single spaces.
func JoinTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
