package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/model"
	"github.com/roach88/mensur/internal/render"
	"github.com/roach88/mensur/internal/spelling"
)

// IDGenerator generates rendering IDs.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// Engine renders melodies with a fixed option set.
type Engine struct {
	opts    Options
	speller spelling.Speller
	logger  *slog.Logger
	ids     IDGenerator
	maxBars int
}

// Option configures an Engine.
type Option func(*Engine)

// WithOptions replaces the whole option set, typically one loaded with
// LoadConfig. Later options still apply on top of it.
func WithOptions(o Options) Option {
	return func(e *Engine) { e.opts = o }
}

// WithMaxDots caps the number of dots on a single value.
func WithMaxDots(n int) Option {
	return func(e *Engine) { e.opts.MaxDots = n }
}

// WithSyncopation lets a quarter starting half a beat late stay one value.
func WithSyncopation(on bool) Option {
	return func(e *Engine) { e.opts.Syncopation = on }
}

// WithNotateDurations notates the sounding length (qdur) and leaves the
// rest of the onset interval to rests.
func WithNotateDurations(on bool) Option {
	return func(e *Engine) { e.opts.NotateDurations = on }
}

// WithPickupPartial renders a pickup bar with \partial instead of
// leading rests.
func WithPickupPartial(on bool) Option {
	return func(e *Engine) { e.opts.PickupPartial = on }
}

// WithSpeller overrides the key-signature speller.
func WithSpeller(s spelling.Speller) Option {
	return func(e *Engine) { e.speller = s }
}

// WithLogger sets the logger for pass progress and fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithIDGenerator sets the source of rendering IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithMaxBars limits the number of bars one melody may occupy, including
// bars created for notes held past the last onset.
//
// Default: DefaultMaxBars.
func WithMaxBars(n int) Option {
	return func(e *Engine) { e.maxBars = n }
}

// New creates an Engine with DefaultOptions, modified by opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		opts:    DefaultOptions(),
		logger:  slog.New(slog.DiscardHandler),
		ids:     UUIDv7Generator{},
		maxBars: DefaultMaxBars,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Options returns the engine's option set.
func (e *Engine) Options() Options { return e.opts }

// Result is a rendered melody.
type Result struct {
	// ID identifies this rendering.
	ID string

	MelodyID   string
	MelodyHash string

	// Hash covers the melody hash, engine version, options and text, so
	// a replay under the same engine must reproduce it.
	Hash string

	// Options is the option string the hash covers; Settings is the same
	// option set in structured form.
	Options  string
	Settings Options
	Tokens   []ir.Token
	Text    string

	// Fallbacks counts durations rendered as ir.FallbackSymbol.
	Fallbacks int

	Bars int
}

// Render builds, processes and renders m. On error no partial output is
// returned.
func (e *Engine) Render(m ir.Melody) (*Result, error) {
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}
	s, err := e.Build(m)
	if err != nil {
		return nil, err
	}
	if err := e.Process(s); err != nil {
		return nil, err
	}
	s.Freeze()

	speller := e.speller
	if speller == nil {
		speller = spelling.ForKey(m.Key)
	}
	r := render.Renderer{Decomposer: e.opts.Decomposer(), Speller: speller, Logger: e.logger}
	out := r.Render(s)

	melodyHash, err := ir.MelodyHash(m)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", m.ID, err)
	}
	text := out.Text()
	opts := e.opts.String()
	res := &Result{
		ID:         e.ids.Generate(),
		MelodyID:   m.ID,
		MelodyHash: melodyHash,
		Hash:       ir.RenderingHash(melodyHash, ir.EngineVersion, opts, text),
		Options:    opts,
		Settings:   e.opts,
		Tokens:     out.Tokens,
		Text:       text,
		Fallbacks:  out.Fallbacks,
		Bars:       len(s.Bars()),
	}
	if res.Fallbacks > 0 {
		e.logger.Warn("rendered with fallback durations",
			"melody", m.ID, "fallbacks", res.Fallbacks)
	}
	e.logger.Debug("rendered", "melody", m.ID, "bars", res.Bars, "tokens", len(res.Tokens))
	return res, nil
}

// RenderStream runs the pipeline on an already built stream and renders
// it with speller. It is used by tests that construct streams by hand.
func (e *Engine) RenderStream(s *model.Stream, speller spelling.Speller) (render.Output, error) {
	if err := e.Process(s); err != nil {
		return render.Output{}, err
	}
	s.Freeze()
	r := render.Renderer{Decomposer: e.opts.Decomposer(), Speller: speller, Logger: e.logger}
	return r.Render(s), nil
}
