package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/mensur/internal/ir"
)

// Replayer renders stored melodies again so a stored hash can be
// checked against the current engine.
type Replayer struct {
	Logger *slog.Logger
}

// Rerender renders m under options, a stored option set in JSON or YAML,
// and returns the rendering hash and text.
func (r Replayer) Rerender(m ir.Melody, options []byte) (hash, text string, err error) {
	opts, err := ParseConfig(options)
	if err != nil {
		return "", "", fmt.Errorf("replay %q: %w", m.ID, err)
	}
	eopts := []Option{WithOptions(opts), WithIDGenerator(NewFixedGenerator("replay"))}
	if r.Logger != nil {
		eopts = append(eopts, WithLogger(r.Logger))
	}
	res, err := New(eopts...).Render(m)
	if err != nil {
		return "", "", err
	}
	return res.Hash, res.Text, nil
}
