package store

import (
	"context"
	"fmt"

	"github.com/roach88/mensur/internal/ir"
)

// Renderer renders a stored melody again under stored options.
// engine.Replayer implements it.
type Renderer interface {
	Rerender(m ir.Melody, options []byte) (hash, text string, err error)
}

// ReplayResult compares a stored rendering with a fresh one.
type ReplayResult struct {
	RenderingID string
	MelodyID    string

	StoredHash   string
	ReplayedHash string
	StoredText   string
	ReplayedText string

	// MelodyChanged is set when the melody was re-imported with different
	// content after the rendering was made. The replay then renders the
	// current content and is not expected to match.
	MelodyChanged bool

	// Match is true when the replayed hash equals the stored one.
	Match bool
}

// Replay renders the melody of a stored rendering again and compares the
// result with what was stored.
func (s *Store) Replay(ctx context.Context, renderingID string, r Renderer) (ReplayResult, error) {
	stored, err := s.GetRendering(ctx, renderingID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	m, err := s.GetMelody(ctx, stored.MelodyID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %q: %w", renderingID, err)
	}
	current, err := ir.MelodyHash(m)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %q: %w", renderingID, err)
	}

	hash, text, err := r.Rerender(m, []byte(stored.Options))
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %q: %w", renderingID, err)
	}
	return ReplayResult{
		RenderingID:   stored.ID,
		MelodyID:      stored.MelodyID,
		StoredHash:    stored.Hash,
		ReplayedHash:  hash,
		StoredText:    stored.Text,
		ReplayedText:  text,
		MelodyChanged: current != stored.MelodyHash,
		Match:         hash == stored.Hash,
	}, nil
}

// ReplayAll replays every rendering of melodyID, or every rendering in
// the store when melodyID is empty, in creation order.
func (s *Store) ReplayAll(ctx context.Context, melodyID string, r Renderer) ([]ReplayResult, error) {
	rs, err := s.ListRenderings(ctx, melodyID)
	if err != nil {
		return nil, fmt.Errorf("replay all: %w", err)
	}
	results := make([]ReplayResult, 0, len(rs))
	for _, stored := range rs {
		res, err := s.Replay(ctx, stored.ID, r)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
