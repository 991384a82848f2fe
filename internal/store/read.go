package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mensur/internal/ir"
)

// GetMelody reconstructs a stored melody with its events in index order.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) GetMelody(ctx context.Context, id string) (ir.Melody, error) {
	rec, err := s.GetMelodyRecord(ctx, id)
	if err != nil {
		return ir.Melody{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, onset, doc
		FROM events
		WHERE melody_id = ?
		ORDER BY idx ASC
	`, id)
	if err != nil {
		return ir.Melody{}, fmt.Errorf("query events of %q: %w", id, err)
	}
	defer rows.Close()

	m := ir.Melody{
		ID:     rec.ID,
		Title:  rec.Title,
		Key:    rec.Key,
		Meter:  rec.Meter,
		Source: rec.Source,
	}
	for rows.Next() {
		var idx int
		var onset float64
		var doc string
		if err := rows.Scan(&idx, &onset, &doc); err != nil {
			return ir.Melody{}, fmt.Errorf("scan event of %q: %w", id, err)
		}
		ev, err := unmarshalEvent(doc, idx, onset)
		if err != nil {
			return ir.Melody{}, fmt.Errorf("melody %q: %w", id, err)
		}
		m.Events = append(m.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return ir.Melody{}, fmt.Errorf("iterate events of %q: %w", id, err)
	}
	return m, nil
}

const melodyColumns = `id, hash, title, key_fifths, meter, source, event_count, seq, imported_at`

// GetMelodyRecord returns the summary row of a melody.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) GetMelodyRecord(ctx context.Context, id string) (MelodyRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+melodyColumns+` FROM melodies WHERE id = ?`, id)
	rec, err := scanMelody(row)
	if err != nil {
		return MelodyRecord{}, fmt.Errorf("melody %q: %w", id, err)
	}
	return rec, nil
}

// ListMelodies returns all melodies in import order.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListMelodies(ctx context.Context) ([]MelodyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+melodyColumns+`
		FROM melodies
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query melodies: %w", err)
	}
	defer rows.Close()

	recs := []MelodyRecord{}
	for rows.Next() {
		rec, err := scanMelody(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate melodies: %w", err)
	}
	return recs, nil
}

const renderingColumns = `id, melody_id, melody_hash, hash, engine_version, options, text, fallbacks, bars, seq, created_at`

// GetRendering retrieves a single rendering by ID.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) GetRendering(ctx context.Context, id string) (Rendering, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+renderingColumns+` FROM renderings WHERE id = ?`, id)
	r, err := scanRendering(row)
	if err != nil {
		return Rendering{}, fmt.Errorf("rendering %q: %w", id, err)
	}
	return r, nil
}

// ListRenderings returns the renderings of one melody, or of all melodies
// when melodyID is empty, in creation order.
func (s *Store) ListRenderings(ctx context.Context, melodyID string) ([]Rendering, error) {
	query := `SELECT ` + renderingColumns + ` FROM renderings`
	var args []any
	if melodyID != "" {
		query += ` WHERE melody_id = ?`
		args = append(args, melodyID)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`
	return s.queryRenderings(ctx, query, args...)
}

// FindRenderingByHash returns the earliest rendering with the given hash.
// The boolean is false when there is none.
func (s *Store) FindRenderingByHash(ctx context.Context, hash string) (Rendering, bool, error) {
	rs, err := s.queryRenderings(ctx, `
		SELECT `+renderingColumns+`
		FROM renderings
		WHERE hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
		LIMIT 1
	`, hash)
	if err != nil {
		return Rendering{}, false, err
	}
	if len(rs) == 0 {
		return Rendering{}, false, nil
	}
	return rs[0], true, nil
}

func (s *Store) queryRenderings(ctx context.Context, query string, args ...any) ([]Rendering, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query renderings: %w", err)
	}
	defer rows.Close()

	rs := []Rendering{}
	for rows.Next() {
		r, err := scanRendering(rows)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renderings: %w", err)
	}
	return rs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMelody(row scanner) (MelodyRecord, error) {
	var rec MelodyRecord
	var meter, importedAt string
	err := row.Scan(&rec.ID, &rec.Hash, &rec.Title, &rec.Key, &meter, &rec.Source,
		&rec.EventCount, &rec.Seq, &importedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return MelodyRecord{}, err
	}
	if err != nil {
		return MelodyRecord{}, fmt.Errorf("scan melody: %w", err)
	}
	if rec.Meter, err = ir.ParseMeter(meter); err != nil {
		return MelodyRecord{}, fmt.Errorf("scan melody %q: %w", rec.ID, err)
	}
	if rec.ImportedAt, err = parseTime(importedAt); err != nil {
		return MelodyRecord{}, fmt.Errorf("scan melody %q: %w", rec.ID, err)
	}
	return rec, nil
}

func scanRendering(row scanner) (Rendering, error) {
	var r Rendering
	var createdAt string
	err := row.Scan(&r.ID, &r.MelodyID, &r.MelodyHash, &r.Hash, &r.EngineVersion, &r.Options,
		&r.Text, &r.Fallbacks, &r.Bars, &r.Seq, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Rendering{}, err
	}
	if err != nil {
		return Rendering{}, fmt.Errorf("scan rendering: %w", err)
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return Rendering{}, fmt.Errorf("scan rendering %q: %w", r.ID, err)
	}
	return r, nil
}
