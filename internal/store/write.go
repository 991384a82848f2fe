package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/mensur/internal/ir"
)

// MelodyRecord summarises a stored melody.
type MelodyRecord struct {
	ID         string
	Hash       string
	Title      string
	Key        int
	Meter      ir.Meter
	Source     string
	EventCount int
	Seq        int64
	ImportedAt time.Time
}

// Rendering is a stored rendering.
type Rendering struct {
	ID            string
	MelodyID      string
	MelodyHash    string
	Hash          string
	EngineVersion string

	// Options is the option set as JSON, readable by engine.ParseConfig.
	Options string

	Text      string
	Fallbacks int
	Bars      int

	// Seq and CreatedAt are assigned by SaveRendering.
	Seq       int64
	CreatedAt time.Time
}

// SaveMelody stores m under m.ID, replacing its events when the content
// hash changed. It reports whether anything was written: saving the same
// content twice is a no-op.
func (s *Store) SaveMelody(ctx context.Context, m ir.Melody) (MelodyRecord, bool, error) {
	if m.ID == "" {
		return MelodyRecord{}, false, errors.New("save melody: empty id")
	}
	hash, err := ir.MelodyHash(m)
	if err != nil {
		return MelodyRecord{}, false, fmt.Errorf("save melody %q: %w", m.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MelodyRecord{}, false, fmt.Errorf("save melody %q: begin tx: %w", m.ID, err)
	}
	defer tx.Rollback() // No-op if committed

	var existing string
	var seq int64
	err = tx.QueryRowContext(ctx, `SELECT hash, seq FROM melodies WHERE id = ?`, m.ID).Scan(&existing, &seq)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if seq, err = nextSeq(ctx, tx, "melodies"); err != nil {
			return MelodyRecord{}, false, fmt.Errorf("save melody %q: %w", m.ID, err)
		}
	case err != nil:
		return MelodyRecord{}, false, fmt.Errorf("save melody %q: %w", m.ID, err)
	case existing == hash:
		// Release the single connection before reading through s.db.
		tx.Rollback()
		rec, err := s.GetMelodyRecord(ctx, m.ID)
		return rec, false, err
	}

	rec := MelodyRecord{
		ID:         m.ID,
		Hash:       hash,
		Title:      m.Title,
		Key:        m.Key,
		Meter:      m.Meter,
		Source:     m.Source,
		EventCount: len(m.Events),
		Seq:        seq,
		ImportedAt: s.now(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO melodies
		(id, hash, title, key_fifths, meter, source, event_count, seq, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hash = excluded.hash,
			title = excluded.title,
			key_fifths = excluded.key_fifths,
			meter = excluded.meter,
			source = excluded.source,
			event_count = excluded.event_count,
			imported_at = excluded.imported_at
	`,
		rec.ID,
		rec.Hash,
		rec.Title,
		rec.Key,
		rec.Meter.String(),
		rec.Source,
		rec.EventCount,
		rec.Seq,
		formatTime(rec.ImportedAt),
	)
	if err != nil {
		return MelodyRecord{}, false, fmt.Errorf("save melody %q: %w", m.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE melody_id = ?`, m.ID); err != nil {
		return MelodyRecord{}, false, fmt.Errorf("save melody %q: clear events: %w", m.ID, err)
	}
	for i, ev := range m.Events {
		doc, err := marshalEvent(ev)
		if err != nil {
			return MelodyRecord{}, false, fmt.Errorf("save melody %q: %w", m.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (melody_id, idx, onset, doc) VALUES (?, ?, ?, ?)
		`, m.ID, i, ev.Onset, doc)
		if err != nil {
			return MelodyRecord{}, false, fmt.Errorf("save melody %q: event %d: %w", m.ID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return MelodyRecord{}, false, fmt.Errorf("save melody %q: commit: %w", m.ID, err)
	}
	return rec, true, nil
}

// SaveRendering inserts r, assigning its sequence number and creation
// time. Uses ON CONFLICT(id) DO NOTHING for idempotency: saving an ID
// twice keeps the first row and returns it.
//
// Note: The melody referenced by MelodyID must exist (foreign key constraint).
func (s *Store) SaveRendering(ctx context.Context, r Rendering) (Rendering, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Rendering{}, fmt.Errorf("save rendering: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "renderings")
	if err != nil {
		return Rendering{}, fmt.Errorf("save rendering: %w", err)
	}
	r.Seq = seq
	r.CreatedAt = s.now()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO renderings
		(id, melody_id, melody_hash, hash, engine_version, options, text, fallbacks, bars, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.MelodyID,
		r.MelodyHash,
		r.Hash,
		r.EngineVersion,
		r.Options,
		r.Text,
		r.Fallbacks,
		r.Bars,
		r.Seq,
		formatTime(r.CreatedAt),
	)
	if err != nil {
		return Rendering{}, fmt.Errorf("save rendering: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Rendering{}, fmt.Errorf("save rendering: rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Rendering{}, fmt.Errorf("save rendering: commit: %w", err)
	}
	if n == 0 {
		return s.GetRendering(ctx, r.ID)
	}
	return r, nil
}
