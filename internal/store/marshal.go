package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/mensur/internal/ir"
)

// marshalEvent converts an input event to canonical JSON TEXT for storage.
// The onset and index are stored in their own columns.
func marshalEvent(ev ir.InputEvent) (string, error) {
	data, err := ir.MarshalCanonical(ir.EventObject(ev))
	if err != nil {
		return "", fmt.Errorf("marshal event %d: %w", ev.Index, err)
	}
	return string(data), nil
}

// unmarshalEvent parses an event document written by marshalEvent.
func unmarshalEvent(doc string, idx int, onset float64) (ir.InputEvent, error) {
	var ev ir.InputEvent
	dec := json.NewDecoder(bytes.NewReader([]byte(doc)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		return ir.InputEvent{}, fmt.Errorf("unmarshal event %d: %w", idx, err)
	}
	ev.Index = idx
	ev.Onset = onset
	return ev, nil
}

// Timestamps are stored as RFC 3339 text in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
