package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// allows the hashed layout to change without colliding with old hashes.
const (
	DomainMelody    = "mensur/melody/v1"
	DomainRendering = "mensur/rendering/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MelodyHash identifies the notational content of a melody.
//
// Only fields that influence rendering take part: the ID, the title, the
// source path and the informational onsets are excluded, so importing the
// same tune twice yields the same hash.
func MelodyHash(m Melody) (string, error) {
	events := make(Array, len(m.Events))
	for i, ev := range m.Events {
		events[i] = EventObject(ev)
	}
	doc := Object{
		"key":    Int(m.Key),
		"meter":  String(m.Meter.String()),
		"events": events,
	}
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("MelodyHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainMelody, canonical), nil
}

// EventObject is the canonical form of the notational fields of ev. Its
// keys match the JSON tags of InputEvent, so the canonical bytes decode
// back into an InputEvent.
func EventObject(ev InputEvent) Object {
	obj := Object{
		"bar":  Int(ev.Bar),
		"qpos": String(ev.QPos.String()),
		"qioi": String(ev.QIOI.String()),
		"qdur": String(ev.QDur.String()),
		"rest": Bool(ev.Rest),
	}
	if !ev.Rest {
		obj["pitch"] = Int(ev.Pitch)
	}
	if ev.Meter != nil {
		obj["meter"] = String(ev.Meter.String())
	}
	if ev.Divisor != 0 {
		obj["divisor"] = Int(ev.Divisor)
	}
	if ev.Annotation != "" {
		obj["annotation"] = String(ev.Annotation)
	}
	return obj
}

// RenderingHash identifies a rendered text for a melody under one engine
// version and option set.
func RenderingHash(melodyHash, engineVersion, options, text string) string {
	doc := Object{
		"melody":  String(melodyHash),
		"engine":  String(engineVersion),
		"options": String(options),
		"text":    String(text),
	}
	// Only strings are involved, so marshaling cannot fail.
	canonical, _ := MarshalCanonical(doc)
	return hashWithDomain(DomainRendering, canonical)
}
