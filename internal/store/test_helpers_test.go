package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/testutil"
)

// createTestStore creates a new store in a temp dir with a deterministic clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(testutil.NewDeterministicClock().Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestMelody creates a two-bar melody with a triplet and a meter change.
func createTestMelody(id string) ir.Melody {
	return testutil.NewMelody("4/4").ID(id).Key(-1).
		Bar(1).Note(65, "0", "1/3").Note(67, "1/3", "1/3").Note(69, "2/3", "1/3").
		Note(70, "1", "3").Annotate("Bb").
		Bar(2).Meter("3/4").Note(72, "0", "2").Dur("3/2").Rest("2", "1").
		Build()
}

// createTestRendering creates a rendering record for melody m.
func createTestRendering(id string, m ir.Melody) Rendering {
	hash, _ := ir.MelodyHash(m)
	return Rendering{
		ID:            id,
		MelodyID:      m.ID,
		MelodyHash:    hash,
		Hash:          "hash-" + id,
		EngineVersion: ir.EngineVersion,
		Options:       `{"max_dots":2,"syncopation":true,"notate_durations":false,"pickup_partial":true}`,
		Text:          "c'1",
		Bars:          1,
	}
}
