package testutil

// FixedIDGenerator returns the same rendering ID every time.
//
// Unlike engine.FixedGenerator, which hands out IDs in sequence and panics
// when they run out, this generator never runs out. Harness scenarios use
// it so golden output does not depend on how often a scenario renders.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator returning id.
// If id is empty, Generate returns "test-rendering".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-rendering"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
//
// Implements engine.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
