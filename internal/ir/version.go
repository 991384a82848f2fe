package ir

// Version constants for stored documents and the renderer.
const (
	// SchemaVersion is the melody document schema version.
	SchemaVersion = "1"

	// EngineVersion is the renderer version recorded with every rendering.
	EngineVersion = "0.1.0"
)
