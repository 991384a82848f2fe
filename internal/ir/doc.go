// Package ir provides the shared vocabulary of mensur: melodies and input
// events as readers deliver them, output tokens, the render error taxonomy
// and canonical content hashes.
//
// All other internal packages may import ir; ir imports only rational.
//
// Key design constraints:
//   - Musical time is always a rational.Frac in quarter notes, never a float
//     (InputEvent.Onset is informational and excluded from hashes)
//   - All JSON and YAML tags use snake_case
//   - Content hashes are computed over RFC 8785 canonical JSON
package ir
