// Package store provides SQLite-backed storage for imported melodies and
// their renderings.
//
// The store keeps three tables:
//   - melodies: one row per melody with its content hash
//   - events: the melody's input events as canonical JSON
//   - renderings: rendered LilyPond text with the hash, engine version
//     and option set it was produced under
//
// # Ordering
//
// Every list query orders by seq, a logical insertion counter, then by
// id with binary collation. Wall-clock timestamps are recorded for
// display only and never used for ordering.
//
// # Replay
//
// A rendering can be replayed: the stored melody is rendered again under
// the stored options and the new hash compared with the stored one. A
// mismatch means the engine's output changed for that input.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
