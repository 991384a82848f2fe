// Package harness runs render scenarios: a melody, an option set and the
// output expected from the engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: waltz_pickup
//	description: "A pickup bar in 3/4 is rendered with \\partial"
//	melody_file: ../melodies/waltz.yaml   # or an inline melody:
//	melody:
//	  meter: 3/4
//	  events:
//	    - {bar: 0, qpos: 2, qioi: 1, pitch: 67}
//	options:
//	  max_dots: 1
//	expect:
//	  text: '\time 3/4 \partial 4 g''4 | ...'
//	assertions:
//	  - type: contains
//	    text: '\partial 4'
//	  - type: replay_matches
//
// melody_file is resolved relative to the scenario file and may name a
// YAML, JSON, CUE or MIDI file. options override engine defaults field
// by field. expect.error names a render error code instead of a text.
//
// # Assertion Types
//
//   - contains / not_contains: substring of the rendered text
//   - token_count: number of tokens of one kind (note, rest, tuplet_open, ...)
//   - tie_count: number of tied tokens
//   - bar_count: number of bars in the stream
//   - token_order: tokens appear in this order, not necessarily adjacent
//   - log_contains: substring of the engine log
//   - replay_matches: the stored rendering replays to the same hash
//   - final_state: a row of the scenario's store has the expected values
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite store with a
// deterministic clock and a fixed rendering ID, so golden snapshots are
// byte-for-byte reproducible.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/waltz.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
