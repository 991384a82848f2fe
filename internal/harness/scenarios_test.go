package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioDir holds the checked-in scenarios, relative to this package.
const scenarioDir = "../../testdata/scenarios"

// TestScenarios runs every checked-in scenario and compares it against
// its golden file. These scenarios serve as:
// 1. End-to-end checks of reading, rendering, storing and replaying
// 2. Reference examples of the scenario format
// 3. Regression test fixtures
func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarios(scenarioDir)
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err, "scenario execution failed")
			assert.True(t, result.Pass, "scenario should pass: errors=%v", result.Errors)
			require.NoError(t, AssertGolden(t, s.Name, result))
		})
	}
}

// TestScenarios_Replay validates deterministic replay: running a scenario
// twice produces identical results.
func TestScenarios_Replay(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenarioDir, "tie_across_barline.yaml"))
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	require.True(t, first.Pass)

	second, err := Run(s)
	require.NoError(t, err)
	require.True(t, second.Pass)

	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Tokens, second.Tokens)
	assert.Equal(t, first.Logs, second.Logs)
}

// TestScenarios_FormatsAgree checks that a melody read from a file renders
// like the same melody written inline.
func TestScenarios_FormatsAgree(t *testing.T) {
	fromFile, err := LoadScenario(filepath.Join(scenarioDir, "pickup_partial.yaml"))
	require.NoError(t, err)
	inline := parse(t, `
name: pickup
description: the pickup melody written inline
melody:
  title: Pickup
  events:
    - {bar: 0, qpos: 3, qioi: 1, pitch: 67}
    - {bar: 1, qpos: 0, qioi: 4, pitch: 72}
`)

	a, err := Run(fromFile)
	require.NoError(t, err)
	b, err := Run(inline)
	require.NoError(t, err)
	assert.Equal(t, a.Text, b.Text)
}

func TestRunWithGolden(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenarioDir, "quarter_downbeat.yaml"))
	require.NoError(t, err)
	require.NoError(t, RunWithGolden(t, s))
}
