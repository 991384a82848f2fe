package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invalidDurationMelody = `
meter: 4/4
events:
  - {bar: 1, qpos: 0, qioi: 1, qdur: 2, pitch: 60}
`

func TestRenderText(t *testing.T) {
	stdout, _, err := execute(t, "render", filepath.Join(melodiesDir, "pickup.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "\\partial 4 g'4 | c''1\n", stdout)
}

func TestRenderFlagsOverrideDefaults(t *testing.T) {
	stdout, _, err := execute(t, "render", filepath.Join(melodiesDir, "pickup.yaml"), "--pickup-partial=false")
	require.NoError(t, err)
	assert.Equal(t, "r2. g'4 | c''1\n", stdout)
}

func TestRenderConfigFile(t *testing.T) {
	config := filepath.Join(t.TempDir(), "mensur.yaml")
	require.NoError(t, os.WriteFile(config, []byte("pickup_partial: false\n"), 0644))

	stdout, _, err := execute(t, "render", filepath.Join(melodiesDir, "pickup.yaml"), "--config", config)
	require.NoError(t, err)
	assert.Equal(t, "r2. g'4 | c''1\n", stdout)

	// Flags win over the config file.
	stdout, _, err = execute(t, "render", filepath.Join(melodiesDir, "pickup.yaml"), "--config", config, "--pickup-partial")
	require.NoError(t, err)
	assert.Equal(t, "\\partial 4 g'4 | c''1\n", stdout)
}

func TestRenderJSON(t *testing.T) {
	stdout, _, err := execute(t, "render", filepath.Join(melodiesDir, "compound.json"), "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "\\time 6/8 c'4. r8 r4", data["text"])
	assert.Equal(t, "compound", data["melody_id"])
	assert.EqualValues(t, 1, data["bars"])
	assert.NotEmpty(t, data["hash"])
	assert.NotEmpty(t, data["id"])
	assert.Nil(t, data["saved"])
}

func TestRenderMIDI(t *testing.T) {
	stdout, _, err := execute(t, "render", filepath.Join(melodiesDir, "two_halves.mid"))
	require.NoError(t, err)
	assert.Equal(t, "c'2 d'2\n", stdout)
}

func TestRenderOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pickup.ly")
	stdout, _, err := execute(t, "render", filepath.Join(melodiesDir, "pickup.yaml"), "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\\partial 4 g'4 | c''1\n", string(data))
}

func TestRenderInvalidDuration(t *testing.T) {
	path := writeMelody(t, "bad.yaml", invalidDurationMelody)

	stdout, _, err := execute(t, "render", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, stdout)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_DURATION", resp.Error.Code)
}

func TestRenderInvalidMaxDots(t *testing.T) {
	_, _, err := execute(t, "render", filepath.Join(melodiesDir, "pickup.yaml"), "--max-dots", "9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "max_dots")
}

func TestRenderUnknownExtension(t *testing.T) {
	path := writeMelody(t, "melody.txt", "events: []\n")

	stdout, _, err := execute(t, "render", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "E_FORMAT")
}

func TestRenderSaveRequiresDatabase(t *testing.T) {
	_, _, err := execute(t, "render", filepath.Join(melodiesDir, "pickup.yaml"), "--save")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires --db")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRenderSave(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mensur.db")

	stdout, _, err := execute(t, "render", filepath.Join(melodiesDir, "pickup.yaml"),
		"--db", dbPath, "--save", "--format", "json")
	require.NoError(t, err)
	data := decodeResponse(t, stdout).Data.(map[string]any)
	assert.Equal(t, true, data["saved"])

	stdout, _, err = execute(t, "show", "--db", dbPath, "--rendering", data["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "\\partial 4 g'4 | c''1\n", stdout)
}

func TestRenderVerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := execute(t, "render", filepath.Join(melodiesDir, "pickup.yaml"), "-v")
	require.NoError(t, err)
	assert.Equal(t, "\\partial 4 g'4 | c''1\n", stdout)
	assert.Contains(t, stderr, "rendered pickup")
}
