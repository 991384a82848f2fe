package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mensur/internal/ir"
)

// Snapshot captures the deterministic part of a scenario result. Hashes
// are left out so golden files survive engine version bumps.
type Snapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonical converts the snapshot to an ir.Object for canonical JSON
// serialization.
func (s *Snapshot) toCanonical() ir.Object {
	r := s.Result
	obj := ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
	}
	if r.Failed() {
		obj["error"] = ir.String(r.ErrorCode)
		return obj
	}
	tokens := make(ir.Array, len(r.Tokens))
	for i, tok := range r.Tokens {
		tokens[i] = ir.Object{
			"kind": ir.String(tok.Kind.String()),
			"text": ir.String(tok.String()),
		}
	}
	obj["text"] = ir.String(r.Text)
	obj["bars"] = ir.Int(int64(r.Bars))
	obj["fallbacks"] = ir.Int(int64(r.Fallbacks))
	obj["tokens"] = tokens
	return obj
}

// SnapshotJSON returns the canonical JSON golden files hold for result.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: scenarioName, Result: result}
	return ir.MarshalCanonical(snapshot.toCanonical())
}

// RunWithGolden executes a scenario and compares the result against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the result doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
