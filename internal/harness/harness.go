package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/mensur/internal/engine"
	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/store"
	"github.com/roach88/mensur/internal/testutil"
)

// Harness holds the per-scenario execution state.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.DeterministicClock
	logs   *bytes.Buffer
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the melody and resolve the options
// 3. Store the melody and render it
// 4. Store the rendering
// 5. Check the expect clause and evaluate assertions
//
// An error is returned when the scenario cannot be executed at all: an
// unreadable melody, invalid options or a store failure. Render errors
// are part of the result.
func Run(scenario *Scenario) (*Result, error) {
	m, err := scenario.LoadMelody()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	opts, err := scenario.EngineOptions()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	clock := testutil.NewDeterministicClock()
	st, err := store.Open(":memory:", store.WithClock(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		// Drop timestamps so logs compare across runs.
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))

	h := &Harness{
		store: st,
		engine: engine.New(
			engine.WithOptions(opts),
			engine.WithLogger(logger),
			engine.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.RenderingID)),
		),
		clock: clock,
		logs:  logs,
	}

	ctx := context.Background()
	result := NewResult(scenario.Name)
	result.MelodyID = m.ID
	if err := h.execute(ctx, m, result); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	result.Logs = logs.String()

	checkExpect(scenario.Expect, result)

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// execute stores m, renders it and stores the rendering.
func (h *Harness) execute(ctx context.Context, m ir.Melody, result *Result) error {
	rec, _, err := h.store.SaveMelody(ctx, m)
	if err != nil {
		return err
	}
	result.MelodyHash = rec.Hash

	res, err := h.engine.Render(m)
	if err != nil {
		var re *ir.RenderError
		if !errors.As(err, &re) {
			return err
		}
		result.ErrorCode = string(re.Code)
		result.ErrorMessage = re.Error()
		return nil
	}

	options, err := json.Marshal(res.Settings)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	saved, err := h.store.SaveRendering(ctx, store.Rendering{
		ID:            res.ID,
		MelodyID:      res.MelodyID,
		MelodyHash:    res.MelodyHash,
		Hash:          res.Hash,
		EngineVersion: ir.EngineVersion,
		Options:       string(options),
		Text:          res.Text,
		Fallbacks:     res.Fallbacks,
		Bars:          res.Bars,
	})
	if err != nil {
		return err
	}

	result.RenderingID = saved.ID
	result.Hash = res.Hash
	result.Text = res.Text
	result.Tokens = res.Tokens
	result.Bars = res.Bars
	result.Fallbacks = res.Fallbacks
	return nil
}

// checkExpect compares the result with the expect clause. Without a
// clause the render must succeed.
func checkExpect(expect *ExpectClause, result *Result) {
	if expect == nil || expect.Error == "" {
		if result.Failed() {
			result.AddError(fmt.Sprintf("expected success, got %s", result.ErrorMessage))
			return
		}
	}
	if expect == nil {
		return
	}
	if expect.Error != "" {
		switch {
		case !result.Failed():
			result.AddError(fmt.Sprintf("expected error %s, got text %q", expect.Error, result.Text))
		case result.ErrorCode != expect.Error:
			result.AddError(fmt.Sprintf("expected error %s, got %s", expect.Error, result.ErrorMessage))
		}
		return
	}
	if expect.Text != nil && *expect.Text != result.Text {
		result.AddError(fmt.Sprintf("text mismatch:\n  expected: %s\n  actual:   %s", *expect.Text, result.Text))
	}
	if expect.Fallbacks != nil && *expect.Fallbacks != result.Fallbacks {
		result.AddError(fmt.Sprintf("expected %d fallbacks, got %d", *expect.Fallbacks, result.Fallbacks))
	}
}
