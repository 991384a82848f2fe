package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mensur/internal/engine"
	"github.com/roach88/mensur/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Melody string // optional - renderings of one melody only
}

// ReplayEntry holds the replay result for a single rendering.
type ReplayEntry struct {
	RenderingID   string `json:"rendering_id"`
	MelodyID      string `json:"melody_id"`
	StoredHash    string `json:"stored_hash"`
	ReplayedHash  string `json:"replayed_hash"`
	MelodyChanged bool   `json:"melody_changed,omitempty"`
	Match         bool   `json:"match"`
}

// ReplaySummary holds the overall replay result.
type ReplaySummary struct {
	Renderings []ReplayEntry `json:"renderings"`
	Total      int           `json:"total"`
	Matched    int           `json:"matched"`
	Stale      int           `json:"stale"`
	Mismatched int           `json:"mismatched"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-render stored renderings and verify their hashes",
		Long: `Render every stored rendering again from its stored melody and options
and compare the result with the stored hash.

A rendering whose melody was re-imported with different content since it
was made is reported as stale and does not fail the replay.

Exit codes:
  0 - Every rendering reproduces its hash
  1 - At least one rendering produced a different hash
  2 - Command error (database not found, etc.)

Examples:
  mensur replay --db mensur.db
  mensur replay --db mensur.db --melody waltz
  mensur replay --db mensur.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Melody, "melody", "", "replay renderings of this melody only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	if err := opts.requireDatabase("replay"); err != nil {
		return err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	results, err := st.ReplayAll(contextOf(cmd), opts.Melody, engine.Replayer{Logger: out.Logger()})
	if err != nil {
		return out.ReportError("replay failed", err)
	}

	summary := summarize(results)
	if opts.Format == "json" {
		if err := out.Success(summary); err != nil {
			return err
		}
		return summary.exitError()
	}

	w := cmd.OutOrStdout()
	if summary.Total == 0 {
		fmt.Fprintln(w, "No renderings found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d rendering(s)\n", summary.Total)
	fmt.Fprintln(w)
	for i, e := range summary.Renderings {
		switch {
		case e.Match:
			fmt.Fprintf(w, "✓ %s (%s)\n", e.RenderingID, e.MelodyID)
		case e.MelodyChanged:
			fmt.Fprintf(w, "~ %s (%s): melody changed since rendering\n", e.RenderingID, e.MelodyID)
		default:
			fmt.Fprintf(w, "✗ %s (%s)\n", e.RenderingID, e.MelodyID)
			fmt.Fprintf(w, "  Stored:   %s\n", results[i].StoredText)
			fmt.Fprintf(w, "  Replayed: %s\n", results[i].ReplayedText)
		}
		if opts.Verbose {
			fmt.Fprintf(w, "  Hash: %s -> %s\n", e.StoredHash, e.ReplayedHash)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d matched, %d stale, %d mismatched\n", summary.Matched, summary.Stale, summary.Mismatched)

	if err := summary.exitError(); err != nil {
		fmt.Fprintln(w, "✗ Replay verification failed")
		return err
	}
	fmt.Fprintln(w, "✓ All renderings reproduced")
	return nil
}

func summarize(results []store.ReplayResult) ReplaySummary {
	s := ReplaySummary{
		Renderings: make([]ReplayEntry, 0, len(results)),
		Total:      len(results),
	}
	for _, r := range results {
		s.Renderings = append(s.Renderings, ReplayEntry{
			RenderingID:   r.RenderingID,
			MelodyID:      r.MelodyID,
			StoredHash:    r.StoredHash,
			ReplayedHash:  r.ReplayedHash,
			MelodyChanged: r.MelodyChanged,
			Match:         r.Match,
		})
		switch {
		case r.Match:
			s.Matched++
		case r.MelodyChanged:
			s.Stale++
		default:
			s.Mismatched++
		}
	}
	return s
}

func (s ReplaySummary) exitError() error {
	if s.Mismatched == 0 {
		return nil
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d rendering(s) did not reproduce", s.Mismatched))
}
