package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/mensur/internal/engine"
	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/source"
	"github.com/roach88/mensur/internal/store"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	MIDIFlags

	Output string // write the LilyPond text here instead of stdout
	Save   bool   // store melody and rendering in --db

	MaxDots         int
	Syncopation     bool
	NotateDurations bool
	PickupPartial   bool
}

// RenderOutput is the JSON payload of the render command.
type RenderOutput struct {
	ID        string         `json:"id"`
	MelodyID  string         `json:"melody_id"`
	Hash      string         `json:"hash"`
	Text      string         `json:"text"`
	Bars      int            `json:"bars"`
	Tokens    int            `json:"tokens"`
	Fallbacks int            `json:"fallbacks"`
	Options   engine.Options `json:"options"`
	Saved     bool           `json:"saved,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <melody-file>",
		Short: "Render a melody as LilyPond",
		Long: `Render a melody file as LilyPond tokens.

The melody may be a YAML, JSON or CUE document or a Standard MIDI file.
Engine options come from --config and may be overridden with flags.

Exit codes:
  0 - Rendered
  1 - The melody cannot be notated (invalid duration, unsupported meter, ...)
  2 - Command error (unreadable file, schema violation, etc.)

Examples:
  mensur render waltz.yaml
  mensur render waltz.yaml --max-dots 1 --syncopation=false
  mensur render tune.mid --grid 24 --channel 0
  mensur render waltz.yaml --db mensur.db --save
  mensur render waltz.yaml -o waltz.ly --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	d := engine.DefaultOptions()
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write LilyPond text to file")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "store melody and rendering in --db")
	cmd.Flags().IntVar(&opts.MaxDots, "max-dots", d.MaxDots, "maximum dots on one value")
	cmd.Flags().BoolVar(&opts.Syncopation, "syncopation", d.Syncopation, "keep syncopated quarters whole")
	cmd.Flags().BoolVar(&opts.NotateDurations, "notate-durations", d.NotateDurations, "notate sounding lengths instead of onset intervals")
	cmd.Flags().BoolVar(&opts.PickupPartial, "pickup-partial", d.PickupPartial, `render pickup bars with \partial`)
	opts.MIDIFlags.register(cmd)

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	if opts.Save {
		if err := opts.requireDatabase("render --save"); err != nil {
			return err
		}
	}

	eopts, err := opts.engineOptions()
	if err != nil {
		return out.ReportError("failed to load config", err)
	}
	flags := cmd.Flags()
	if flags.Changed("max-dots") {
		eopts.MaxDots = opts.MaxDots
	}
	if flags.Changed("syncopation") {
		eopts.Syncopation = opts.Syncopation
	}
	if flags.Changed("notate-durations") {
		eopts.NotateDurations = opts.NotateDurations
	}
	if flags.Changed("pickup-partial") {
		eopts.PickupPartial = opts.PickupPartial
	}
	if err := eopts.Validate(); err != nil {
		return out.ReportError("invalid options", err)
	}

	m, err := opts.MIDIFlags.load(path)
	if err != nil {
		return out.ReportError("failed to read melody", err)
	}

	logger := out.Logger()
	res, err := engine.New(engine.WithOptions(eopts), engine.WithLogger(logger)).Render(m)
	if err != nil {
		return out.ReportError(fmt.Sprintf("failed to render %s", m.ID), err)
	}
	out.VerboseLog("rendered %s: %s bars, %s tokens, %s fallbacks",
		m.ID, humanize.Comma(int64(res.Bars)), humanize.Comma(int64(len(res.Tokens))), humanize.Comma(int64(res.Fallbacks)))

	saved := false
	if opts.Save {
		if err := saveRendering(contextOf(cmd), opts.Database, m, res); err != nil {
			return out.ReportError("failed to save rendering", err)
		}
		saved = true
		out.VerboseLog("saved rendering %s to %s", res.ID, opts.Database)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(res.Text+"\n"), 0644); err != nil {
			return out.ReportError("failed to write output", err)
		}
	}

	if opts.Format == "json" {
		return out.Success(RenderOutput{
			ID:        res.ID,
			MelodyID:  res.MelodyID,
			Hash:      res.Hash,
			Text:      res.Text,
			Bars:      res.Bars,
			Tokens:    len(res.Tokens),
			Fallbacks: res.Fallbacks,
			Options:   res.Settings,
			Saved:     saved,
		})
	}
	if opts.Output == "" {
		return out.Success(res.Text)
	}
	return out.Success(fmt.Sprintf("wrote %s (%s bars)", opts.Output, humanize.Comma(int64(res.Bars))))
}

// saveRendering stores m and res in the catalog at dbPath.
func saveRendering(ctx context.Context, dbPath string, m ir.Melody, res *engine.Result) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, _, err := st.SaveMelody(ctx, m); err != nil {
		return err
	}
	options, err := json.Marshal(res.Settings)
	if err != nil {
		return err
	}
	_, err = st.SaveRendering(ctx, store.Rendering{
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
	return err
}

// MIDIFlags select what is read from a Standard MIDI file.
type MIDIFlags struct {
	Track   int
	Channel int
	Grid    int64
	Key     int
}

func (f *MIDIFlags) register(cmd *cobra.Command) {
	d := source.DefaultMIDIOptions()
	cmd.Flags().IntVar(&f.Track, "track", d.Track, "MIDI track to read (-1: first track with notes)")
	cmd.Flags().IntVar(&f.Channel, "channel", d.Channel, "MIDI channel to read (-1: all)")
	cmd.Flags().Int64Var(&f.Grid, "grid", d.Grid, "MIDI quantization steps per quarter (0: exact)")
	cmd.Flags().IntVar(&f.Key, "key", d.Key, "key signature in fifths for MIDI input")
}

// load reads a melody file, applying the MIDI flags to MIDI input.
func (f *MIDIFlags) load(path string) (ir.Melody, error) {
	format, err := source.FormatOf(path)
	if err != nil {
		return ir.Melody{}, err
	}
	if format != source.FormatMIDI {
		return source.LoadMelody(path)
	}
	mo := source.DefaultMIDIOptions()
	mo.Track, mo.Channel, mo.Grid, mo.Key = f.Track, f.Channel, f.Grid, f.Key
	return source.ReadMIDI(path, mo)
}
