package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/mensur/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string // SQLite catalog; empty means no catalog
	Config   string // engine options file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the mensur CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "mensur",
		Short: "mensur - metrical duration renderer",
		Long: `Render timed melodies into LilyPond notation.

Melodies are read from YAML, JSON or CUE documents or Standard MIDI files,
split at beat and bar lines, tied where a value cannot be written as one
note, grouped into tuplets and printed as LilyPond tokens. Melodies and
renderings can be kept in a SQLite catalog and replayed later to check
that the engine still produces the same output.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite catalog")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "engine options file (YAML)")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// engineOptions returns the options from --config, or the defaults.
func (o *RootOptions) engineOptions() (engine.Options, error) {
	if o.Config == "" {
		return engine.DefaultOptions(), nil
	}
	return engine.LoadConfig(o.Config)
}

// requireDatabase fails with a command error when --db is missing.
func (o *RootOptions) requireDatabase(command string) error {
	if o.Database == "" {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s requires --db", command))
	}
	return nil
}
