package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/mensur/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	MIDIFlags
}

// ImportedMelody reports one imported file.
type ImportedMelody struct {
	File    string `json:"file"`
	ID      string `json:"id"`
	Hash    string `json:"hash"`
	Events  int    `json:"events"`
	Changed bool   `json:"changed"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <melody-file>...",
		Short: "Import melodies into the catalog",
		Long: `Read melody files and store them in the SQLite catalog.

A melody is stored under its document id, or its file name when it has
none. Importing unchanged content again is a no-op; changed content
replaces the stored events.

Examples:
  mensur import --db mensur.db waltz.yaml tune.mid
  mensur import --db mensur.db melodies/*.json --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args, cmd)
		},
	}
	opts.MIDIFlags.register(cmd)
	return cmd
}

func runImport(opts *ImportOptions, paths []string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	if err := opts.requireDatabase("import"); err != nil {
		return err
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := contextOf(cmd)
	imported := make([]ImportedMelody, 0, len(paths))
	for _, path := range paths {
		m, err := opts.MIDIFlags.load(path)
		if err != nil {
			return out.ReportError(fmt.Sprintf("failed to read %s", path), err)
		}
		rec, changed, err := st.SaveMelody(ctx, m)
		if err != nil {
			return out.ReportError(fmt.Sprintf("failed to import %s", path), err)
		}
		imported = append(imported, ImportedMelody{
			File:    path,
			ID:      rec.ID,
			Hash:    rec.Hash,
			Events:  rec.EventCount,
			Changed: changed,
		})
		if info, err := os.Stat(path); err == nil {
			out.VerboseLog("read %s (%s)", path, humanize.Bytes(uint64(info.Size())))
		}
	}

	if opts.Format == "json" {
		return out.Success(imported)
	}
	w := cmd.OutOrStdout()
	for _, im := range imported {
		status := "imported"
		if !im.Changed {
			status = "unchanged"
		}
		fmt.Fprintf(w, "%s %s (%s events) from %s\n", status, im.ID, humanize.Comma(int64(im.Events)), im.File)
	}
	return nil
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Renderings bool
	Melody     string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog contents",
		Long: `List the melodies in the catalog, or its renderings with --renderings.

Examples:
  mensur list --db mensur.db
  mensur list --db mensur.db --renderings --melody waltz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Renderings, "renderings", false, "list renderings instead of melodies")
	cmd.Flags().StringVar(&opts.Melody, "melody", "", "only renderings of this melody")
	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	if err := opts.requireDatabase("list"); err != nil {
		return err
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()
	ctx := contextOf(cmd)

	if opts.Renderings {
		rs, err := st.ListRenderings(ctx, opts.Melody)
		if err != nil {
			return out.ReportError("failed to list renderings", err)
		}
		if opts.Format == "json" {
			return out.Success(renderingViews(rs))
		}
		if len(rs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No renderings found.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tMELODY\tBARS\tFALLBACKS\tHASH\tCREATED")
		for _, r := range rs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
				r.ID, r.MelodyID, humanize.Comma(int64(r.Bars)), r.Fallbacks, shortHash(r.Hash), humanize.Time(r.CreatedAt))
		}
		return tw.Flush()
	}

	ms, err := st.ListMelodies(ctx)
	if err != nil {
		return out.ReportError("failed to list melodies", err)
	}
	if opts.Format == "json" {
		views := make([]MelodyView, len(ms))
		for i, m := range ms {
			views[i] = melodyView(m)
		}
		return out.Success(views)
	}
	if len(ms) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No melodies found.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tMETER\tKEY\tEVENTS\tIMPORTED")
	for _, m := range ms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			m.ID, m.Title, m.Meter, m.Key, humanize.Comma(int64(m.EventCount)), humanize.Time(m.ImportedAt))
	}
	return tw.Flush()
}

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Rendering bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored melody or rendering",
		Long: `Show a stored melody with its events and renderings, or with
--rendering the stored LilyPond text of one rendering.

Examples:
  mensur show --db mensur.db waltz
  mensur show --db mensur.db --rendering 0192f1c4-...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Rendering, "rendering", false, "id names a rendering")
	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	if err := opts.requireDatabase("show"); err != nil {
		return err
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()
	ctx := contextOf(cmd)

	if opts.Rendering {
		r, err := st.GetRendering(ctx, id)
		if err != nil {
			return notFound(out, "rendering", id, err)
		}
		if opts.Format == "json" {
			return out.Success(renderingView(r))
		}
		return out.Success(r.Text)
	}

	rec, err := st.GetMelodyRecord(ctx, id)
	if err != nil {
		return notFound(out, "melody", id, err)
	}
	m, err := st.GetMelody(ctx, id)
	if err != nil {
		return out.ReportError("failed to read melody", err)
	}
	rs, err := st.ListRenderings(ctx, id)
	if err != nil {
		return out.ReportError("failed to list renderings", err)
	}

	if opts.Format == "json" {
		return out.Success(MelodyDetail{
			MelodyView: melodyView(rec),
			Events:     len(m.Events),
			Renderings: renderingViews(rs),
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Melody: %s\n", rec.ID)
	if rec.Title != "" {
		fmt.Fprintf(w, "Title:  %s\n", rec.Title)
	}
	fmt.Fprintf(w, "Meter:  %s  Key: %d\n", rec.Meter, rec.Key)
	fmt.Fprintf(w, "Hash:   %s\n", rec.Hash)
	fmt.Fprintf(w, "Source: %s\n", rec.Source)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tBAR\tQPOS\tQIOI\tQDUR\tPITCH\tNOTE")
	for _, ev := range m.Events {
		pitch := fmt.Sprint(ev.Pitch)
		if ev.Rest {
			pitch = "rest"
		}
		extra := []string{}
		if ev.Meter != nil {
			extra = append(extra, "meter "+ev.Meter.String())
		}
		if ev.Annotation != "" {
			extra = append(extra, fmt.Sprintf("%q", ev.Annotation))
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			ev.Index, ev.Bar, ev.QPos, ev.QIOI, ev.QDur, pitch, strings.Join(extra, " "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if len(rs) == 0 {
		fmt.Fprintln(w, "No renderings.")
		return nil
	}
	fmt.Fprintf(w, "Renderings: %d\n", len(rs))
	for _, r := range rs {
		fmt.Fprintf(w, "  %s (%s, %s)\n    %s\n", r.ID, shortHash(r.Hash), humanize.Time(r.CreatedAt), r.Text)
	}
	return nil
}

// MelodyView is the JSON form of a stored melody.
type MelodyView struct {
	ID         string    `json:"id"`
	Hash       string    `json:"hash"`
	Title      string    `json:"title,omitempty"`
	Key        int       `json:"key"`
	Meter      string    `json:"meter"`
	Source     string    `json:"source,omitempty"`
	EventCount int       `json:"event_count"`
	ImportedAt time.Time `json:"imported_at"`
}

// MelodyDetail is the JSON output of show.
type MelodyDetail struct {
	MelodyView
	Events     int             `json:"events"`
	Renderings []RenderingView `json:"renderings"`
}

// RenderingView is the JSON form of a stored rendering.
type RenderingView struct {
	ID            string    `json:"id"`
	MelodyID      string    `json:"melody_id"`
	Hash          string    `json:"hash"`
	EngineVersion string    `json:"engine_version"`
	Options       string    `json:"options"`
	Text          string    `json:"text"`
	Bars          int       `json:"bars"`
	Fallbacks     int       `json:"fallbacks"`
	CreatedAt     time.Time `json:"created_at"`
}

func melodyView(m store.MelodyRecord) MelodyView {
	return MelodyView{
		ID:         m.ID,
		Hash:       m.Hash,
		Title:      m.Title,
		Key:        m.Key,
		Meter:      m.Meter.String(),
		Source:     m.Source,
		EventCount: m.EventCount,
		ImportedAt: m.ImportedAt,
	}
}

func renderingView(r store.Rendering) RenderingView {
	return RenderingView{
		ID:            r.ID,
		MelodyID:      r.MelodyID,
		Hash:          r.Hash,
		EngineVersion: r.EngineVersion,
		Options:       r.Options,
		Text:          r.Text,
		Bars:          r.Bars,
		Fallbacks:     r.Fallbacks,
		CreatedAt:     r.CreatedAt,
	}
}

func renderingViews(rs []store.Rendering) []RenderingView {
	views := make([]RenderingView, len(rs))
	for i, r := range rs {
		views[i] = renderingView(r)
	}
	return views
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// notFound reports a missing catalog entry as a command error.
func notFound(out *OutputFormatter, kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		if ferr := out.Error("E_NOT_FOUND", fmt.Sprintf("%s %q not found", kind, id), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s %q not found", kind, id), err)
	}
	return out.ReportError(fmt.Sprintf("failed to read %s", kind), err)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
