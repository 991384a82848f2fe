package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/roach88/mensur/internal/ir"
)

// VersionInfo is the output of the version command.
type VersionInfo struct {
	Engine string `json:"engine"`
	Go     string `json:"go"`
}

func (v VersionInfo) String() string {
	return "mensur " + v.Engine + " (" + v.Go + ")"
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the engine version",
		Long: `Print the engine version. Stored renderings record it, and a
rendering hash only reproduces under the same version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.formatter(cmd).Success(VersionInfo{
				Engine: ir.EngineVersion,
				Go:     runtime.Version(),
			})
		},
	}
}
