package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version string `json:"version"`
	Go      string `json:"go"`
}

func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of the program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{Version: rootOpts.Version, Go: runtime.Version()}
			return output(cmd.OutOrStdout(), rootOpts, info, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "tinymist LSP server version %s\n", info.Version)
				return err
			})
		},
	}
}
