package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/erraggy/apigraph"
	"github.com/erraggy/apigraph/internal/cliutil"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			cliutil.Writef(out, "apigraph %s\n", apigraph.Version())
			cliutil.Writef(out, "Commit: %s\n", apigraph.Commit())
			cliutil.Writef(out, "Go Version: %s\n", apigraph.GoVersion())
			cliutil.Writef(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
