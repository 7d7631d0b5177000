package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "extbuild version %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintln(cmd.OutOrStdout(), "https://github.com/contriboss/native-extension-go")
	},
}
