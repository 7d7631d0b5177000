package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	nativeext "github.com/contriboss/native-extension-go"
)

var sdistDir string

var sdistCmd = &cobra.Command{
	Use:   "sdist [descriptor]",
	Short: "Package the descriptor and its sources as a .tar.xz",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSdist,
}

func init() {
	sdistCmd.Flags().StringVar(&sdistDir, "dist-dir", "dist", "output directory, relative to the descriptor")
}

func runSdist(cmd *cobra.Command, args []string) error {
	path := descriptorPaths(args)[0]

	desc, err := nativeext.LoadDescriptor(path)
	if err != nil {
		return err
	}

	archive, err := nativeext.Sdist(buildConfigFor(cmd, path), desc, sdistDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", archive)
	return nil
}
