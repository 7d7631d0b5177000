package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	nativeext "github.com/contriboss/native-extension-go"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [descriptor...]",
	Short: "Remove objects, stamps and built modules",
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	factory := nativeext.NewBuilderFactory()

	for _, path := range descriptorPaths(args) {
		desc, err := nativeext.LoadDescriptor(path)
		if err != nil {
			return err
		}

		if err := factory.Clean(context.Background(), buildConfigFor(cmd, path), desc); err != nil {
			return fmt.Errorf("cleaning %s: %w", desc.Name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleaned %s\n", desc.Name)
	}

	return nil
}
