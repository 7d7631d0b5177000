package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	nativeext "github.com/contriboss/native-extension-go"
)

var checkCmd = &cobra.Command{
	Use:   "check [descriptor]",
	Short: "Validate a descriptor and the toolchain without building",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := descriptorPaths(args)[0]

	desc, err := nativeext.LoadDescriptor(path)
	if err != nil {
		return err
	}

	builder, err := nativeext.NewBuilderFactory().BuilderFor(desc.Target())
	if err != nil {
		return err
	}

	config := buildConfigFor(cmd, path)
	ext := desc.Target()
	for _, src := range append(append([]string{}, ext.Sources...), ext.Depends...) {
		if info, err := os.Stat(resolvePath(config.SourceDir, src)); err != nil || !info.Mode().IsRegular() {
			return fmt.Errorf("%w: %s", nativeext.ErrMissingSource, src)
		}
	}

	if cc := strings.Fields(cfg.CC); len(cc) > 0 {
		if err := nativeext.CheckToolAvailable(cc[0]); err != nil {
			return err
		}
	} else if checker, ok := builder.(nativeext.ToolChecker); ok {
		if err := checker.CheckTools(); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s builder, %d source(s), toolchain ok\n",
		desc.Name, desc.Version, builder.Name(), len(ext.Sources))
	return nil
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
