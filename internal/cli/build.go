package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	nativeext "github.com/contriboss/native-extension-go"
)

var (
	buildCC        string
	buildDir       string
	buildDest      string
	buildPython    string
	buildExtSuffix string
	buildForce     bool
	buildClean     bool
	buildKeepGoing bool
)

var buildCmd = &cobra.Command{
	Use:   "build [descriptor...]",
	Short: "Compile and link extension modules",
	Long: `Compile each descriptor's sources and link them into one module named
after the package.

Examples:
  extbuild build
  extbuild build pymodule/extension.yaml
  extbuild build --python python3 --dest ./site-packages
  extbuild build --cc "ccache clang" --force`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildCC, "cc", "", "compiler driver (default $CC, then cc)")
	buildCmd.Flags().StringVar(&buildDir, "build-dir", "", "build output directory, relative to the descriptor")
	buildCmd.Flags().StringVar(&buildDest, "dest", "", "copy the module into this directory")
	buildCmd.Flags().StringVar(&buildPython, "python", "", "interpreter to take Python.h and the module suffix from")
	buildCmd.Flags().StringVar(&buildExtSuffix, "ext-suffix", "", "module file suffix, e.g. .so")
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "rebuild even if nothing changed")
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "remove previous outputs first")
	buildCmd.Flags().BoolVar(&buildKeepGoing, "keep-going", false, "continue with remaining descriptors after a failure")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	factory := nativeext.NewBuilderFactory()

	var firstErr error
	for _, path := range descriptorPaths(args) {
		err := buildOne(ctx, cmd, factory, path)
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		if !buildKeepGoing {
			break
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}

	return firstErr
}

func buildOne(ctx context.Context, cmd *cobra.Command, factory *nativeext.BuilderFactory, path string) error {
	desc, err := nativeext.LoadDescriptor(path)
	if err != nil {
		return err
	}

	config := buildConfigFor(cmd, path)
	if buildCC != "" {
		config.CC = buildCC
	}
	if buildDir != "" {
		config.BuildDir = buildDir
	}
	if buildPython != "" {
		config.PythonPath = buildPython
	}
	if buildExtSuffix != "" {
		config.ExtSuffix = buildExtSuffix
	}
	config.DestPath = buildDest
	config.Force = buildForce
	config.CleanFirst = buildClean

	result, err := factory.Build(ctx, config, desc)
	if config.Verbose && result != nil {
		for _, line := range result.Output {
			fmt.Fprintln(cmd.ErrOrStderr(), line)
		}
	}
	if err != nil {
		if !config.Verbose && result != nil {
			return nativeext.BuildError(desc.Name, result.Output, err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if result.Skipped {
		fmt.Fprintf(out, "%s %s is up to date: %s\n", desc.Name, desc.Version, result.Artifact)
	} else {
		fmt.Fprintf(out, "built %s %s: %s\n", desc.Name, desc.Version, result.Artifact)
	}
	for _, installed := range result.Installed {
		fmt.Fprintf(out, "installed %s\n", installed)
	}

	return nil
}
