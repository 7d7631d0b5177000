package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	nativeext "github.com/contriboss/native-extension-go"
	"github.com/contriboss/native-extension-go/internal/config"
)

// Version is the extbuild release.
const Version = "0.3.0"

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "extbuild",
	Short: "Native extension module builder",
	Long: `extbuild - Native extension module builder

Compiles the sources declared in an extension.yaml descriptor and links
them into one loadable module named after the package.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/extbuild/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show toolchain commands and output")

	// Add commands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(sdistCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	if verbose {
		cfg.Verbose = true
	}
}

// descriptorPaths maps command arguments to descriptor files. A directory
// stands for the extension.yaml inside it; no argument means the current
// directory.
func descriptorPaths(args []string) []string {
	if len(args) == 0 {
		return []string{nativeext.DescriptorFile}
	}

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			arg = filepath.Join(arg, nativeext.DescriptorFile)
		}
		paths = append(paths, arg)
	}
	return paths
}

// buildConfigFor returns the build configuration for the descriptor at path.
func buildConfigFor(cmd *cobra.Command, path string) *nativeext.BuildConfig {
	logOut := io.Discard
	if cfg.Verbose {
		logOut = cmd.ErrOrStderr()
	}

	return &nativeext.BuildConfig{
		SourceDir:  filepath.Dir(path),
		BuildDir:   cfg.BuildDir,
		CC:         cfg.CC,
		Env:        cfg.Env,
		PythonPath: cfg.Python,
		ExtSuffix:  cfg.ExtSuffix,
		Verbose:    cfg.Verbose,
		Logger:     log.New(logOut, "[extbuild] ", 0),
	}
}
