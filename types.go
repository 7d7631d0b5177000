package nativeext

import (
	"context"
	"log"
)

// BuildResult contains the output and status of a build operation.
//
// After a build completes, this structure provides:
//   - Success status indicating if the build completed without errors
//   - Skipped when the artifact was already up to date
//   - Output lines captured from the compiler and linker
//   - Artifact path of the compiled extension module
//   - Error information if the build failed
type BuildResult struct {
	Package             string   // Package name from the descriptor
	Success             bool     // True if build completed successfully
	Skipped             bool     // True if inputs were unchanged and nothing was rebuilt
	Output              []string // Lines of output from the toolchain
	Artifact            string   // Path to the built extension module
	Extensions          []string // Artifact paths relative to the build lib directory
	Installed           []string // Copies placed under DestPath
	Error               error    // Error if build failed, nil otherwise
	MissingDependencies []string // Link libraries the linker could not resolve
}

// BuildConfig contains configuration for the build process.
//
// Source paths:
//   - SourceDir: Directory the descriptor's relative paths resolve against
//   - BuildDir: Build output root; objects go to temp/, the module to lib/
//   - DestPath: Optional directory the finished module is copied into
//
// Toolchain:
//   - CC: Compiler command (may include a launcher, e.g. "ccache gcc")
//   - CompileArgs / LinkArgs: appended after the descriptor's own flags
//   - Env: Environment variables set for every toolchain invocation
//
// Python:
//   - PythonPath: Interpreter probed for its include dir and module suffix
//   - ExtSuffix: Explicit module suffix, wins over the probe
type BuildConfig struct {
	// Source paths
	SourceDir string // Directory containing the descriptor
	BuildDir  string // Build output root (default: <SourceDir>/build)
	DestPath  string // Install destination for the built module

	// Toolchain
	CC          string            // Compiler command
	CompileArgs []string          // Additional compile arguments
	LinkArgs    []string          // Additional link arguments
	Env         map[string]string // Environment variables for build

	// Python configuration
	PythonPath string // Path to the Python interpreter, empty to skip probing
	ExtSuffix  string // Extension module suffix, e.g. ".cpython-312-x86_64-linux-gnu.so"

	// Build options
	Verbose    bool // Record the executed commands in the output
	Force      bool // Rebuild even if inputs are unchanged
	CleanFirst bool // Remove previous outputs before building

	// Failure handling
	StopOnFailure bool // Stop after the first failed package

	Logger *log.Logger // Step logger, nil discards
}

// CommonBuildSteps defines the 3-step build pattern shared by the builders.
//
//  1. Configure: validate inputs, check the toolchain, decide if a rebuild is needed
//  2. Build: compile sources and link the module
//  3. Find: locate the produced module
type CommonBuildSteps struct {
	// ConfigureFunc prepares the build plan
	ConfigureFunc func(ctx context.Context, config *BuildConfig, plan *buildPlan, result *BuildResult) error

	// BuildFunc compiles and links the module
	BuildFunc func(ctx context.Context, config *BuildConfig, plan *buildPlan, result *BuildResult) error

	// FindFunc locates the compiled module after the build completes
	FindFunc func(plan *buildPlan) ([]string, error)
}
