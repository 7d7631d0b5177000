package nativeext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// buildPlan holds the resolved locations and toolchain for one package build.
type buildPlan struct {
	desc *Descriptor
	ext  *Extension

	sourceDir string // absolute; relative descriptor paths resolve here
	buildDir  string
	tempDir   string // object files and the build stamp
	libDir    string // the finished module

	artifact string   // absolute path of the module
	compiler []string // compiler argv prefix, e.g. ["ccache", "gcc"]

	pythonInclude string
	fingerprint   string
	upToDate      bool
}

func newBuildPlan(config *BuildConfig, desc *Descriptor) (*buildPlan, error) {
	sourceDir := config.SourceDir
	if sourceDir == "" {
		sourceDir = "."
	}
	sourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolving source directory: %w", err)
	}

	buildDir := config.BuildDir
	switch {
	case buildDir == "":
		buildDir = filepath.Join(sourceDir, "build")
	case !filepath.IsAbs(buildDir):
		buildDir = filepath.Join(sourceDir, buildDir)
	}

	return &buildPlan{
		desc:      desc,
		sourceDir: sourceDir,
		buildDir:  filepath.Clean(buildDir),
		tempDir:   filepath.Join(buildDir, "temp"),
		libDir:    filepath.Join(buildDir, "lib"),
	}, nil
}

// resolve returns a descriptor path relative to the source directory.
func (p *buildPlan) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.sourceDir, path)
}

func (p *buildPlan) setSuffix(suffix string) {
	p.artifact = filepath.Join(p.libDir, p.desc.Name+suffix)
}

func (p *buildPlan) stampPath() string {
	return filepath.Join(p.tempDir, p.desc.Name+".stamp.yaml")
}

// modules lists every suffix variant of the package's module in the lib
// directory, e.g. tawny.so next to tawny.cpython-312-x86_64-linux-gnu.so.
func (p *buildPlan) modules() []string {
	matches, _ := filepath.Glob(filepath.Join(p.libDir, p.desc.Name+".*"))
	return matches
}

// discard removes every trace of a module from the output location so a
// failed build never leaves an artifact behind, whichever suffix an earlier
// build used.
func (p *buildPlan) discard() {
	if p.artifact == "" {
		return
	}
	_ = os.Remove(p.artifact + ".tmp")
	_ = os.Remove(p.artifact)
	for _, module := range p.modules() {
		_ = os.Remove(module)
	}
	_ = os.Remove(p.stampPath())
}

// runCommonBuild executes the standard 3-step build process.
//
// # Process Flow
//
//  1. Resolve the build plan (source, temp and lib directories)
//  2. Call ConfigureFunc to validate inputs and the toolchain
//  3. Call BuildFunc to compile and link, unless the plan is up to date
//  4. Call FindFunc to locate the module
//  5. Copy the module to config.DestPath if one is set
//
// # Error Handling
//
// If any step returns an error:
//   - result.Error is set to the error
//   - the module, its temporary link output and the stamp are removed
//   - subsequent steps are not executed
//
// Unresolved link libraries are reported in result.MissingDependencies.
func runCommonBuild(ctx context.Context, config *BuildConfig, desc *Descriptor, steps CommonBuildSteps) (*BuildResult, error) {
	result := &BuildResult{
		Package: desc.Name,
		Success: false,
		Output:  []string{},
	}

	plan, err := newBuildPlan(config, desc)
	if err != nil {
		result.Error = err
		return result, err
	}

	fail := func(err error) (*BuildResult, error) {
		plan.discard()
		result.Error = err
		result.MissingDependencies = missingLibraries(err)
		return result, err
	}

	// Step 1: Configure/prepare the build
	if err := steps.ConfigureFunc(ctx, config, plan, result); err != nil {
		return fail(err)
	}

	// Step 2: Compile and link
	if plan.upToDate {
		result.Skipped = true
	} else {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if err := steps.BuildFunc(ctx, config, plan, result); err != nil {
			return fail(err)
		}
	}

	// Step 3: Find the built module
	extensions, err := steps.FindFunc(plan)
	if err != nil {
		return fail(err)
	}
	if len(extensions) != 1 {
		return fail(&ToolchainError{
			Op:     "link",
			Target: desc.Name,
			Err:    ErrLinkFailed,
			Cause:  fmt.Errorf("expected one module in %s, found %d", plan.libDir, len(extensions)),
			Output: result.Output,
		})
	}

	installed, err := finalizeExtension(config, plan)
	if err != nil {
		result.Error = err
		return result, err
	}

	result.Artifact = plan.artifact
	result.Extensions = extensions
	result.Installed = installed
	result.Success = true
	return result, nil
}

// missingLibraries extracts the unresolved libraries from a link resolution failure.
func missingLibraries(err error) []string {
	var te *ToolchainError
	if !errors.As(err, &te) || !errors.Is(te.Err, ErrLinkResolution) {
		return nil
	}
	libs := unresolvedLibraries(te.Output)
	if len(libs) == 0 && te.Path != "" {
		libs = []string{te.Path}
	}
	return libs
}

func logf(config *BuildConfig, format string, args ...any) {
	if config.Logger != nil {
		config.Logger.Printf(format, args...)
	}
}
