package nativeext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const platformWindows = "windows"

// CompilerBuilder compiles an extension's sources with a C-family compiler
// driver and links the objects into a single loadable module.
//
// # Build Steps
//
//  1. Configure: validate the descriptor, check the compiler, check that every
//     declared source exists and skip the build when nothing changed
//  2. Build: one "-c" invocation per source, then one shared link
//  3. Find: report <build>/lib/<name><suffix>
//
// The same driver is used for compiling and linking, the way setuptools
// drives cc for both.
type CompilerBuilder struct {
	name         string
	extensions   []string
	compiler     string
	alternatives []string
	envVar       string
}

// CompilerBuilderConfig defines a CompilerBuilder.
type CompilerBuilderConfig struct {
	// Name is the human-readable builder name (e.g., "C", "C++")
	Name string

	// SourceExtensions selects this builder when any source has one of them
	SourceExtensions []string

	// Compiler is the default driver, Alternatives are tried in order when
	// it is not in PATH
	Compiler     string
	Alternatives []string

	// EnvVar names the environment variable that overrides the driver (CC, CXX)
	EnvVar string
}

// NewCompilerBuilder creates a CompilerBuilder from configuration.
func NewCompilerBuilder(config *CompilerBuilderConfig) *CompilerBuilder {
	return &CompilerBuilder{
		name:         config.Name,
		extensions:   config.SourceExtensions,
		compiler:     config.Compiler,
		alternatives: config.Alternatives,
		envVar:       config.EnvVar,
	}
}

// NewCBuilder creates a builder for C extensions.
func NewCBuilder() *CompilerBuilder {
	return NewCompilerBuilder(&CompilerBuilderConfig{
		Name:             "C",
		SourceExtensions: []string{".c"},
		Compiler:         "cc",
		Alternatives:     []string{"gcc", "clang"},
		EnvVar:           "CC",
	})
}

// NewCxxBuilder creates a builder for C++ extensions. Mixed C and C++
// targets are linked with the C++ driver.
func NewCxxBuilder() *CompilerBuilder {
	return NewCompilerBuilder(&CompilerBuilderConfig{
		Name:             "C++",
		SourceExtensions: []string{".cpp", ".cc", ".cxx", ".c++"},
		Compiler:         "c++",
		Alternatives:     []string{"g++", "clang++"},
		EnvVar:           "CXX",
	})
}

// Name returns the builder name
func (b *CompilerBuilder) Name() string {
	return b.name
}

// RequiredTools returns the compiler driver requirement
func (b *CompilerBuilder) RequiredTools() []ToolRequirement {
	if cmd := strings.Fields(os.Getenv(b.envVar)); len(cmd) > 0 {
		return []ToolRequirement{{Name: cmd[0], Purpose: b.name + " compiler from $" + b.envVar}}
	}
	return []ToolRequirement{{
		Name:         b.compiler,
		Alternatives: b.alternatives,
		Purpose:      b.name + " compiler and linker",
	}}
}

// CheckTools verifies that the compiler driver is available
func (b *CompilerBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild reports whether any of the target's sources belongs to this builder
func (b *CompilerBuilder) CanBuild(ext *Extension) bool {
	if ext == nil {
		return false
	}
	for _, src := range ext.Sources {
		if MatchesExtension(src, b.extensions...) {
			return true
		}
	}
	return false
}

// Build compiles and links the package's extension module
func (b *CompilerBuilder) Build(ctx context.Context, config *BuildConfig, desc *Descriptor) (*BuildResult, error) {
	return runCommonBuild(ctx, config, desc, CommonBuildSteps{
		ConfigureFunc: b.configure,
		BuildFunc:     b.compileAndLink,
		FindFunc:      b.findBuiltExtensions,
	})
}

// Clean removes the objects, the stamp and the module
func (b *CompilerBuilder) Clean(ctx context.Context, config *BuildConfig, desc *Descriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	plan, err := newBuildPlan(config, desc)
	if err != nil {
		return err
	}
	plan.ext = desc.Target()
	plan.setSuffix(extSuffix(config, nil))

	for _, src := range plan.ext.Sources {
		if err := os.Remove(plan.objectPath(src)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing object for %s: %w", src, err)
		}
	}

	// Any previously installed suffix variant of the module goes too
	for _, module := range plan.modules() {
		if err := os.Remove(module); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", module, err)
		}
	}
	plan.discard()

	logf(config, "cleaned %s", desc.Name)
	return nil
}

// configure validates the request and decides whether a rebuild is needed
func (b *CompilerBuilder) configure(ctx context.Context, config *BuildConfig, plan *buildPlan, result *BuildResult) error {
	if err := plan.desc.Validate(); err != nil {
		return err
	}
	plan.ext = plan.desc.Target()
	plan.setSuffix(extSuffix(config, nil))

	if config.CleanFirst {
		if err := b.Clean(ctx, config, plan.desc); err != nil {
			return err
		}
	}

	objects := make(map[string]string, len(plan.ext.Sources))
	for _, src := range plan.ext.Sources {
		object := plan.objectPath(src)
		if prev, ok := objects[object]; ok {
			return fmt.Errorf("%w: sources %s and %s compile to the same object %s",
				ErrInvalidDescriptor, prev, src, filepath.Base(object))
		}
		objects[object] = src
	}

	// Declared inputs must exist before any tool runs
	inputs := append(append([]string{}, plan.ext.Sources...), plan.ext.Depends...)
	for _, input := range inputs {
		info, err := os.Stat(plan.resolve(input))
		if err != nil || !info.Mode().IsRegular() {
			return &ToolchainError{
				Op:     "preflight",
				Target: plan.desc.Name,
				Path:   input,
				Err:    ErrMissingSource,
				Cause:  err,
			}
		}
	}

	compiler, err := b.resolveCompiler(config)
	if err != nil {
		return &ToolchainError{
			Op:     "preflight",
			Target: plan.desc.Name,
			Err:    ErrToolchainUnavailable,
			Cause:  err,
		}
	}
	plan.compiler = compiler

	if config.PythonPath != "" {
		info, err := probePython(config.PythonPath)
		if err != nil {
			return &ToolchainError{
				Op:     "preflight",
				Target: plan.desc.Name,
				Path:   config.PythonPath,
				Err:    ErrToolchainUnavailable,
				Cause:  err,
			}
		}
		plan.pythonInclude = info.IncludeDir
		plan.setSuffix(extSuffix(config, info))
	}

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("%s builder using %s", b.name, strings.Join(plan.compiler, " ")),
			fmt.Sprintf("Module: %s", plan.artifact))
	}

	fingerprint, err := fingerprintInputs(plan, b.compileArgs(config, plan, "", ""), b.linkArgs(config, plan, nil, ""))
	if err != nil {
		return fmt.Errorf("fingerprinting inputs: %w", err)
	}
	plan.fingerprint = fingerprint

	if !config.Force && isUpToDate(plan) {
		plan.upToDate = true
		logf(config, "skipping %s (up to date)", plan.desc.Name)
	}

	return nil
}

// compileAndLink compiles every source and links the objects into the module
func (b *CompilerBuilder) compileAndLink(ctx context.Context, config *BuildConfig, plan *buildPlan, result *BuildResult) error {
	objects := make([]string, 0, len(plan.ext.Sources))

	for _, src := range plan.ext.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		object := plan.objectPath(src)
		if err := os.MkdirAll(filepath.Dir(object), 0o755); err != nil {
			return fmt.Errorf("creating object directory: %w", err)
		}

		logf(config, "compiling %s", src)
		args := b.compileArgs(config, plan, plan.resolve(src), object)
		output, ran, err := b.run(ctx, config, plan.compiler, args, result)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			te := &ToolchainError{
				Op:     "compile",
				Target: plan.desc.Name,
				Path:   src,
				Err:    ErrCompileFailed,
				Cause:  err,
				Output: output,
			}
			if !ran {
				te.Path = plan.compiler[0]
				te.Err = ErrToolchainUnavailable
			}
			return te
		}
		objects = append(objects, object)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(plan.libDir, 0o755); err != nil {
		return fmt.Errorf("creating module directory: %w", err)
	}

	// Link into a temporary name so a failed link never leaves a module behind
	tmp := plan.artifact + ".tmp"
	_ = os.Remove(tmp)

	logf(config, "linking %s", filepath.Base(plan.artifact))
	output, ran, err := b.run(ctx, config, plan.compiler, b.linkArgs(config, plan, objects, tmp), result)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			_ = os.Remove(tmp)
			return ctxErr
		}
		te := &ToolchainError{
			Op:     "link",
			Target: plan.desc.Name,
			Err:    ErrLinkFailed,
			Cause:  err,
			Output: output,
		}
		switch libs := unresolvedLibraries(output); {
		case !ran:
			te.Path = plan.compiler[0]
			te.Err = ErrToolchainUnavailable
		case len(libs) > 0:
			te.Path = libs[0]
			te.Err = ErrLinkResolution
		}
		return te
	}

	if _, err := os.Stat(tmp); err != nil {
		return &ToolchainError{
			Op:     "link",
			Target: plan.desc.Name,
			Err:    ErrLinkFailed,
			Cause:  fmt.Errorf("linker produced no output: %w", err),
			Output: output,
		}
	}
	if err := os.Rename(tmp, plan.artifact); err != nil {
		return fmt.Errorf("moving module into place: %w", err)
	}

	return writeStamp(plan)
}

// run executes one toolchain command, capturing its combined output into the
// result. Arguments reach the tool verbatim. ran is false when the command
// could not be started at all.
func (b *CompilerBuilder) run(ctx context.Context, config *BuildConfig, compiler, args []string, result *BuildResult) (output []string, ran bool, err error) {
	argv := append(append([]string{}, compiler[1:]...), args...)

	if config.Verbose {
		result.Output = append(result.Output, fmt.Sprintf("Running: %s %s", compiler[0], strings.Join(argv, " ")))
	}

	cmd := exec.CommandContext(ctx, compiler[0], argv...)
	// Drivers fork cc1 and ld; don't wait on their pipes once ctx is done
	cmd.WaitDelay = time.Second

	cmd.Env = os.Environ()
	for key, value := range config.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err = cmd.Run()

	output = splitOutput(buf.String())
	result.Output = append(result.Output, output...)

	var exitErr *exec.ExitError
	ran = err == nil || errors.As(err, &exitErr)
	return output, ran, err
}

// resolveCompiler picks the compiler driver: BuildConfig.CC, then the
// builder's environment variable, then the default and its alternatives.
func (b *CompilerBuilder) resolveCompiler(config *BuildConfig) ([]string, error) {
	if cmd := strings.Fields(config.CC); len(cmd) > 0 {
		if err := CheckToolAvailable(cmd[0]); err != nil {
			return nil, err
		}
		return cmd, nil
	}

	if cmd := strings.Fields(os.Getenv(b.envVar)); len(cmd) > 0 {
		if err := CheckToolAvailable(cmd[0]); err != nil {
			return nil, err
		}
		return cmd, nil
	}

	for _, candidate := range append([]string{b.compiler}, b.alternatives...) {
		if CheckToolAvailable(candidate) == nil {
			return []string{candidate}, nil
		}
	}

	return nil, b.CheckTools()
}

// compileArgs builds the arguments for compiling src into object.
func (b *CompilerBuilder) compileArgs(config *BuildConfig, plan *buildPlan, src, object string) []string {
	var args []string

	if runtime.GOOS != platformWindows {
		args = append(args, "-fPIC")
	}

	for _, m := range plan.ext.DefineMacros {
		if m.Value == "" {
			args = append(args, "-D"+m.Name)
		} else {
			args = append(args, fmt.Sprintf("-D%s=%s", m.Name, m.Value))
		}
	}

	for _, dir := range plan.ext.IncludeDirs {
		args = append(args, "-I"+plan.resolve(dir))
	}
	if plan.pythonInclude != "" {
		args = append(args, "-I"+plan.pythonInclude)
	}

	args = append(args, "-c", src, "-o", object)
	args = append(args, plan.ext.ExtraCompileArgs...)
	args = append(args, config.CompileArgs...)

	return args
}

// linkArgs builds the arguments for linking objects into output. Extra link
// arguments follow the output, matching distutils' ordering.
func (b *CompilerBuilder) linkArgs(config *BuildConfig, plan *buildPlan, objects []string, output string) []string {
	args := sharedLinkFlags()
	args = append(args, objects...)

	for _, dir := range plan.ext.LibraryDirs {
		args = append(args, "-L"+plan.resolve(dir))
	}
	for _, lib := range plan.ext.Libraries {
		args = append(args, "-l"+lib)
	}

	args = append(args, "-o", output)
	args = append(args, plan.ext.ExtraLinkArgs...)
	args = append(args, config.LinkArgs...)

	return args
}

// findBuiltExtensions locates the compiled module in the lib directory
func (b *CompilerBuilder) findBuiltExtensions(plan *buildPlan) ([]string, error) {
	info, err := os.Stat(plan.artifact)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", plan.artifact)
	}

	relPath, err := filepath.Rel(plan.libDir, plan.artifact)
	if err != nil {
		return nil, err
	}
	return []string{filepath.ToSlash(relPath)}, nil
}

// objectPath maps a source to its object file under the temp directory. The
// source suffix is kept (pytawny.c.o) and parent references become "__",
// so pytawny.c, pytawny.cpp and ../pytawny.c get distinct objects.
func (p *buildPlan) objectPath(src string) string {
	rel := filepath.Clean(src)
	if filepath.IsAbs(rel) {
		rel = filepath.Base(rel)
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, part := range parts {
		if part == ".." {
			parts[i] = "__"
		}
	}
	return filepath.Join(p.tempDir, filepath.FromSlash(strings.Join(parts, "/"))+objectSuffix())
}

func sharedLinkFlags() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"-bundle", "-undefined", "dynamic_lookup"}
	default:
		return []string{"-shared"}
	}
}

func objectSuffix() string {
	if runtime.GOOS == platformWindows {
		return ".obj"
	}
	return ".o"
}

func splitOutput(output string) []string {
	output = strings.TrimRight(output, "\n")
	if output == "" {
		return nil
	}
	return strings.Split(output, "\n")
}
