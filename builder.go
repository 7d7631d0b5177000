package nativeext

import "context"

// Builder defines the interface that all extension builders must implement.
//
// Each builder is responsible for one toolchain family (C, C++) and must
// implement these methods to integrate with the BuilderFactory.
//
// # Builder Lifecycle
//
//  1. CanBuild() - Factory calls this to find the right builder for a target
//  2. Build() - Factory calls this to compile and link the module
//  3. Clean() - Removal of build outputs
//
// # Example Implementation
//
//	type FortranBuilder struct{}
//
//	func (b *FortranBuilder) Name() string {
//	    return "Fortran"
//	}
//
//	func (b *FortranBuilder) CanBuild(ext *Extension) bool {
//	    return len(ext.Sources) > 0 && MatchesExtension(ext.Sources[0], ".f90")
//	}
//
// # Thread Safety
//
// Builder implementations should be stateless. Two builds of different
// packages may run concurrently as long as their build directories differ.
type Builder interface {
	// Name returns the human-readable name of this builder.
	//
	// Examples: "C", "C++"
	Name() string

	// CanBuild checks if this builder can handle the given native target.
	CanBuild(ext *Extension) bool

	// Build compiles the package's native target and returns the result.
	//
	// Relative paths in the descriptor resolve against config.SourceDir.
	//
	// Returns:
	//   - BuildResult with Success=true and Artifact set on success
	//   - BuildResult with Success=false and a *ToolchainError on failure
	Build(ctx context.Context, config *BuildConfig, desc *Descriptor) (*BuildResult, error)

	// Clean removes build outputs for the package.
	//
	// Returns nil when there is nothing to clean.
	Clean(ctx context.Context, config *BuildConfig, desc *Descriptor) error
}
