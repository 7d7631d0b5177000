package nativeext

import (
	"context"
	"fmt"
)

// BuilderFactory manages the registration and selection of extension builders.
//
// # Usage
//
// Create a factory with the standard builders:
//
//	factory := nativeext.NewBuilderFactory()
//
// Or create an empty factory and register custom builders:
//
//	factory := &nativeext.BuilderFactory{}
//	factory.Register(nativeext.NewCBuilder())
//
// # Builder Selection
//
// The factory calls CanBuild() on each registered builder in order and uses
// the first one that accepts the target.
//
// # Thread Safety
//
// BuilderFactory is NOT thread-safe for registration.
// Register all builders before concurrent use.
type BuilderFactory struct {
	builders []Builder
}

// NewBuilderFactory creates a factory with all standard builders registered.
//
// The C++ builder comes first so a target mixing C and C++ sources is
// linked by the C++ driver.
func NewBuilderFactory() *BuilderFactory {
	factory := &BuilderFactory{}

	factory.Register(NewCxxBuilder())
	factory.Register(NewCBuilder())

	return factory
}

// Register adds a new builder to the factory.
//
// Not thread-safe. Register all builders before concurrent use.
func (f *BuilderFactory) Register(builder Builder) {
	f.builders = append(f.builders, builder)
}

// BuilderFor returns the first builder that can handle the target.
func (f *BuilderFactory) BuilderFor(ext *Extension) (Builder, error) {
	if ext == nil {
		return nil, fmt.Errorf("%w: no native target", ErrInvalidDescriptor)
	}

	for _, builder := range f.builders {
		if builder.CanBuild(ext) {
			return builder, nil
		}
	}

	return nil, fmt.Errorf("no builder found for target %s (sources: %v)", ext.Name, ext.Sources)
}

// ListBuilders returns a copy of all registered builders.
func (f *BuilderFactory) ListBuilders() []Builder {
	return append([]Builder{}, f.builders...)
}

// Build validates the descriptor, picks a builder and builds the package.
func (f *BuilderFactory) Build(ctx context.Context, config *BuildConfig, desc *Descriptor) (*BuildResult, error) {
	if err := desc.Validate(); err != nil {
		return &BuildResult{Package: desc.Name, Error: err}, err
	}

	builder, err := f.BuilderFor(desc.Target())
	if err != nil {
		return &BuildResult{Package: desc.Name, Error: err}, err
	}

	logf(config, "building %s %s with %s builder", desc.Name, desc.Version, builder.Name())
	return builder.Build(ctx, config, desc)
}

// Clean removes build outputs for the package.
func (f *BuilderFactory) Clean(ctx context.Context, config *BuildConfig, desc *Descriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	builder, err := f.BuilderFor(desc.Target())
	if err != nil {
		return err
	}

	return builder.Clean(ctx, config, desc)
}

// BuildAll builds packages in sequence.
//
// # Return Values
//
// Returns one BuildResult per processed package and the first error
// encountered. Results are returned even when an error is.
//
// # Error Handling
//
// If config.StopOnFailure is true, processing stops after the first failed
// package. Otherwise every package is attempted.
//
// # Context Cancellation
//
// If the context is canceled, processing stops before the next package and a
// BuildResult carrying the context error is added.
func (f *BuilderFactory) BuildAll(ctx context.Context, config *BuildConfig, descs []*Descriptor) ([]*BuildResult, error) {
	if len(descs) == 0 {
		return nil, nil
	}

	var results []*BuildResult
	var firstError error

	for _, desc := range descs {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if firstError == nil {
				firstError = ctxErr
			}
			results = append(results, &BuildResult{
				Package: desc.Name,
				Success: false,
				Error:   ctxErr,
			})
			break
		}

		result, err := f.Build(ctx, config, desc)
		if err != nil {
			if firstError == nil {
				firstError = err
			}
			if result == nil {
				result = &BuildResult{
					Package: desc.Name,
					Success: false,
					Error:   err,
				}
			}
		}

		results = append(results, result)

		if !result.Success && config.StopOnFailure {
			break
		}
	}

	return results, firstError
}
