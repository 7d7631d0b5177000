// Package nativeext compiles a package's native sources into a single
// loadable extension module.
//
// A package is described declaratively: a name, a version and one native
// target listing its sources and the extra arguments passed to the linker.
// The builders turn that description into compiler and linker invocations
// and produce one module named after the package.
//
// # Basic Usage
//
//	desc, err := nativeext.LoadDescriptor("extension.yaml")
//	if err != nil {
//	    return err
//	}
//
//	factory := nativeext.NewBuilderFactory()
//	result, err := factory.Build(ctx, &nativeext.BuildConfig{SourceDir: "."}, desc)
//	switch {
//	case errors.Is(err, nativeext.ErrMissingSource):
//	    // a declared source file is absent
//	case errors.Is(err, nativeext.ErrLinkResolution):
//	    // result.MissingDependencies names the libraries the linker could not find
//	case errors.Is(err, nativeext.ErrToolchainUnavailable):
//	    // no compiler/linker
//	}
//
// # Descriptor
//
//	name: tawny
//	version: 1.0.1
//	ext_modules:
//	  - name: tawny
//	    sources: [pytawny.c]
//	    extra_link_args: [-lcrypto]
//
// # Architecture
//
//	BuilderFactory
//	├── C++ builder (.cpp, .cc, .cxx)
//	└── C builder (.c)
//
// Every build runs configure, build and find steps. Configure checks the
// descriptor, the sources and the compiler, and skips the build when the
// input fingerprint matches the last successful build. Build compiles each
// source into <build>/temp and links <build>/lib/<name><suffix>. A failed
// build never leaves a module behind.
//
// # Platform Support
//
// Linux and macOS with a cc-compatible driver. Windows through MinGW/MSYS2.
package nativeext
