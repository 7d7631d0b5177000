package nativeext

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBuilderFactory(t *testing.T) {
	factory := NewBuilderFactory()

	// Test that all expected builders are registered
	builders := factory.ListBuilders()
	if len(builders) != 2 {
		t.Errorf("Expected 2 builders, got %d", len(builders))
	}

	// Test builder detection for each source mix
	testCases := []struct {
		name         string
		sources      []string
		expectedName string
	}{
		{"c", []string{"pytawny.c"}, "C"},
		{"c upper case", []string{"PYTAWNY.C"}, "C"},
		{"cpp", []string{"tawny.cpp"}, "C++"},
		{"cc", []string{"src/tawny.cc"}, "C++"},
		{"cxx", []string{"tawny.cxx"}, "C++"},
		{"mixed", []string{"pytawny.c", "cipher.cpp"}, "C++"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			builder, err := factory.BuilderFor(&Extension{Name: "tawny", Sources: tc.sources})
			if err != nil {
				t.Fatalf("Expected builder for %v, got error: %v", tc.sources, err)
			}

			if builder.Name() != tc.expectedName {
				t.Errorf("Expected builder %s for %v, got %s", tc.expectedName, tc.sources, builder.Name())
			}
		})
	}

	// Test unsupported sources
	if _, err := factory.BuilderFor(&Extension{Name: "tawny", Sources: []string{"tawny.rs"}}); err == nil {
		t.Error("Expected error for unsupported sources")
	}
	if _, err := factory.BuilderFor(nil); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("Expected ErrInvalidDescriptor for nil target, got %v", err)
	}
}

func TestBuilderDetection(t *testing.T) {
	testCases := []struct {
		name           string
		builder        Builder
		validSources   []string
		invalidSources []string
	}{
		{
			name:    "CBuilder",
			builder: NewCBuilder(),
			validSources: []string{
				"pytawny.c",
				"src/pytawny.c",
			},
			invalidSources: []string{
				"tawny.h",
				"tawny.cc",
				"tawny.cpp",
				"setup.py",
			},
		},
		{
			name:    "CxxBuilder",
			builder: NewCxxBuilder(),
			validSources: []string{
				"tawny.cpp",
				"tawny.cc",
				"tawny.cxx",
				"tawny.c++",
			},
			invalidSources: []string{
				"pytawny.c",
				"tawny.hpp",
				"tawny.o",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, src := range tc.validSources {
				if !tc.builder.CanBuild(&Extension{Sources: []string{src}}) {
					t.Errorf("%s should be able to build %s", tc.name, src)
				}
			}

			for _, src := range tc.invalidSources {
				if tc.builder.CanBuild(&Extension{Sources: []string{src}}) {
					t.Errorf("%s should not be able to build %s", tc.name, src)
				}
			}

			if tc.builder.CanBuild(nil) {
				t.Errorf("%s should not build a nil target", tc.name)
			}
		})
	}
}

func TestMatchesExtension(t *testing.T) {
	testCases := []struct {
		filename   string
		extensions []string
		expected   bool
	}{
		{"pytawny.c", []string{".c"}, true},
		{"PYTAWNY.C", []string{".c"}, true},
		{"tawny.cpp", []string{".cc", ".cpp"}, true},
		{"tawny.h", []string{".c", ".cpp"}, false},
		{"noext", []string{".c"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			result := MatchesExtension(tc.filename, tc.extensions...)
			if result != tc.expected {
				t.Errorf("MatchesExtension(%s, %v) = %v, expected %v",
					tc.filename, tc.extensions, result, tc.expected)
			}
		})
	}
}

func TestBuildError(t *testing.T) {
	output := []string{"line 1", "line 2", "error occurred"}
	err := BuildError("TestBuilder", output, nil)

	expected := "TestBuilder build failed\n\nBuild output:\nline 1\nline 2\nerror occurred"
	if err.Error() != expected {
		t.Errorf("BuildError output mismatch.\nExpected: %s\nGot: %s", expected, err.Error())
	}

	err = BuildError("C", nil, ErrLinkResolution)
	if !errors.Is(err, ErrLinkResolution) {
		t.Errorf("Expected BuildError to wrap the cause, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "C build failed: ") {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestBuildAllExtensions(t *testing.T) {
	factory := NewBuilderFactory()
	config := &BuildConfig{SourceDir: t.TempDir()}
	ctx := context.Background()

	// Test with no packages
	results, err := factory.BuildAll(ctx, config, nil)
	if err != nil {
		t.Errorf("Expected no error for empty package list, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 results for empty package list, got %d", len(results))
	}

	// Test with an invalid descriptor
	invalid := &Descriptor{Name: "tawny", Version: "not-a-version", Extensions: []*Extension{{Sources: []string{"pytawny.c"}}}}
	results, err = factory.BuildAll(ctx, config, []*Descriptor{invalid})
	if !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("Expected ErrInvalidDescriptor, got %v", err)
	}
	if len(results) != 1 || results[0].Success {
		t.Error("Expected 1 failed result for invalid descriptor")
	}
}

func TestBuildAllStopOnFailure(t *testing.T) {
	cc, _ := newFakeToolchain(t)
	dir, tawny := newTawnyPackage(t)

	owl := &Descriptor{
		Name:       "owl",
		Version:    "0.1.0",
		Extensions: []*Extension{{Name: "owl", Sources: []string{"owl.c"}}},
	}

	factory := NewBuilderFactory()
	ctx := context.Background()

	config := &BuildConfig{SourceDir: dir, CC: cc, StopOnFailure: true}
	results, err := factory.BuildAll(ctx, config, []*Descriptor{owl, tawny})
	if !errors.Is(err, ErrMissingSource) {
		t.Fatalf("Expected ErrMissingSource, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected processing to stop after owl, got %d results", len(results))
	}

	config.StopOnFailure = false
	results, err = factory.BuildAll(ctx, config, []*Descriptor{owl, tawny})
	if !errors.Is(err, ErrMissingSource) {
		t.Fatalf("Expected first error to be ErrMissingSource, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Success || !results[1].Success {
		t.Errorf("Expected owl to fail and tawny to succeed, got %v / %v", results[0].Error, results[1].Error)
	}
	if results[1].Package != "tawny" {
		t.Errorf("Expected second result for tawny, got %s", results[1].Package)
	}
}

func TestBuildAllCanceled(t *testing.T) {
	factory := NewBuilderFactory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	desc := &Descriptor{Name: "tawny", Version: "1.0.1", Extensions: []*Extension{{Sources: []string{"pytawny.c"}}}}
	results, err := factory.BuildAll(ctx, &BuildConfig{}, []*Descriptor{desc})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(results) != 1 || results[0].Success {
		t.Errorf("Expected one canceled result, got %+v", results)
	}
}
