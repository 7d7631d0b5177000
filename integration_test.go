package nativeext

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const integrationSource = `#include <math.h>

double tawny_round(double v)
{
	return floor(v + 0.5);
}
`

// newRealPackage writes a small C package and skips when no compiler is
// installed.
func newRealPackage(t *testing.T, linkArgs ...string) (string, *Descriptor) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping real toolchain build in short mode")
	}
	if runtime.GOOS == platformWindows {
		t.Skip("integration build needs a cc-compatible driver")
	}
	if err := NewCBuilder().CheckTools(); err != nil {
		t.Skipf("no C compiler available: %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pytawny.c"), []byte(integrationSource), 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	desc := &Descriptor{
		Name:    "tawny",
		Version: "1.0.1",
		Extensions: []*Extension{{
			Name:          "tawny",
			Sources:       []string{"pytawny.c"},
			ExtraLinkArgs: linkArgs,
		}},
	}
	return dir, desc
}

func TestIntegrationBuildWithSystemCompiler(t *testing.T) {
	dir, desc := newRealPackage(t, "-lm")

	result, err := NewBuilderFactory().Build(context.Background(), &BuildConfig{SourceDir: dir, Verbose: true}, desc)
	if err != nil {
		t.Fatalf("Build returned error: %v\n%s", err, BuildError("C", result.Output, nil))
	}

	info, err := os.Stat(result.Artifact)
	if err != nil {
		t.Fatalf("expected module at %s: %v", result.Artifact, err)
	}
	if info.Size() == 0 {
		t.Error("expected a non-empty module")
	}
	t.Logf("built %s (%d bytes)", result.Artifact, info.Size())
}

func TestIntegrationUnresolvableLibrary(t *testing.T) {
	dir, desc := newRealPackage(t, "-lnativeext_no_such_library")

	result, err := NewBuilderFactory().Build(context.Background(), &BuildConfig{SourceDir: dir}, desc)
	if !errors.Is(err, ErrLinkResolution) {
		t.Fatalf("expected ErrLinkResolution, got %v\n%s", err, BuildError("C", result.Output, nil))
	}

	if len(result.MissingDependencies) == 0 || result.MissingDependencies[0] != "nativeext_no_such_library" {
		t.Errorf("expected the missing library to be reported, got %v", result.MissingDependencies)
	}
	if entries := libEntries(t, dir); len(entries) != 0 {
		t.Errorf("expected no module, got %v", entries)
	}
}
