package nativeext

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFinalizeExtensionCopiesModule(t *testing.T) {
	srcDir := t.TempDir()
	libDir := filepath.Join(srcDir, "build", "lib")

	if err := os.MkdirAll(libDir, 0o755); err != nil {
		t.Fatalf("failed to create lib directory: %v", err)
	}

	modulePath := filepath.Join(libDir, "tawny.so")
	if err := os.WriteFile(modulePath, []byte("binary"), 0o755); err != nil {
		t.Fatalf("failed to write module: %v", err)
	}

	plan := &buildPlan{sourceDir: srcDir, libDir: libDir, artifact: modulePath}
	config := &BuildConfig{DestPath: filepath.Join("venv", "site-packages")}

	installed, err := finalizeExtension(config, plan)
	if err != nil {
		t.Fatalf("finalizeExtension returned error: %v", err)
	}

	expected := filepath.Join(srcDir, "venv", "site-packages", "tawny.so")
	if len(installed) != 1 || installed[0] != expected {
		t.Fatalf("expected installed paths [%s], got %v", expected, installed)
	}

	data, err := os.ReadFile(expected)
	if err != nil {
		t.Fatalf("expected module copied to %s: %v", expected, err)
	}
	if string(data) != "binary" {
		t.Errorf("unexpected module contents %q", data)
	}

	if _, err := os.Stat(expected + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("expected no temporary file left behind, stat err = %v", err)
	}
}

func TestFinalizeExtensionWithoutDestPath(t *testing.T) {
	plan := &buildPlan{artifact: filepath.Join(t.TempDir(), "tawny.so")}

	installed, err := finalizeExtension(&BuildConfig{}, plan)
	if err != nil {
		t.Fatalf("finalizeExtension returned error: %v", err)
	}
	if installed != nil {
		t.Errorf("expected nothing installed, got %v", installed)
	}
}

func TestFinalizeExtensionIntoLibDir(t *testing.T) {
	libDir := t.TempDir()
	modulePath := filepath.Join(libDir, "tawny.so")
	if err := os.WriteFile(modulePath, []byte("binary"), 0o755); err != nil {
		t.Fatalf("failed to write module: %v", err)
	}

	plan := &buildPlan{sourceDir: libDir, libDir: libDir, artifact: modulePath}
	installed, err := finalizeExtension(&BuildConfig{DestPath: libDir}, plan)
	if err != nil {
		t.Fatalf("finalizeExtension returned error: %v", err)
	}
	if len(installed) != 1 || installed[0] != modulePath {
		t.Errorf("expected the module itself, got %v", installed)
	}
}

func TestSafeRelativePath(t *testing.T) {
	testCases := []struct {
		path     string
		expected string
	}{
		{"pytawny.c", "pytawny.c"},
		{"src/./cipher.c", filepath.Join("src", "cipher.c")},
		{"../tawny.h", "tawny.h"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			if got := safeRelativePath(tc.path); got != tc.expected {
				t.Errorf("safeRelativePath(%s) = %s, expected %s", tc.path, got, tc.expected)
			}
		})
	}
}
