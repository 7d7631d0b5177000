package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BuildDir != "build" {
		t.Errorf("expected default build dir, got %q", cfg.BuildDir)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `cc: ccache clang
python: /usr/bin/python3
verbose: true
env:
  MACOSX_DEPLOYMENT_TARGET: "11.0"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.CC != "ccache clang" || cfg.Python != "/usr/bin/python3" || !cfg.Verbose {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.BuildDir != "build" {
		t.Errorf("expected unset build_dir to keep its default, got %q", cfg.BuildDir)
	}
	if cfg.Env["MACOSX_DEPLOYMENT_TARGET"] != "11.0" {
		t.Errorf("unexpected env %v", cfg.Env)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cc: [clang"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestDefaultPathFromEnvironment(t *testing.T) {
	t.Setenv("EXTBUILD_CONFIG", "/etc/extbuild.yaml")
	if got := DefaultPath(); got != "/etc/extbuild.yaml" {
		t.Errorf("DefaultPath() = %s", got)
	}
}
