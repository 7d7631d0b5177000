package nativeext

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// finalizeExtension copies the built module into config.DestPath, the
// directory the consuming interpreter imports native modules from, and
// returns the installed path. Nothing is copied when DestPath is empty.
func finalizeExtension(config *BuildConfig, plan *buildPlan) ([]string, error) {
	if config.DestPath == "" || plan.artifact == "" {
		return nil, nil
	}

	dest := config.DestPath
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(plan.sourceDir, dest)
	}
	dest = filepath.Join(filepath.Clean(dest), filepath.Base(plan.artifact))

	if dest == plan.artifact {
		return []string{dest}, nil
	}

	if err := copyFile(plan.artifact, dest); err != nil {
		return nil, fmt.Errorf("installing %s: %w", filepath.Base(plan.artifact), err)
	}

	logf(config, "installed %s", dest)
	return []string{dest}, nil
}

// copyFile copies srcPath to destPath through a temporary file in the
// destination directory, so a concurrent importer never sees a partial module.
func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(destPath)
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return mkErr
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	tmpPath := destPath + ".tmp"
	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, destPath)
}

func safeRelativePath(path string) string {
	clean := filepath.Clean(path)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return clean
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}
