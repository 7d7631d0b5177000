package nativeext

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
	"zombiezen.com/go/nix/nar"
)

// buildStamp records the inputs a module was last built from.
type buildStamp struct {
	Package     string `yaml:"package"`
	Version     string `yaml:"version"`
	Module      string `yaml:"module"`
	Fingerprint string `yaml:"fingerprint"`
}

// fingerprintInputs digests everything that affects the module: the
// descriptor, the resolved toolchain command lines and the contents of every
// declared source and dependency. Files are serialized as NAR so the digest
// covers content and the executable bit but not timestamps.
func fingerprintInputs(plan *buildPlan, compileArgs, linkArgs []string) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}

	desc, err := yaml.Marshal(plan.desc)
	if err != nil {
		return "", fmt.Errorf("marshaling descriptor: %w", err)
	}
	h.Write(desc)

	fmt.Fprintf(h, "compiler\x00%s\x00", strings.Join(plan.compiler, "\x00"))
	fmt.Fprintf(h, "compile\x00%s\x00", strings.Join(compileArgs, "\x00"))
	fmt.Fprintf(h, "link\x00%s\x00", strings.Join(linkArgs, "\x00"))
	fmt.Fprintf(h, "module\x00%s\x00", plan.artifact)

	inputs := append(append([]string{}, plan.ext.Sources...), plan.ext.Depends...)
	for _, input := range inputs {
		fmt.Fprintf(h, "file\x00%s\x00", input)
		if err := writeFileNAR(h, plan.resolve(input)); err != nil {
			return "", fmt.Errorf("hashing %s: %w", input, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeFileNAR serializes a single regular file as a NAR archive.
func writeFileNAR(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	nw := nar.NewWriter(w)
	if err := nw.WriteHeader(&nar.Header{
		Mode: info.Mode().Perm(),
		Size: info.Size(),
	}); err != nil {
		return err
	}
	if _, err := io.Copy(nw, f); err != nil {
		return err
	}
	return nw.Close()
}

// isUpToDate reports whether the module exists and was built from the
// plan's exact inputs.
func isUpToDate(plan *buildPlan) bool {
	if _, err := os.Stat(plan.artifact); err != nil {
		return false
	}

	stamp, err := readStamp(plan.stampPath())
	if err != nil {
		return false
	}

	return stamp.Fingerprint == plan.fingerprint && stamp.Module == plan.artifact
}

func readStamp(path string) (*buildStamp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var stamp buildStamp
	if err := yaml.Unmarshal(data, &stamp); err != nil {
		return nil, fmt.Errorf("parsing stamp: %w", err)
	}
	return &stamp, nil
}

func writeStamp(plan *buildPlan) error {
	data, err := yaml.Marshal(&buildStamp{
		Package:     plan.desc.Name,
		Version:     plan.desc.Version,
		Module:      plan.artifact,
		Fingerprint: plan.fingerprint,
	})
	if err != nil {
		return fmt.Errorf("marshaling stamp: %w", err)
	}

	if err := os.MkdirAll(plan.tempDir, 0o755); err != nil {
		return fmt.Errorf("creating stamp directory: %w", err)
	}
	if err := os.WriteFile(plan.stampPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing stamp: %w", err)
	}
	return nil
}
