package nativeext

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"
)

// Sdist writes a source distribution of the package to distDir and returns
// the archive path.
//
// The archive is <name>-<version>.tar.xz with everything under a
// <name>-<version>/ prefix: the descriptor as extension.yaml plus every
// declared source and dependency. A missing input fails with ErrMissingSource
// and leaves no archive behind.
func Sdist(config *BuildConfig, desc *Descriptor, distDir string) (string, error) {
	if err := desc.Validate(); err != nil {
		return "", err
	}

	plan, err := newBuildPlan(config, desc)
	if err != nil {
		return "", err
	}
	ext := desc.Target()

	if distDir == "" {
		distDir = "dist"
	}
	if !filepath.IsAbs(distDir) {
		distDir = filepath.Join(plan.sourceDir, distDir)
	}

	inputs := uniqueStrings(append(append([]string{}, ext.Sources...), ext.Depends...))
	for _, input := range inputs {
		if info, err := os.Stat(plan.resolve(input)); err != nil || !info.Mode().IsRegular() {
			return "", fmt.Errorf("%w: %s", ErrMissingSource, input)
		}
	}

	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return "", fmt.Errorf("creating dist directory: %w", err)
	}

	archive := filepath.Join(distDir, desc.ArchiveName()+".tar.xz")
	tmp := archive + ".tmp"

	if err := writeSdist(tmp, plan, inputs); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, archive); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("moving archive into place: %w", err)
	}

	logf(config, "wrote %s", archive)
	return archive, nil
}

func writeSdist(archive string, plan *buildPlan, inputs []string) error {
	f, err := os.Create(archive)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	xw, err := xz.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)

	prefix := plan.desc.ArchiveName()

	descData, err := yaml.Marshal(plan.desc)
	if err != nil {
		return fmt.Errorf("marshaling descriptor: %w", err)
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:     path.Join(prefix, DescriptorFile),
		Mode:     0o644,
		Size:     int64(len(descData)),
		Typeflag: tar.TypeReg,
	}); err != nil {
		return err
	}
	if _, err := tw.Write(descData); err != nil {
		return err
	}

	for _, input := range inputs {
		name := path.Join(prefix, filepath.ToSlash(safeRelativePath(input)))
		if err := addTarFile(tw, plan.resolve(input), name); err != nil {
			return fmt.Errorf("adding %s: %w", input, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar stream: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("closing xz stream: %w", err)
	}
	return f.Close()
}

func addTarFile(tw *tar.Writer, src, name string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, in)
	return err
}
