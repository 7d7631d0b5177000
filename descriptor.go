package nativeext

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// DescriptorFile is the conventional name of a package descriptor.
const DescriptorFile = "extension.yaml"

// Descriptor is the static description of a package and its native target.
//
// It mirrors the handful of fields a setup script declares:
//
//	name: tawny
//	version: 1.0.1
//	ext_modules:
//	  - name: tawny
//	    sources: [pytawny.c]
//	    extra_link_args: [-lcrypto]
//
// A Descriptor is created once at configuration time and is not modified by
// the builders.
type Descriptor struct {
	Name       string       `yaml:"name"`
	Version    string       `yaml:"version"`
	Extensions []*Extension `yaml:"ext_modules"`
}

// Extension is a native target: the sources compiled into one loadable
// module and the flags used to compile and link them.
type Extension struct {
	Name             string   `yaml:"name,omitempty"`
	Sources          []string `yaml:"sources"`
	Depends          []string `yaml:"depends,omitempty"`
	IncludeDirs      []string `yaml:"include_dirs,omitempty"`
	DefineMacros     []Macro  `yaml:"define_macros,omitempty"`
	LibraryDirs      []string `yaml:"library_dirs,omitempty"`
	Libraries        []string `yaml:"libraries,omitempty"`
	ExtraCompileArgs []string `yaml:"extra_compile_args,omitempty"`
	ExtraLinkArgs    []string `yaml:"extra_link_args,omitempty"`
}

// Macro is a preprocessor definition. An empty Value defines the name without
// a value (-DNAME).
type Macro struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value,omitempty"`
}

var moduleNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadDescriptor reads and validates a descriptor file.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}
	desc, err := ParseDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

// ParseDescriptor decodes and validates a YAML descriptor.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if ext := desc.Target(); ext.Name == "" {
		ext.Name = desc.Name
	}
	return &desc, nil
}

// Validate checks the descriptor invariants: a module-safe name, a semantic
// version and exactly one target named after the package.
//
// A target with no name stands for the package name; ParseDescriptor fills
// it in. Validate itself never modifies the descriptor.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}
	if !moduleNamePattern.MatchString(d.Name) {
		return fmt.Errorf("%w: name %q is not an importable module name", ErrInvalidDescriptor, d.Name)
	}
	if d.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidDescriptor)
	}
	if _, err := semver.NewVersion(d.Version); err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrInvalidDescriptor, d.Version, err)
	}

	if len(d.Extensions) != 1 {
		return fmt.Errorf("%w: expected exactly one native target, got %d", ErrInvalidDescriptor, len(d.Extensions))
	}

	ext := d.Extensions[0]
	if ext == nil {
		return fmt.Errorf("%w: empty native target", ErrInvalidDescriptor)
	}
	if ext.Name != "" && ext.Name != d.Name {
		return fmt.Errorf("%w: target %q does not match package name %q", ErrInvalidDescriptor, ext.Name, d.Name)
	}
	if len(ext.Sources) == 0 {
		return fmt.Errorf("%w: target %q declares no sources", ErrInvalidDescriptor, d.Name)
	}
	for _, src := range ext.Sources {
		if src == "" {
			return fmt.Errorf("%w: target %q has an empty source path", ErrInvalidDescriptor, d.Name)
		}
	}
	for _, m := range ext.DefineMacros {
		if m.Name == "" {
			return fmt.Errorf("%w: target %q has a macro without a name", ErrInvalidDescriptor, d.Name)
		}
	}

	return nil
}

// Target returns the single native target. Call Validate first.
func (d *Descriptor) Target() *Extension {
	if len(d.Extensions) == 0 {
		return nil
	}
	return d.Extensions[0]
}

// Save writes the descriptor as YAML.
func (d *Descriptor) Save(path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling descriptor: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating descriptor directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing descriptor: %w", err)
	}

	return nil
}

// ArchiveName returns the base name used for source distributions,
// e.g. "tawny-1.0.1".
func (d *Descriptor) ArchiveName() string {
	return fmt.Sprintf("%s-%s", d.Name, d.Version)
}
