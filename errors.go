package nativeext

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrMissingSource indicates a declared source file is absent
	ErrMissingSource = errors.New("missing source file")

	// ErrLinkResolution indicates the linker could not resolve a requested library
	ErrLinkResolution = errors.New("link library not found")

	// ErrToolchainUnavailable indicates the compiler or linker is not present
	ErrToolchainUnavailable = errors.New("toolchain unavailable")

	// ErrCompileFailed indicates the compiler rejected a source file
	ErrCompileFailed = errors.New("compilation failed")

	// ErrLinkFailed indicates the linker failed for a reason other than library resolution
	ErrLinkFailed = errors.New("link failed")

	// ErrInvalidDescriptor indicates the package descriptor is malformed
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// ToolchainError reports a fatal build failure for one extension target.
//
// Err is always one of the package sentinels, so callers can branch with
// errors.Is. Cause carries the underlying process or filesystem error.
type ToolchainError struct {
	Op     string   // Step that failed: "preflight", "compile", "link"
	Target string   // Extension name
	Path   string   // Offending source, library or tool, if known
	Err    error    // Sentinel classifying the failure
	Cause  error    // Underlying error, may be nil
	Output []string // Toolchain output captured up to the failure
}

func (e *ToolchainError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Target != "" {
		b.WriteString(" ")
		b.WriteString(e.Target)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (%v)", e.Cause)
	}
	return b.String()
}

func (e *ToolchainError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// linkResolutionPatterns match the "library not found" diagnostics of the
// common linkers. The first submatch is the library name.
var linkResolutionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`cannot find -l(\S+)`),                         // GNU ld, gold
	regexp.MustCompile(`library not found for -l(\S+)`),               // ld64
	regexp.MustCompile(`library '([^']+)' not found`),                 // ld-prime
	regexp.MustCompile(`unable to find library -l(\S+)`),              // lld
	regexp.MustCompile(`cannot open input file '([^']+?)(?:\.lib)?'`), // link.exe LNK1181
}

// unresolvedLibraries scans linker output for libraries the linker could not
// locate, in order of first appearance.
func unresolvedLibraries(output []string) []string {
	var libs []string
	for _, line := range output {
		for _, re := range linkResolutionPatterns {
			if m := re.FindStringSubmatch(line); len(m) > 1 {
				libs = append(libs, strings.Trim(m[1], `"':`))
				break
			}
		}
	}
	return uniqueStrings(libs)
}
