package nativeext

import (
	"fmt"
	"strings"
)

// MatchesExtension checks if a filename has any of the given extensions.
//
// This is a case-insensitive check for file extensions, used by builders to
// pick up the sources they compile.
//
// # Example
//
//	if MatchesExtension(src, ".cpp", ".cc", ".cxx") {
//	    // C++ translation unit
//	}
func MatchesExtension(filename string, extensions ...string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// BuildError creates a standardized build error with output context.
//
// # Format
//
// With error and output:
//
//	C build failed: link tawny: link library not found: crypto
//
//	Build output:
//	/usr/bin/ld: cannot find -lcrypto: No such file or directory
//	collect2: error: ld returned 1 exit status
//
// With error but no output:
//
//	C build failed: preflight tawny: missing source file: pytawny.c
//
// The returned error wraps err, so errors.Is still sees the sentinel.
func BuildError(builder string, output []string, err error) error {
	outputStr := strings.TrimSpace(strings.Join(output, "\n"))

	var detail string
	if outputStr != "" {
		detail = "\n\nBuild output:\n" + outputStr
	}

	if err != nil {
		return fmt.Errorf("%s build failed: %w%s", builder, err, detail)
	}
	return fmt.Errorf("%s build failed%s", builder, detail)
}
