package nativeext

import (
	"fmt"
	"os/exec"
	"strings"
)

// ToolChecker is implemented by builders that drive external programs.
//
// Callers can verify the toolchain before a build starts:
//
//	if checker, ok := builder.(ToolChecker); ok {
//	    if err := checker.CheckTools(); err != nil {
//	        return err // wraps ErrToolchainUnavailable
//	    }
//	}
type ToolChecker interface {
	// RequiredTools lists the programs the builder runs.
	RequiredTools() []ToolRequirement

	// CheckTools returns nil when every required program is in PATH.
	CheckTools() error
}

// ToolRequirement is one program a build needs. It is satisfied when Name or
// any of its Alternatives resolves in PATH; cc is clang on macOS and FreeBSD
// and usually gcc on Linux.
type ToolRequirement struct {
	Name         string
	Alternatives []string
	Purpose      string // shown next to the name when missing
}

// label names the requirement in error messages.
func (r ToolRequirement) label() string {
	if r.Purpose == "" {
		return r.Name
	}
	return fmt.Sprintf("%s (%s)", r.Name, r.Purpose)
}

// satisfied reports whether Name or an alternative is available.
func (r ToolRequirement) satisfied() bool {
	for _, tool := range append([]string{r.Name}, r.Alternatives...) {
		if CheckToolAvailable(tool) == nil {
			return true
		}
	}
	return false
}

// CheckToolAvailable checks if a tool is available in the system PATH.
//
// The tool may also be a path to an executable. The returned error wraps
// ErrToolchainUnavailable.
func CheckToolAvailable(tool string) error {
	_, err := exec.LookPath(tool)
	if err != nil {
		return fmt.Errorf("%w: %s not found in PATH", ErrToolchainUnavailable, tool)
	}
	return nil
}

// CheckRequiredTools reports every unsatisfied requirement in one error:
//
//	toolchain unavailable: cc (C compiler and linker) not found in PATH
//	toolchain unavailable: missing required tools: cc (C compiler), python3
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missing []string
	for _, req := range requirements {
		if !req.satisfied() {
			missing = append(missing, req.label())
		}
	}

	switch len(missing) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%w: %s not found in PATH", ErrToolchainUnavailable, missing[0])
	default:
		return fmt.Errorf("%w: missing required tools: %s", ErrToolchainUnavailable, strings.Join(missing, ", "))
	}
}
