package nativeext

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"

	"github.com/magefile/mage/sh"
)

// pythonProbeScript prints the interpreter's C header directory and its
// extension module suffix, one per line.
const pythonProbeScript = `import sysconfig
print(sysconfig.get_paths()["include"])
print(sysconfig.get_config_var("EXT_SUFFIX") or "")`

// pythonInfo is what the builder needs to know about the consuming interpreter.
type pythonInfo struct {
	IncludeDir string
	ExtSuffix  string
}

// probePython asks the interpreter where Python.h lives and which file
// suffix it imports extension modules from.
func probePython(python string) (*pythonInfo, error) {
	var stdout, stderr bytes.Buffer
	ran, err := sh.Exec(nil, &stdout, &stderr, python, "-c", pythonProbeScript)
	if err != nil {
		if !ran {
			return nil, fmt.Errorf("%s not found in PATH", python)
		}
		return nil, fmt.Errorf("probing %s: %w: %s", python, err, strings.TrimSpace(stderr.String()))
	}

	out := strings.ReplaceAll(stdout.String(), "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("probing %s: no include directory reported", python)
	}

	info := &pythonInfo{IncludeDir: strings.TrimSpace(lines[0])}
	if len(lines) > 1 {
		info.ExtSuffix = strings.TrimSpace(lines[1])
	}
	return info, nil
}

// extSuffix picks the module suffix: explicit config first, then the probed
// interpreter, then the platform default.
func extSuffix(config *BuildConfig, info *pythonInfo) string {
	if config.ExtSuffix != "" {
		return config.ExtSuffix
	}
	if info != nil && info.ExtSuffix != "" {
		return info.ExtSuffix
	}
	return defaultExtSuffix()
}

func defaultExtSuffix() string {
	if runtime.GOOS == platformWindows {
		return ".pyd"
	}
	return ".so"
}
