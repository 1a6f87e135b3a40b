package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// FpcalcNames returns the executable names fpcalc is distributed under on this platform.
func FpcalcNames() []string {
	if runtime.GOOS == "windows" {
		return []string{"fpcalc.exe", "fpcalc"}
	}
	return []string{"fpcalc"}
}

// FindExecutable returns the first of names found next to the running binary
// or on PATH. Bundled copies win over PATH so a packaged fpcalc is preferred.
func FindExecutable(names ...string) (string, bool) {
	if self, err := os.Executable(); err == nil {
		dir := filepath.Dir(self)
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				return candidate, true
			}
		}
	}
	for _, name := range names {
		if resolved, err := exec.LookPath(name); err == nil {
			return resolved, true
		}
	}
	return "", false
}

func isExecutable(info os.FileInfo) bool {
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}
