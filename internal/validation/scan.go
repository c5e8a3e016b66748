package validation

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go-media-platform/internal/faults"
)

// ScanFile runs clamdscan against a local file and rejects it if the
// scanner reports a detection. clamdscan exits 1 on a detection and 2 on
// operational errors; both are surfaced, never swallowed.
func ScanFile(path string) error {
	realPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve file path %s: %v", path, err)
	}

	cmd := exec.Command("clamdscan", "--no-summary", realPath)
	output, err := cmd.CombinedOutput()
	if err != nil || strings.Contains(string(output), "FOUND") {
		return &faults.ExternalToolError{
			Tool:   "clamdscan",
			Output: string(output),
			Err:    fmt.Errorf("file %s rejected by virus scan", filepath.Base(realPath)),
		}
	}

	return nil
}
