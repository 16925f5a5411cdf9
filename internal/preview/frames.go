package preview

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// ordinalPattern matches the 1-based frame names the extractor produces.
var ordinalPattern = regexp.MustCompile(`^img-(\d+)\.jpg$`)

// Reindex renames extracted frames from ordinal names to fixed-width
// timestamp names, so ordinal k becomes (k-1)*interval seconds and
// lexicographic filename order equals chronological order for the encoder.
func Reindex(dir string, intervalSeconds int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read frame directory: %w", err)
	}

	for _, entry := range entries {
		match := ordinalPattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}

		ordinal, err := strconv.Atoi(match[1])
		if err != nil || ordinal < 1 {
			return fmt.Errorf("unparseable frame ordinal in %q", entry.Name())
		}

		seconds := (ordinal - 1) * intervalSeconds
		target := filepath.Join(dir, fmt.Sprintf("%010d.jpg", seconds))
		if err := os.Rename(filepath.Join(dir, entry.Name()), target); err != nil {
			return fmt.Errorf("failed to rename frame %q: %w", entry.Name(), err)
		}
	}
	return nil
}
