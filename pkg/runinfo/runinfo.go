// Package runinfo names, parses and discovers the run files a sort spills into its temporary directory.
package runinfo

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/iamBelugaa/esort/pkg/filesys"
)

// Extension is the file extension of every run file.
const Extension = ".run"

// GenerateName builds the file name of a run.
//
// Example: GenerateName(7, "run") -> "run_000007.run"
func GenerateName(runID int, prefix string) string {
	return fmt.Sprintf("%s_%06d%s", prefix, runID, Extension)
}

// ParseRunID extracts the run ID from a run file name or path.
func ParseRunID(fullPath, prefix string) (int, error) {
	_, filename := filepath.Split(fullPath)

	if !strings.HasPrefix(filename, prefix+"_") {
		return 0, fmt.Errorf("filename %s does not start with expected prefix %s", filename, prefix)
	}

	if !strings.HasSuffix(filename, Extension) {
		return 0, fmt.Errorf("filename %s has unexpected format, expected prefix_ID%s", filename, Extension)
	}

	// Example: "run_000007.run" -> "000007"
	idPart := strings.TrimSuffix(strings.TrimPrefix(filename, prefix+"_"), Extension)

	id, err := strconv.Atoi(idPart)
	if err != nil {
		return 0, fmt.Errorf("failed to parse run ID '%s' as integer: %w", idPart, err)
	}

	if id < 0 {
		return 0, fmt.Errorf("run ID %d in %s is negative", id, filename)
	}

	return id, nil
}

// ListRuns returns the run files in dir, ordered by run ID.
func ListRuns(dir, prefix string) ([]string, error) {
	if dir == "" || prefix == "" {
		return nil, fmt.Errorf("all parameters (dir, prefix) must be non-empty")
	}

	// Example: "/tmp/esort-123/run_*.run"
	searchPattern := filepath.Join(dir, prefix+"_*"+Extension)

	matchingFiles, err := filesys.ReadDir(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to read run directory with pattern %s: %w", searchPattern, err)
	}

	// Zero padded IDs sort lexically until they outgrow the padding.
	slices.SortFunc(matchingFiles, func(a, b string) int {
		ia, errA := ParseRunID(a, prefix)
		ib, errB := ParseRunID(b, prefix)
		if errA != nil || errB != nil {
			return strings.Compare(a, b)
		}
		return ia - ib
	})

	return matchingFiles, nil
}
