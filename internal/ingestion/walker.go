// Package ingestion reads interval files and feeds them to the DEC engine.
package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultFilePattern names interval files; %d is the 1-based interval number.
const DefaultFilePattern = "file_%d.csv"

// IntervalFile is one numbered interval file.
type IntervalFile struct {
	// Path is the file path.
	Path string

	// Number is the 1-based interval number parsed from the file name.
	Number int
}

// IntervalFileName formats the file name of interval n.
func IntervalFileName(pattern string, n int) string {
	if pattern == "" {
		pattern = DefaultFilePattern
	}
	return fmt.Sprintf(pattern, n)
}

// ParseIntervalNumber extracts the interval number from a file name.
// The name must match the pattern exactly; "file_1.csv.bak" and
// "file_01.csv" are rejected.
func ParseIntervalNumber(name, pattern string) (int, bool) {
	if pattern == "" {
		pattern = DefaultFilePattern
	}
	var n int
	if _, err := fmt.Sscanf(name, pattern, &n); err != nil {
		return 0, false
	}
	if n < 1 || fmt.Sprintf(pattern, n) != name {
		return 0, false
	}
	return n, true
}

// ListIntervalFiles returns the interval files in dir ordered by number.
// Subdirectories and files not matching the pattern are ignored.
func ListIntervalFiles(dir, pattern string) ([]IntervalFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading interval folder: %w", err)
	}

	var files []IntervalFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		n, ok := ParseIntervalNumber(entry.Name(), pattern)
		if !ok {
			continue
		}
		files = append(files, IntervalFile{
			Path:   filepath.Join(dir, entry.Name()),
			Number: n,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Number < files[j].Number })
	return files, nil
}

// Gaps returns the interval numbers missing between the first and last file.
func Gaps(files []IntervalFile) []int {
	var missing []int
	for i := 1; i < len(files); i++ {
		for n := files[i-1].Number + 1; n < files[i].Number; n++ {
			missing = append(missing, n)
		}
	}
	return missing
}
