package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Benny93/dec-go/internal/engine"
)

// DECFileName returns the ranked output file name of a 0-based interval.
// Files are numbered from 1 to line up with the input file_N.csv names.
func DECFileName(interval int) string {
	return fmt.Sprintf("ecentrality%d.txt", interval+1)
}

// WriteDECFile writes one "keyword value" line per ranked keyword and returns
// the number of lines written. Parent directories are created as needed.
func WriteDECFile(path string, ranked []engine.KeywordScore) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	for _, kw := range ranked {
		if _, err := fmt.Fprintf(w, "%s %s\n", kw.Keyword, strconv.FormatFloat(kw.DEC, 'g', -1, 64)); err != nil {
			f.Close()
			return 0, fmt.Errorf("writing %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing %s: %w", path, err)
	}
	return len(ranked), nil
}
