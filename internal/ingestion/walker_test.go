package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntervalNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		file   string
		expect int
		ok     bool
	}{
		{"Simple", "file_1.csv", 1, true},
		{"MultiDigit", "file_216.csv", 216, true},
		{"ZeroPadded", "file_01.csv", 0, false},
		{"Suffix", "file_1.csv.bak", 0, false},
		{"Zero", "file_0.csv", 0, false},
		{"Negative", "file_-3.csv", 0, false},
		{"Other", "notes.txt", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := ParseIntervalNumber(tt.file, "")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expect, n)
		})
	}

	t.Run("CustomPattern", func(t *testing.T) {
		n, ok := ParseIntervalNumber("hour-12.txt", "hour-%d.txt")
		assert.True(t, ok)
		assert.Equal(t, 12, n)
	})
}

func TestListIntervalFiles(t *testing.T) {
	t.Parallel()

	t.Run("NumericOrder", func(t *testing.T) {
		dir := t.TempDir()
		for _, n := range []int{10, 2, 1, 3} {
			writeIntervalFile(t, dir, n, "boston marathon")
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), nil, 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "file_4.csv"), 0o755))

		files, err := ListIntervalFiles(dir, DefaultFilePattern)

		require.NoError(t, err)
		require.Len(t, files, 4)
		numbers := make([]int, len(files))
		for i, f := range files {
			numbers[i] = f.Number
		}
		assert.Equal(t, []int{1, 2, 3, 10}, numbers)
		assert.Equal(t, filepath.Join(dir, "file_10.csv"), files[3].Path)
		assert.Equal(t, []int{4, 5, 6, 7, 8, 9}, Gaps(files))
	})

	t.Run("Empty", func(t *testing.T) {
		files, err := ListIntervalFiles(t.TempDir(), DefaultFilePattern)

		require.NoError(t, err)
		assert.Empty(t, files)
		assert.Empty(t, Gaps(files))
	})

	t.Run("MissingDir", func(t *testing.T) {
		_, err := ListIntervalFiles(filepath.Join(t.TempDir(), "missing"), DefaultFilePattern)
		assert.Error(t, err)
	})
}
