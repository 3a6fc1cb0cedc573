package ingestion

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeIntervalFile writes a "date,text,id" CSV with one record per text.
func writeIntervalFile(t *testing.T, dir string, n int, texts ...string) string {
	t.Helper()

	path := filepath.Join(dir, IntervalFileName(DefaultFilePattern, n))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	for i, text := range texts {
		require.NoError(t, w.Write([]string{"2013-04-15 14:00:00-04:00", text, strconv.Itoa(i)}))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return path
}
