package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DateLayout is the timestamp format of the raw input's first column.
const DateLayout = "2006-01-02 15:04:05-07:00"

// DefaultSplitInterval is the interval length used when none is given.
const DefaultSplitInterval = time.Hour

// SplitOptions configures SplitRecords.
type SplitOptions struct {
	// Interval is the length of one interval. Boundaries are multiples of
	// Interval since the zero time.
	Interval time.Duration

	// Pattern names the output files.
	Pattern string

	// Logger receives skipped-record warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// SplitResult summarizes a split.
type SplitResult struct {
	// Files are the written interval files in order.
	Files []string

	// Records is the number of records written.
	Records int

	// Skipped counts records with a missing or malformed date.
	Skipped int
}

// SplitRecords breaks a chronologically sorted "date,text,id" CSV stream into
// numbered interval files in outDir. A new file starts whenever a record's
// truncated timestamp differs from the previous record's.
func SplitRecords(r io.Reader, outDir string, opts SplitOptions) (*SplitResult, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSplitInterval
	}
	if opts.Pattern == "" {
		opts.Pattern = DefaultFilePattern
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output folder: %w", err)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &SplitResult{}
	var (
		out      *os.File
		writer   *csv.Writer
		boundary time.Time
		line     int
	)

	closeCurrent := func() error {
		if out == nil {
			return nil
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			closeCurrent()
			return result, fmt.Errorf("reading line %d: %w", line, err)
		}

		if len(record) == 0 {
			result.Skipped++
			continue
		}
		ts, err := time.Parse(DateLayout, record[0])
		if err != nil {
			logger.Warn("skipping record with malformed date", "line", line, "date", record[0])
			result.Skipped++
			continue
		}

		start := ts.Truncate(opts.Interval)
		if out == nil || !start.Equal(boundary) {
			if err := closeCurrent(); err != nil {
				return result, fmt.Errorf("closing interval file: %w", err)
			}
			path := filepath.Join(outDir, IntervalFileName(opts.Pattern, len(result.Files)+1))
			out, err = os.Create(path)
			if err != nil {
				return result, fmt.Errorf("creating interval file: %w", err)
			}
			writer = csv.NewWriter(out)
			boundary = start
			result.Files = append(result.Files, path)
		}

		if err := writer.Write(record); err != nil {
			closeCurrent()
			return result, fmt.Errorf("writing record: %w", err)
		}
		result.Records++
	}

	if err := closeCurrent(); err != nil {
		return result, fmt.Errorf("closing interval file: %w", err)
	}
	return result, nil
}
