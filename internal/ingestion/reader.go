package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Benny93/dec-go/internal/text"
)

// textColumn is the CSV column holding the document text.
const textColumn = 1

// minDocumentKeywords is the fewest keywords a document needs to yield a
// co-occurrence pair.
const minDocumentKeywords = 2

// IntervalData holds the tokenized documents of one interval file.
type IntervalData struct {
	File IntervalFile

	// Docs are the keyword lists of documents with at least two keywords.
	Docs [][]string

	// Records is the number of CSV records read, including dropped ones.
	Records int
}

// ReadIntervalFile tokenizes every record of an interval CSV file.
func ReadIntervalFile(file IntervalFile, tok *text.Tokenizer) (*IntervalData, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("opening interval file: %w", err)
	}
	defer f.Close()

	docs, records, err := ReadDocuments(f, tok)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file.Path, err)
	}
	return &IntervalData{File: file, Docs: docs, Records: records}, nil
}

// ReadDocuments tokenizes the text column of CSV records read from r.
// Records without a text column are counted but skipped.
func ReadDocuments(r io.Reader, tok *text.Tokenizer) ([][]string, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var docs [][]string
	records := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, records, err
		}
		records++

		if len(record) <= textColumn {
			continue
		}
		keywords := tok.Keywords(record[textColumn])
		if len(keywords) < minDocumentKeywords {
			continue
		}
		docs = append(docs, keywords)
	}
	return docs, records, nil
}
