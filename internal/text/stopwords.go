package text

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed stopwords.txt
var defaultStopwords string

// DefaultStopwords returns the built-in English stopword list.
func DefaultStopwords() []string {
	return strings.Fields(defaultStopwords)
}

// LoadStopwords reads a whitespace-separated stopword file.
func LoadStopwords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stopwords: %w", err)
	}
	defer f.Close()

	return ParseStopwords(f)
}

// ParseStopwords reads whitespace-separated stopwords from r.
func ParseStopwords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stopwords: %w", err)
	}
	return words, nil
}
