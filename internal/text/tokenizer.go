// Package text turns raw short-text documents into keyword lists.
//
// Keywords are lower-cased alphabetic tokens with markup, links and hashtag
// markers removed, reduced to their English stem and filtered against a
// stopword list.
package text

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of memoized stem lookups.
const DefaultCacheSize = 50000

// minKeywordLength is the shortest token kept as a keyword.
const minKeywordLength = 2

var (
	markupPattern = regexp.MustCompile(`<.*?>`)
	linkPattern   = regexp.MustCompile(`http\S+`)
)

// Tokenizer extracts keywords from raw text.
// It is safe for concurrent use.
type Tokenizer struct {
	stopwords map[string]struct{}
	stems     *lru.Cache[string, string]
}

// NewTokenizer creates a tokenizer with the given stopwords. A cacheSize of
// zero or less uses DefaultCacheSize.
func NewTokenizer(stopwords []string, cacheSize int) (*Tokenizer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating stem cache: %w", err)
	}

	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: set, stems: cache}, nil
}

// Keywords extracts the keyword list of one document.
func (t *Tokenizer) Keywords(raw string) []string {
	return t.Preprocess(Words(raw))
}

// Preprocess strips hashtag markers, stems and drops stopwords and
// one-letter tokens. A token is dropped when either its surface form or its
// stem is a stopword. Token order is preserved.
func (t *Tokenizer) Preprocess(tokens []string) []string {
	keywords := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ReplaceAll(tok, "#", "")
		if t.IsStopword(tok) {
			continue
		}
		tok = t.Stem(tok)
		if len(tok) < minKeywordLength || t.IsStopword(tok) {
			continue
		}
		keywords = append(keywords, tok)
	}
	return keywords
}

// IsStopword reports whether the token is filtered out.
func (t *Tokenizer) IsStopword(tok string) bool {
	_, ok := t.stopwords[strings.ToLower(tok)]
	return ok
}

// CacheLen returns the number of memoized stems.
func (t *Tokenizer) CacheLen() int {
	return t.stems.Len()
}

// Stem returns the memoized stem of tok.
func (t *Tokenizer) Stem(tok string) string {
	if cached, ok := t.stems.Get(tok); ok {
		return cached
	}
	stem := Stem(tok)
	t.stems.Add(tok, stem)
	return stem
}

// Words lower-cases raw text, removes markup and links and splits it on
// every non-letter character.
func Words(raw string) []string {
	s := strings.ToLower(raw)
	s = markupPattern.ReplaceAllString(s, "")
	s = linkPattern.ReplaceAllString(s, "")
	return strings.FieldsFunc(s, func(r rune) bool {
		return r < 'a' || r > 'z'
	})
}

// Stem reduces a word to its Snowball English stem. Inflected forms of the
// same word share one stem, so "explosion" and "explosions" count as one
// keyword.
func Stem(word string) string {
	env := snowballstem.NewEnv(word)
	english.Stem(env)
	return env.Current()
}
