package index

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// Stop words dropped from English text before stemming
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "my": true, "me": true, "i": true,
}

// Languages with a snowball stemmer, keyed by base language subtag
var snowballLanguages = map[string]string{
	"en": "english",
	"es": "spanish",
	"fr": "french",
	"ru": "russian",
	"sv": "swedish",
	"nb": "norwegian",
	"no": "norwegian",
	"hu": "hungarian",
}

// Analyzer turns text into index terms for one language.
type Analyzer struct {
	stemmer string
	english bool
}

// NewAnalyzer returns an analyzer for a language tag such as "en" or "es".
// Languages without a stemmer are tokenized and lowercased only.
func NewAnalyzer(language string) *Analyzer {
	base := strings.ToLower(language)
	if i := strings.IndexAny(base, "-_"); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		base = "en"
	}
	return &Analyzer{
		stemmer: snowballLanguages[base],
		english: base == "en",
	}
}

// LanguageOf returns the language suffix of a per-language index name.
func LanguageOf(indexName string) string {
	if i := strings.LastIndexByte(indexName, '_'); i >= 0 {
		return indexName[i+1:]
	}
	return ""
}

// Tokenize splits text into lowercase words on anything that isn't a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Terms tokenizes text, drops stop words and stems what remains.
func (a *Analyzer) Terms(text string) []string {
	words := Tokenize(text)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if a.english && stopWords[word] {
			continue
		}
		terms = append(terms, a.stem(word))
	}
	return terms
}

func (a *Analyzer) stem(word string) string {
	if a.stemmer == "" {
		return word
	}
	stemmed, err := snowball.Stem(word, a.stemmer, true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

// ContainsAllWords reports whether every non stop word of query appears in document.
// Matching is on stemmed terms.
func (a *Analyzer) ContainsAllWords(document, query string) bool {
	queryTerms := a.Terms(query)
	if len(queryTerms) == 0 {
		return false
	}

	docTerms := a.Terms(document)
	docTermSet := make(map[string]bool, len(docTerms))
	for _, term := range docTerms {
		docTermSet[term] = true
	}

	for _, term := range queryTerms {
		if !docTermSet[term] {
			return false
		}
	}
	return true
}
