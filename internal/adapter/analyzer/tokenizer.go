package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into index terms with optional stemming and stopword removal.
// It is shared by the local embedding model and the keyword fallback so both
// see the same vocabulary.
type Tokenizer struct {
	stemmer   *PorterStemmer
	stopwords map[string]struct{}
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(useStemming bool) *Tokenizer {
	var stemmer *PorterStemmer
	if useStemming {
		stemmer = NewPorterStemmer()
	}
	return &Tokenizer{
		stemmer:   stemmer,
		stopwords: defaultStopwords(),
	}
}

// Stemming reports whether terms are stemmed.
func (t *Tokenizer) Stemming() bool {
	return t.stemmer != nil
}

// Tokenize returns the terms of text in order, duplicates included.
func (t *Tokenizer) Tokenize(text string) []string {
	words := Words(text)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if term, ok := t.Term(word); ok {
			tokens = append(tokens, term)
		}
	}
	return tokens
}

// Term normalises a single lower-cased word. It reports false for stopwords
// and single-byte words.
func (t *Tokenizer) Term(word string) (string, bool) {
	// byte length, so one Hangul syllable survives while "a" or "x" does not
	if len(word) < 2 {
		return "", false
	}
	if _, isStop := t.stopwords[word]; isStop {
		return "", false
	}
	if t.stemmer != nil {
		word = t.stemmer.Stem(word)
	}
	return word, true
}

// Words splits text on anything that is not a letter, digit or underscore and
// lower-cases the pieces.
func Words(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns a set of common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
		"about", "into", "there", "these", "those", "them", "any",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
