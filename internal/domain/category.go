package domain

import (
	"fmt"
	"strings"
)

// Category is the closed set of knowledge base sections.
type Category string

const (
	CategoryParadigm      Category = "paradigm"
	CategoryTradition     Category = "tradition"
	CategoryCodingMethod  Category = "coding_method"
	CategoryJournalGuide  Category = "journal_guide"
	CategoryConceptTheory Category = "concept_theory"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryParadigm,
		CategoryTradition,
		CategoryCodingMethod,
		CategoryJournalGuide,
		CategoryConceptTheory,
	}
}

// legacy labels used by older knowledge base exports and tool clients
var categoryAliases = map[string]Category{
	"paradigms":  CategoryParadigm,
	"traditions": CategoryTradition,
	"method":     CategoryCodingMethod,
	"methods":    CategoryCodingMethod,
	"coding":     CategoryCodingMethod,
	"journal":    CategoryJournalGuide,
	"journals":   CategoryJournalGuide,
	"rejection":  CategoryJournalGuide,
	"quality":    CategoryConceptTheory,
	"concept":    CategoryConceptTheory,
	"concepts":   CategoryConceptTheory,
	"theory":     CategoryConceptTheory,
}

// Valid reports whether c is one of the closed set.
func (c Category) Valid() bool {
	switch c {
	case CategoryParadigm, CategoryTradition, CategoryCodingMethod, CategoryJournalGuide, CategoryConceptTheory:
		return true
	}
	return false
}

// ParseCategory normalises s to a Category. Case, surrounding space and
// hyphens are ignored and legacy aliases are accepted.
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	if c := Category(key); c.Valid() {
		return c, nil
	}
	if c, ok := categoryAliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}
