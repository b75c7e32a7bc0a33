package retriever

import (
	"context"
	"slices"
	"strings"

	"qualrag/internal/adapter/analyzer"
	"qualrag/internal/domain"
)

// KeywordRetriever scores units by the share of query words they contain.
// It needs no model and serves the degraded path.
type KeywordRetriever struct {
	tokenizer *analyzer.Tokenizer
	units     []keywordUnit
}

type keywordUnit struct {
	unit  domain.TextUnit
	lower string
	terms map[string]struct{}
}

type queryWord struct {
	raw  string
	term string
}

func NewKeywordRetriever(units []domain.TextUnit, tokenizer *analyzer.Tokenizer) *KeywordRetriever {
	if tokenizer == nil {
		tokenizer = analyzer.NewTokenizer(true)
	}
	r := &KeywordRetriever{
		tokenizer: tokenizer,
		units:     make([]keywordUnit, 0, len(units)),
	}
	for _, u := range units {
		terms := make(map[string]struct{})
		for _, t := range tokenizer.Tokenize(u.Body) {
			terms[t] = struct{}{}
		}
		r.units = append(r.units, keywordUnit{
			unit:  u,
			lower: strings.ToLower(u.Body),
			terms: terms,
		})
	}
	return r
}

// Search returns every unit with a positive score. A query word matches a unit
// when its term occurs in the unit or the word itself is a substring of the
// body. Queries made only of stopwords fall back to their raw words.
func (r *KeywordRetriever) Search(ctx context.Context, query string) ([]domain.QueryResult, error) {
	words := r.queryWords(query)
	if len(words) == 0 {
		return nil, nil
	}

	var results []domain.QueryResult
	for _, ku := range r.units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matched := 0
		for _, w := range words {
			if _, ok := ku.terms[w.term]; ok || strings.Contains(ku.lower, w.raw) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		results = append(results, domain.QueryResult{
			ID:       ku.unit.ID,
			Body:     ku.unit.Body,
			Category: ku.unit.Category,
			Score:    float64(matched) / float64(len(words)),
		})
	}

	SortResults(results)
	return results, nil
}

func (r *KeywordRetriever) queryWords(query string) []queryWord {
	raw := analyzer.Words(query)
	seen := make(map[string]struct{}, len(raw))
	var words []queryWord
	for _, w := range raw {
		term, ok := r.tokenizer.Term(w)
		if !ok {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, queryWord{raw: w, term: term})
	}
	if len(words) > 0 {
		return words
	}

	for _, w := range raw {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, queryWord{raw: w, term: w})
	}
	return words
}

// SortResults orders by descending score, ties by ascending id.
func SortResults(results []domain.QueryResult) {
	slices.SortFunc(results, func(a, b domain.QueryResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
}
