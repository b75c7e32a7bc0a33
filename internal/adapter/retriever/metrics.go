package retriever

import (
	"math"

	"qualrag/internal/domain"
)

// IDs returns the unit ids of results in rank order.
func IDs(results []domain.QueryResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

// Rank returns the 1-based position of id in retrieved, or 0 if absent.
func Rank(retrieved []string, id string) int {
	for i, r := range retrieved {
		if r == id {
			return i + 1
		}
	}
	return 0
}

// ReciprocalRank is 1/rank of the relevant id, 0 when it was not retrieved.
func ReciprocalRank(retrieved []string, relevant string) float64 {
	if r := Rank(retrieved, relevant); r > 0 {
		return 1.0 / float64(r)
	}
	return 0
}

// HitAtK reports whether relevant is among the first k retrieved ids.
func HitAtK(retrieved []string, relevant string, k int) bool {
	r := Rank(retrieved, relevant)
	return r > 0 && r <= k
}

// PrecisionAtK is the share of retrieved ids that are relevant.
func PrecisionAtK(retrieved, relevant []string) float64 {
	if len(retrieved) == 0 {
		return 0
	}
	return float64(countHits(retrieved, relevant)) / float64(len(retrieved))
}

// RecallAtK is the share of relevant ids that were retrieved.
func RecallAtK(retrieved, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	return float64(countHits(retrieved, relevant)) / float64(len(relevant))
}

// NDCG scores a ranking with binary gains against the ideal ordering.
func NDCG(retrieved, relevant []string) float64 {
	set := toSet(relevant)
	gains := make([]float64, len(retrieved))
	for i, id := range retrieved {
		if set[id] {
			gains[i] = 1
		}
	}
	ideal := make([]float64, min(len(relevant), len(retrieved)))
	for i := range ideal {
		ideal[i] = 1
	}
	idcg := dcg(ideal)
	if idcg == 0 {
		return 0
	}
	return dcg(gains) / idcg
}

func dcg(gains []float64) float64 {
	total := 0.0
	for i, g := range gains {
		total += g / math.Log2(float64(i+2))
	}
	return total
}

func countHits(retrieved, relevant []string) int {
	set := toSet(relevant)
	hits := 0
	for _, r := range retrieved {
		if set[r] {
			hits++
		}
	}
	return hits
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
