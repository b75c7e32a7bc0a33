package retriever

import (
	"testing"

	"qualrag/internal/domain"
)

func TestPrecisionAtK(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		wantP     float64
	}{
		{"perfect", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 1.0},
		{"partial", []string{"a", "b", "x"}, []string{"a", "b", "c"}, 0.666},
		{"none", []string{"x", "y", "z"}, []string{"a", "b", "c"}, 0.0},
		{"empty_retrieved", []string{}, []string{"a", "b"}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := PrecisionAtK(tc.retrieved, tc.relevant)
			if diff := p - tc.wantP; diff > 0.01 || diff < -0.01 {
				t.Errorf("precision = %.3f, want %.3f", p, tc.wantP)
			}
		})
	}
}

func TestRecallAtK(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		wantR     float64
	}{
		{"perfect", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 1.0},
		{"partial", []string{"a", "b", "x"}, []string{"a", "b", "c"}, 0.666},
		{"none", []string{"x", "y", "z"}, []string{"a", "b", "c"}, 0.0},
		{"empty_relevant", []string{"a", "b"}, []string{}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := RecallAtK(tc.retrieved, tc.relevant)
			if diff := r - tc.wantR; diff > 0.01 || diff < -0.01 {
				t.Errorf("recall = %.3f, want %.3f", r, tc.wantR)
			}
		})
	}
}

func TestReciprocalRank(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  string
		wantRR    float64
		wantHit2  bool
	}{
		{"first", []string{"a", "b", "c"}, "a", 1.0, true},
		{"second", []string{"x", "a", "c"}, "a", 0.5, true},
		{"third", []string{"x", "y", "a"}, "a", 0.333, false},
		{"missing", []string{"x", "y", "z"}, "a", 0.0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := ReciprocalRank(tc.retrieved, tc.relevant)
			if diff := rr - tc.wantRR; diff > 0.01 || diff < -0.01 {
				t.Errorf("RR = %.3f, want %.3f", rr, tc.wantRR)
			}
			if got := HitAtK(tc.retrieved, tc.relevant, 2); got != tc.wantHit2 {
				t.Errorf("Hit@2 = %v, want %v", got, tc.wantHit2)
			}
		})
	}
}

func TestNDCG(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		wantNDCG  float64
	}{
		{"perfect", []string{"a", "b", "x"}, []string{"a", "b"}, 1.0},
		{"late", []string{"x", "y", "a"}, []string{"a"}, 0.5},
		{"none", []string{"x", "y", "z"}, []string{"a"}, 0.0},
		{"no_relevant", []string{"x"}, nil, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ndcg := NDCG(tc.retrieved, tc.relevant)
			if diff := ndcg - tc.wantNDCG; diff > 0.01 || diff < -0.01 {
				t.Errorf("NDCG = %.3f, want %.3f", ndcg, tc.wantNDCG)
			}
		})
	}
}

func TestIDs(t *testing.T) {
	got := IDs([]domain.QueryResult{{ID: "b"}, {ID: "a"}})
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("IDs = %v", got)
	}
}
