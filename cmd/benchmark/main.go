package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"qualrag/config"
	"qualrag/internal/adapter/retriever"
	"qualrag/internal/app"
	"qualrag/internal/domain"
	"qualrag/internal/logger"
)

// probe is a question with the unit a good ranking puts first, plus any
// other units that also count as relevant.
type probe struct {
	query string
	want  string
	also  []string
}

func (p probe) relevant() []string {
	return append([]string{p.want}, p.also...)
}

var probes = []probe{
	{"what makes a concept good", "ger1999", nil},
	{"member checking and thick description", "quality_lincoln_guba", []string{"tradition_ethnography"}},
	{"in vivo codes participants words", "coding_invivo_coding", nil},
	{"reality is socially constructed", "paradigm_constructivism", nil},
	{"conceptual stretching when concepts travel", "sar1970", nil},
	{"what counts as a theoretical contribution", "whe1989", nil},
	{"lived experience and bracketing", "tradition_phenomenology", nil},
	{"integrating categories around a core category", "coding_selective_coding", nil},
	{"reviewers ask so what", "rejection_so_what", nil},
	{"old data relabelled with new terms", "rejection_old_wine", nil},
}

func main() {
	dir := flag.String("dir", ".", "directory holding qualrag.yaml")
	query := flag.String("q", "", "run a single query instead of the probe set")
	topK := flag.Int("k", 5, "number of results")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(config.LoggingConfig{Level: "warn", Format: cfg.Logging.Format}, os.Stderr)
	slog.SetDefault(log)

	a, err := app.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error wiring engine: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	start := time.Now()
	state := a.Engine.EnsureReady(ctx)
	st := a.Engine.Status()

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("State:  %s (ready in %s)\n", state, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Model:  %s\n", st.ModelVersion)
	fmt.Printf("Units:  %d\n", st.CorpusSize)
	if st.Cause != "" {
		fmt.Printf("Cause:  %s\n", st.Cause)
	}
	fmt.Println()

	if *query != "" {
		runOne(ctx, a, *query, *topK)
		return
	}
	runProbes(ctx, a, *topK)
}

func runOne(ctx context.Context, a *app.App, query string, k int) {
	fmt.Printf("Query: %q\n", query)
	fmt.Println(strings.Repeat("-", 70))

	results, err := a.Engine.Search(ctx, domain.SearchRequest{Query: query, TopK: k})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	for i, r := range results {
		preview := r.Body
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}
		fmt.Printf("%d. [%s %.3f] %s (%s)\n", i+1, rating(r.Score), r.Score, r.ID, r.Category)
		fmt.Printf("   %s\n\n", preview)
	}
}

func runProbes(ctx context.Context, a *app.App, k int) {
	var hits1, hitsK int
	var mrr, recall, ndcg float64
	for _, p := range probes {
		results, err := a.Engine.Search(ctx, domain.SearchRequest{Query: p.query, TopK: k})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
		ids := retriever.IDs(results)

		rank := retriever.Rank(ids, p.want)
		mark := "MISS"
		switch {
		case rank == 1:
			mark = "HIT "
		case rank > 1:
			mark = fmt.Sprintf("@%-3d", rank)
		}
		if retriever.HitAtK(ids, p.want, 1) {
			hits1++
		}
		if retriever.HitAtK(ids, p.want, k) {
			hitsK++
		}
		mrr += retriever.ReciprocalRank(ids, p.want)
		recall += retriever.RecallAtK(ids, p.relevant())
		ndcg += retriever.NDCG(ids, p.relevant())

		top := "-"
		if len(results) > 0 {
			top = fmt.Sprintf("%s %.3f", results[0].ID, results[0].Score)
		}
		fmt.Printf("[%s] %-45q want %-26s top %s\n", mark, p.query, p.want, top)
	}

	n := float64(len(probes))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Hit@1:     %.2f\n", float64(hits1)/n)
	fmt.Printf("  Hit@%d:     %.2f\n", k, float64(hitsK)/n)
	fmt.Printf("  MRR:       %.3f\n", mrr/n)
	fmt.Printf("  Recall@%d:  %.3f\n", k, recall/n)
	fmt.Printf("  NDCG@%d:    %.3f\n", k, ndcg/n)
}

func rating(score float64) string {
	switch {
	case score > 0.5:
		return "HIGH"
	case score > 0.3:
		return "GOOD"
	case score > 0.15:
		return "OK"
	}
	return "LOW"
}
