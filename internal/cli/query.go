package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qualrag/internal/app"
	"qualrag/internal/domain"
)

var (
	queryText     string
	queryTopK     int
	queryCategory string
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the knowledge base",
	Long: `Return the passages most relevant to a question.

Examples:
  qualrag query -q "what makes a concept good"
  qualrag query -q "member checking" -c concept_theory -k 3 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().StringVarP(&queryCategory, "category", "c", "", "restrict to one category")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

type queryOutput struct {
	Results []domain.QueryResult `json:"results"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	req := domain.SearchRequest{Query: queryText, TopK: cfg.Retrieve.TopK}
	if queryTopK > 0 {
		req.TopK = queryTopK
	}
	if queryCategory != "" {
		cat, err := domain.ParseCategory(queryCategory)
		if err != nil {
			return err
		}
		req.Category = cat
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}

	results, err := a.Engine.Search(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if st := a.Engine.Status(); st.State == domain.StateDegraded {
		fmt.Fprintf(os.Stderr, "Semantic search unavailable, showing keyword matches (%s)\n\n", st.Cause)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(queryOutput{Results: results}, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s (%s, score: %.3f) ---\n", i+1, r.ID, r.Category, r.Score)
		fmt.Println(r.Body)
		fmt.Println()
	}
	return nil
}
