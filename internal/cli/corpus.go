package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"qualrag/internal/adapter/corpus"
	"qualrag/internal/app"
	"qualrag/internal/domain"
)

var (
	corpusCategory string
	corpusJSON     bool
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "List the knowledge base units",
	Long: `List every unit the engine would index, after category normalisation and
duplicate checks, together with the corpus version.`,
	Args: cobra.NoArgs,
	RunE: runCorpus,
}

func init() {
	rootCmd.AddCommand(corpusCmd)
	corpusCmd.Flags().StringVarP(&corpusCategory, "category", "c", "", "only list one category")
	corpusCmd.Flags().BoolVar(&corpusJSON, "json", false, "output as JSON")
}

func runCorpus(cmd *cobra.Command, args []string) error {
	var filter domain.Category
	if corpusCategory != "" {
		cat, err := domain.ParseCategory(corpusCategory)
		if err != nil {
			return err
		}
		filter = cat
	}

	units, err := app.NewSource(GetConfig(), log).ListUnits(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}
	version := corpus.Version(units)

	if filter != "" {
		kept := units[:0]
		for _, u := range units {
			if u.Category == filter {
				kept = append(kept, u)
			}
		}
		units = kept
	}

	if corpusJSON {
		output, _ := json.MarshalIndent(struct {
			Version string            `json:"version"`
			Units   []domain.TextUnit `json:"units"`
		}{version, units}, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tTITLE")
	for _, u := range units {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Category, u.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d units, corpus version %s\n", len(units), version)
	return nil
}
