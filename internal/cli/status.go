package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"qualrag/internal/app"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and model health",
	Long: `Load (or build) the index and report the engine state, corpus size,
model and corpus versions, and whether the index is persisted.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := app.New(GetConfig(), log)
	if err != nil {
		return err
	}

	a.Engine.EnsureReady(cmd.Context())
	st := a.Engine.Status()

	if statusJSON {
		output, _ := json.MarshalIndent(st, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("State:          %s\n", st.State)
	fmt.Printf("Units:          %d\n", st.CorpusSize)
	fmt.Printf("Model:          %s\n", st.ModelVersion)
	fmt.Printf("Corpus version: %s\n", st.CorpusVersion)
	fmt.Printf("Persisted:      %v (%s)\n", st.Persisted, a.Index.Location())
	if st.Cause != "" {
		fmt.Printf("Cause:          %s\n", st.Cause)
	}
	return nil
}
