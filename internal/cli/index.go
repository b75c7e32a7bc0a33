package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"qualrag/internal/app"
	"qualrag/internal/domain"
	"qualrag/internal/usecase"
)

var indexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or load the vector index",
	Long: `Embed the knowledge base and persist the vector index, or confirm that the
persisted index still matches the corpus and model.

Examples:
  qualrag index            # Load if current, otherwise build
  qualrag index --rebuild  # Drop the stored index and re-embed everything`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "discard the stored index and rebuild")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progressCallback := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	a, err := app.New(cfg, log, usecase.WithProgress(progressCallback), usecase.WithForceRebuild(indexRebuild))
	if err != nil {
		return err
	}

	if indexRebuild {
		fmt.Printf("Clearing stored index at %s...\n", a.Index.Location())
		if err := a.Index.Reset(); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	}

	start := time.Now()
	state := a.Engine.EnsureReady(cmd.Context())
	st := a.Engine.Status()

	if state == domain.StateDegraded {
		return fmt.Errorf("index build failed: %s", st.Cause)
	}

	fmt.Printf("\nIndex ready:\n")
	fmt.Printf("  Units:          %d\n", st.CorpusSize)
	fmt.Printf("  Model:          %s\n", st.ModelVersion)
	fmt.Printf("  Corpus version: %s\n", st.CorpusVersion)
	fmt.Printf("  Persisted:      %v\n", st.Persisted)
	fmt.Printf("  Took:           %s\n", formatDuration(time.Since(start)))
	if st.Cause != "" {
		fmt.Printf("\nWarning: %s\n", st.Cause)
	}
	fmt.Printf("\nIndex stored at: %s\n", a.Index.Location())
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
