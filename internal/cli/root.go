package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"qualrag/config"
	"qualrag/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	log     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "qualrag",
	Short: "Semantic search over a qualitative research methodology knowledge base",
	Long: `qualrag answers questions about qualitative research methodology (paradigms,
traditions, coding methods, journal expectations, concept and theory building)
by returning the most relevant passages of a curated knowledge base.

It runs as an MCP tool server or from the command line.

Example usage:
  qualrag serve                              # MCP over stdio
  qualrag serve --http 127.0.0.1:8770        # MCP over streamable HTTP
  qualrag query -q "what makes a concept good"
  qualrag index --rebuild                    # Re-embed the corpus`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		resolvePaths(cfg, rootDir)

		// stdout belongs to the MCP stdio transport and command output
		log = logger.New(cfg.Logging, os.Stderr)
		slog.SetDefault(log)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./qualrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory (default is current directory)")
}

// resolvePaths anchors relative data and corpus paths at dir.
func resolvePaths(c *config.Config, dir string) {
	if !filepath.IsAbs(c.DataDir) {
		c.DataDir = filepath.Join(dir, c.DataDir)
	}
	if c.Index.Path != "" && !filepath.IsAbs(c.Index.Path) {
		c.Index.Path = filepath.Join(dir, c.Index.Path)
	}
	for i, d := range c.Corpus.Dirs {
		if !filepath.IsAbs(d) {
			c.Corpus.Dirs[i] = filepath.Join(dir, d)
		}
	}
}

func GetConfig() *config.Config {
	return cfg
}
