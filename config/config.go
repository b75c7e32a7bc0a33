package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the knowledge server.
type Config struct {
	DataDir   string          `yaml:"data_dir" toml:"data_dir"`
	Index     IndexConfig     `yaml:"index" toml:"index"`
	Corpus    CorpusConfig    `yaml:"corpus" toml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding" toml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve" toml:"retrieve"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// IndexConfig holds vector index persistence configuration.
type IndexConfig struct {
	Backend            string `yaml:"backend" toml:"backend"` // "bolt", "badger", "memory"
	Path               string `yaml:"path" toml:"path"`       // default derived from data_dir
	RequirePersistence bool   `yaml:"require_persistence" toml:"require_persistence"`
	OpenTimeoutMS      int    `yaml:"open_timeout_ms" toml:"open_timeout_ms"`
	BuildTimeoutSecs   int    `yaml:"build_timeout_secs" toml:"build_timeout_secs"`
}

// CorpusConfig holds document source configuration.
type CorpusConfig struct {
	Builtin  bool     `yaml:"builtin" toml:"builtin"`
	Dirs     []string `yaml:"dirs" toml:"dirs"`
	Includes []string `yaml:"includes" toml:"includes"`
	Excludes []string `yaml:"excludes" toml:"excludes"`
}

// EmbeddingConfig holds embedding model configuration.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider" toml:"provider"` // "local", "openai", "ollama", "mock"
	Model             string  `yaml:"model" toml:"model"`
	Dimension         int     `yaml:"dimension" toml:"dimension"`
	BaseURL           string  `yaml:"base_url" toml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env" toml:"api_key_env"` // Environment variable for API key
	TimeoutSecs       int     `yaml:"timeout_secs" toml:"timeout_secs"`
	BatchSize         int     `yaml:"batch_size" toml:"batch_size"`
	Workers           int     `yaml:"workers" toml:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
	Stemming          bool    `yaml:"stemming" toml:"stemming"`
}

// RetrieveConfig holds query-time configuration.
type RetrieveConfig struct {
	TopK         int     `yaml:"top_k" toml:"top_k"`
	MinScore     float64 `yaml:"min_score" toml:"min_score"` // results must score strictly above this
	CacheSize    int     `yaml:"cache_size" toml:"cache_size"` // 0 disables the query cache
	CacheTTLSecs int     `yaml:"cache_ttl_secs" toml:"cache_ttl_secs"`
}

// ServerConfig holds tool server configuration.
type ServerConfig struct {
	Transport string `yaml:"transport" toml:"transport"` // "stdio" or "http"
	Addr      string `yaml:"addr" toml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".qualrag",
		Index: IndexConfig{
			Backend:       "bolt",
			OpenTimeoutMS:    1000,
			BuildTimeoutSecs: 300,
		},
		Corpus: CorpusConfig{
			Builtin:  true,
			Includes: []string{"**/*.yaml", "**/*.yml"},
		},
		Embedding: EmbeddingConfig{
			Provider:    "local",
			Dimension:   1024,
			APIKeyEnv:   "OPENAI_API_KEY",
			TimeoutSecs: 30,
			BatchSize:   16,
			Workers:     4,
			Stemming:    true,
		},
		Retrieve: RetrieveConfig{
			TopK:         5,
			CacheSize:    256,
			CacheTTLSecs: 600,
		},
		Server: ServerConfig{
			Transport: "stdio",
			Addr:      "127.0.0.1:8770",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML or TOML file, chosen by extension.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory
// (qualrag.yaml, qualrag.toml, then .qualrag/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	candidates := []string{
		filepath.Join(dir, "qualrag.yaml"),
		filepath.Join(dir, "qualrag.toml"),
		filepath.Join(dir, ".qualrag", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	// Return defaults
	return DefaultConfig(), nil
}

// Save saves configuration as YAML, or TOML for a .toml path.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings no component can honour.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case "bolt", "badger", "memory":
	default:
		return fmt.Errorf("index.backend: unknown backend %q", c.Index.Backend)
	}
	switch c.Embedding.Provider {
	case "local", "openai", "ollama", "mock":
	default:
		return fmt.Errorf("embedding.provider: unknown provider %q", c.Embedding.Provider)
	}
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("server.transport: unknown transport %q", c.Server.Transport)
	}
	if c.Retrieve.TopK < 1 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("embedding.dimension must not be negative")
	}
	return nil
}

// IndexPath returns where the configured backend stores the index.
func (c *Config) IndexPath() string {
	if c.Index.Path != "" {
		return c.Index.Path
	}
	if c.Index.Backend == "badger" {
		return filepath.Join(c.DataDir, "badger")
	}
	return filepath.Join(c.DataDir, "index.db")
}

// OpenTimeout bounds how long the index waits for a storage lock.
func (c *Config) OpenTimeout() time.Duration {
	return time.Duration(c.Index.OpenTimeoutMS) * time.Millisecond
}

// BuildTimeout bounds one index build, including embedding the corpus.
func (c *Config) BuildTimeout() time.Duration {
	return time.Duration(c.Index.BuildTimeoutSecs) * time.Second
}

// EmbeddingTimeout bounds each embedding model call.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSecs) * time.Second
}

// CacheTTL returns the query cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Retrieve.CacheTTLSecs) * time.Second
}

// EnsureDataDir ensures the data directory exists.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
