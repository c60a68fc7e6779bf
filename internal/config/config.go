package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfigName is the per-project configuration file.
const ProjectConfigName = ".docrag.yaml"

// Config represents the complete docrag configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Documents  DocumentsConfig  `yaml:"documents" json:"documents"`
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Semantic   SemanticConfig   `yaml:"semantic" json:"semantic"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Generation GenerationConfig `yaml:"generation" json:"generation"`
	Eval       EvalConfig       `yaml:"eval" json:"eval"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// DocumentsConfig configures the document source.
type DocumentsConfig struct {
	// Dir is scanned recursively for documents.
	Dir string `yaml:"dir" json:"dir"`
	// Extensions lists the file extensions to load. ".txt" is read directly,
	// anything else goes through docconv.
	Extensions []string `yaml:"extensions" json:"extensions"`
	// WatchDebounce is the quiet period before a watch-triggered rebuild.
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// ChunkingConfig configures the chunker.
type ChunkingConfig struct {
	Size    int `yaml:"size" json:"size"`
	Overlap int `yaml:"overlap" json:"overlap"`
}

// SearchConfig configures retrieval sizes and BM25 parameters.
type SearchConfig struct {
	LexicalK  int     `yaml:"lexical_k" json:"lexical_k"`
	SemanticK int     `yaml:"semantic_k" json:"semantic_k"`
	HybridCap int     `yaml:"hybrid_cap" json:"hybrid_cap"`
	BM25K1    float64 `yaml:"bm25_k1" json:"bm25_k1"`
	BM25B     float64 `yaml:"bm25_b" json:"bm25_b"`
	// DefaultMode is used when a command is given no --mode.
	DefaultMode string `yaml:"default_mode" json:"default_mode"`
}

// SemanticConfig configures the persisted vector collection.
type SemanticConfig struct {
	Dir        string `yaml:"dir" json:"dir"`
	Collection string `yaml:"collection" json:"collection"`
	// Metric is "cos" or "l2". Stored with the collection at build time.
	Metric string `yaml:"metric" json:"metric"`
	// M and EfSearch tune the HNSW graph.
	M        int `yaml:"m" json:"m"`
	EfSearch int `yaml:"ef_search" json:"ef_search"`
	// ExactThreshold is the record count below which search is a full scan.
	ExactThreshold int `yaml:"exact_threshold" json:"exact_threshold"`
	// Seed makes graph construction reproducible.
	Seed int64 `yaml:"seed" json:"seed"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is one of ollama, openai, gemini, static.
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
	// Host is the provider endpoint (Ollama host or OpenAI-compatible base URL).
	Host      string        `yaml:"host" json:"host"`
	APIKey    string        `yaml:"api_key" json:"-"`
	BatchSize int           `yaml:"batch_size" json:"batch_size"`
	Workers   int           `yaml:"workers" json:"workers"`
	CacheSize int           `yaml:"cache_size" json:"cache_size"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// GenerationConfig configures the answer model.
type GenerationConfig struct {
	Model       string        `yaml:"model" json:"model"`
	Host        string        `yaml:"host" json:"host"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
	MaxRetries  int           `yaml:"max_retries" json:"max_retries"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// EvalConfig configures the offline evaluation runner.
type EvalConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// LoggingConfig configures file logging.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Documents: DocumentsConfig{
			Dir:           filepath.Join("data", "docs"),
			Extensions:    []string{".txt"},
			WatchDebounce: "500ms",
		},
		Chunking: ChunkingConfig{
			Size:    800,
			Overlap: 200,
		},
		Search: SearchConfig{
			LexicalK:    5,
			SemanticK:   5,
			HybridCap:   8,
			BM25K1:      1.2,
			BM25B:       0.75,
			DefaultMode: "hybrid",
		},
		Semantic: SemanticConfig{
			Dir:            filepath.Join("data", "vector_store"),
			Collection:     "oss_rag_docs",
			Metric:         "cos",
			M:              16,
			EfSearch:       64,
			ExactThreshold: 4096,
			Seed:           1,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "ollama",
			Model:     "nomic-embed-text",
			Host:      "",
			BatchSize: 32,
			Workers:   min(4, runtime.NumCPU()),
			CacheSize: 1000,
			Timeout:   2 * time.Minute,
		},
		Generation: GenerationConfig{
			Model:       "llama3",
			Host:        "",
			Temperature: 0.1,
			MaxRetries:  2,
			Timeout:     5 * time.Minute,
		},
		Eval: EvalConfig{
			Dir: filepath.Join("data", "eval"),
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      "",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/docrag/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/docrag/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docrag", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "docrag", "config.yaml")
	}
	return filepath.Join(home, ".config", "docrag", "config.yaml")
}

// Load loads configuration for the project in dir.
// Precedence, lowest first:
//  1. Hardcoded defaults
//  2. User config (~/.config/docrag/config.yaml)
//  3. Project config (.docrag.yaml or .docrag.yml in dir)
//  4. Environment variables (DOCRAG_*)
//
// Relative paths are resolved against dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.ResolvePaths(dir); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromDir loads .docrag.yaml, falling back to .docrag.yml.
func (c *Config) loadFromDir(dir string) error {
	yamlPath := filepath.Join(dir, ProjectConfigName)
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".docrag.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML parses path and merges its non-zero values into c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Documents
	mergeString(&c.Documents.Dir, other.Documents.Dir)
	if len(other.Documents.Extensions) > 0 {
		c.Documents.Extensions = normalizeExtensions(other.Documents.Extensions)
	}
	mergeString(&c.Documents.WatchDebounce, other.Documents.WatchDebounce)

	// Chunking
	mergeInt(&c.Chunking.Size, other.Chunking.Size)
	mergeInt(&c.Chunking.Overlap, other.Chunking.Overlap)

	// Search
	mergeInt(&c.Search.LexicalK, other.Search.LexicalK)
	mergeInt(&c.Search.SemanticK, other.Search.SemanticK)
	mergeInt(&c.Search.HybridCap, other.Search.HybridCap)
	mergeFloat(&c.Search.BM25K1, other.Search.BM25K1)
	mergeFloat(&c.Search.BM25B, other.Search.BM25B)
	mergeString(&c.Search.DefaultMode, other.Search.DefaultMode)

	// Semantic
	mergeString(&c.Semantic.Dir, other.Semantic.Dir)
	mergeString(&c.Semantic.Collection, other.Semantic.Collection)
	mergeString(&c.Semantic.Metric, other.Semantic.Metric)
	mergeInt(&c.Semantic.M, other.Semantic.M)
	mergeInt(&c.Semantic.EfSearch, other.Semantic.EfSearch)
	mergeInt(&c.Semantic.ExactThreshold, other.Semantic.ExactThreshold)
	if other.Semantic.Seed != 0 {
		c.Semantic.Seed = other.Semantic.Seed
	}

	// Embeddings
	mergeString(&c.Embeddings.Provider, other.Embeddings.Provider)
	mergeString(&c.Embeddings.Model, other.Embeddings.Model)
	mergeString(&c.Embeddings.Host, other.Embeddings.Host)
	mergeString(&c.Embeddings.APIKey, other.Embeddings.APIKey)
	mergeInt(&c.Embeddings.BatchSize, other.Embeddings.BatchSize)
	mergeInt(&c.Embeddings.Workers, other.Embeddings.Workers)
	mergeInt(&c.Embeddings.CacheSize, other.Embeddings.CacheSize)
	if other.Embeddings.Timeout != 0 {
		c.Embeddings.Timeout = other.Embeddings.Timeout
	}

	// Generation
	mergeString(&c.Generation.Model, other.Generation.Model)
	mergeString(&c.Generation.Host, other.Generation.Host)
	mergeFloat(&c.Generation.Temperature, other.Generation.Temperature)
	mergeInt(&c.Generation.MaxRetries, other.Generation.MaxRetries)
	if other.Generation.Timeout != 0 {
		c.Generation.Timeout = other.Generation.Timeout
	}

	// Eval
	mergeString(&c.Eval.Dir, other.Eval.Dir)

	// Logging
	mergeString(&c.Logging.Level, other.Logging.Level)
	mergeString(&c.Logging.File, other.Logging.File)
	mergeInt(&c.Logging.MaxSizeMB, other.Logging.MaxSizeMB)
	mergeInt(&c.Logging.MaxFiles, other.Logging.MaxFiles)
}

// applyEnvOverrides applies DOCRAG_* environment variable overrides.
// Integers accept explicit zero here, which YAML merging cannot express.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCRAG_DOCS_DIR"); v != "" {
		c.Documents.Dir = v
	}
	if v := os.Getenv("DOCRAG_VECTOR_STORE_DIR"); v != "" {
		c.Semantic.Dir = v
	}
	if v := os.Getenv("DOCRAG_EVAL_DIR"); v != "" {
		c.Eval.Dir = v
	}
	if v := os.Getenv("DOCRAG_COLLECTION"); v != "" {
		c.Semantic.Collection = v
	}
	if v, ok := envInt("DOCRAG_CHUNK_SIZE"); ok {
		c.Chunking.Size = v
	}
	if v, ok := envInt("DOCRAG_CHUNK_OVERLAP"); ok {
		c.Chunking.Overlap = v
	}
	if v := os.Getenv("DOCRAG_MODE"); v != "" {
		c.Search.DefaultMode = v
	}
	if v := os.Getenv("DOCRAG_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("DOCRAG_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("DOCRAG_EMBEDDINGS_HOST"); v != "" {
		c.Embeddings.Host = v
	}
	if v := os.Getenv("DOCRAG_EMBEDDINGS_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	}
	if v := os.Getenv("DOCRAG_OLLAMA_HOST"); v != "" {
		c.Embeddings.Host = v
		c.Generation.Host = v
	}
	if v := os.Getenv("DOCRAG_LLM_MODEL"); v != "" {
		c.Generation.Model = v
	}
	if v := os.Getenv("DOCRAG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// ResolvePaths makes relative directories absolute against root.
func (c *Config) ResolvePaths(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	for _, p := range []*string{&c.Documents.Dir, &c.Semantic.Dir, &c.Eval.Dir, &c.Logging.File} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(absRoot, *p)
		}
	}
	return nil
}

// WatchDebounceDuration parses Documents.WatchDebounce, defaulting to 500ms.
func (c *Config) WatchDebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Documents.WatchDebounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be in [0, size), got %d (size %d)", c.Chunking.Overlap, c.Chunking.Size)
	}

	if c.Search.LexicalK <= 0 || c.Search.SemanticK <= 0 || c.Search.HybridCap <= 0 {
		return fmt.Errorf("search.lexical_k, semantic_k and hybrid_cap must be positive")
	}
	if c.Search.BM25K1 < 0 {
		return fmt.Errorf("search.bm25_k1 must be non-negative, got %f", c.Search.BM25K1)
	}
	if c.Search.BM25B < 0 || c.Search.BM25B > 1 {
		return fmt.Errorf("search.bm25_b must be between 0 and 1, got %f", c.Search.BM25B)
	}
	validModes := map[string]bool{"lexical": true, "bm25": true, "semantic": true, "vector": true, "hybrid": true}
	if !validModes[strings.ToLower(c.Search.DefaultMode)] {
		return fmt.Errorf("search.default_mode must be 'lexical', 'semantic' or 'hybrid', got %s", c.Search.DefaultMode)
	}

	if strings.TrimSpace(c.Semantic.Collection) == "" {
		return fmt.Errorf("semantic.collection must not be empty")
	}
	if c.Semantic.Metric != "cos" && c.Semantic.Metric != "l2" {
		return fmt.Errorf("semantic.metric must be 'cos' or 'l2', got %s", c.Semantic.Metric)
	}

	validProviders := map[string]bool{"ollama": true, "openai": true, "gemini": true, "static": true}
	if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
		return fmt.Errorf("embeddings.provider must be 'ollama', 'openai', 'gemini' or 'static', got %s", c.Embeddings.Provider)
	}
	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("embeddings.batch_size must be positive, got %d", c.Embeddings.BatchSize)
	}

	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %f", c.Generation.Temperature)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func mergeFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// normalizeExtensions lowercases extensions and adds the leading dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
