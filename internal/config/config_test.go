package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points user config lookup at an empty temp dir.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{
		"DOCRAG_DOCS_DIR", "DOCRAG_VECTOR_STORE_DIR", "DOCRAG_EVAL_DIR", "DOCRAG_COLLECTION",
		"DOCRAG_CHUNK_SIZE", "DOCRAG_CHUNK_OVERLAP", "DOCRAG_MODE", "DOCRAG_EMBEDDINGS_PROVIDER",
		"DOCRAG_EMBEDDINGS_MODEL", "DOCRAG_EMBEDDINGS_HOST", "DOCRAG_EMBEDDINGS_API_KEY",
		"DOCRAG_OLLAMA_HOST", "DOCRAG_LLM_MODEL", "DOCRAG_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 800, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, 5, cfg.Search.LexicalK)
	assert.Equal(t, 5, cfg.Search.SemanticK)
	assert.Equal(t, 8, cfg.Search.HybridCap)
	assert.InDelta(t, 1.2, cfg.Search.BM25K1, 1e-9)
	assert.InDelta(t, 0.75, cfg.Search.BM25B, 1e-9)
	assert.Equal(t, "oss_rag_docs", cfg.Semantic.Collection)
	assert.Equal(t, "cos", cfg.Semantic.Metric)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
	assert.Equal(t, "llama3", cfg.Generation.Model)
	assert.Equal(t, []string{".txt"}, cfg.Documents.Extensions)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFilesUsesDefaultsWithResolvedPaths(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(abs, "data", "docs"), cfg.Documents.Dir)
	assert.Equal(t, filepath.Join(abs, "data", "vector_store"), cfg.Semantic.Dir)
	assert.Equal(t, filepath.Join(abs, "data", "eval"), cfg.Eval.Dir)
}

func TestLoad_ProjectFileOverridesDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	// Given: a project config with partial overrides
	yaml := `
chunking:
  size: 400
  overlap: 50
documents:
  extensions: ["md", ".PDF"]
semantic:
  metric: l2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName), []byte(yaml), 0o644))

	// When: loading
	cfg, err := Load(dir)
	require.NoError(t, err)

	// Then: overrides applied, other defaults kept
	assert.Equal(t, 400, cfg.Chunking.Size)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, []string{".md", ".pdf"}, cfg.Documents.Extensions)
	assert.Equal(t, "l2", cfg.Semantic.Metric)
	assert.Equal(t, 5, cfg.Search.LexicalK)
}

func TestLoad_UserConfigBelowProjectConfig(t *testing.T) {
	isolate(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "docrag"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "docrag", "config.yaml"),
		[]byte("generation:\n  model: mistral\nsearch:\n  lexical_k: 7\n"), 0o644))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName),
		[]byte("search:\n  lexical_k: 3\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "mistral", cfg.Generation.Model)
	assert.Equal(t, 3, cfg.Search.LexicalK)
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName),
		[]byte("embeddings:\n  model: from-file\n"), 0o644))

	t.Setenv("DOCRAG_EMBEDDINGS_MODEL", "from-env")
	t.Setenv("DOCRAG_CHUNK_OVERLAP", "0")
	t.Setenv("DOCRAG_OLLAMA_HOST", "http://ollama:11434")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Embeddings.Model)
	assert.Equal(t, 0, cfg.Chunking.Overlap)
	assert.Equal(t, "http://ollama:11434", cfg.Embeddings.Host)
	assert.Equal(t, "http://ollama:11434", cfg.Generation.Host)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName), []byte("chunking: [oops"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }},
		{"overlap equals size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }},
		{"zero lexical k", func(c *Config) { c.Search.LexicalK = 0 }},
		{"b above one", func(c *Config) { c.Search.BM25B = 1.5 }},
		{"unknown mode", func(c *Config) { c.Search.DefaultMode = "fuzzy" }},
		{"empty collection", func(c *Config) { c.Semantic.Collection = " " }},
		{"unknown metric", func(c *Config) { c.Semantic.Metric = "dot" }},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "cohere" }},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }},
		{"temperature too high", func(c *Config) { c.Generation.Temperature = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_WriteYAML_RoundTripsThroughLoad(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg := NewConfig()
	cfg.Chunking.Size = 256
	cfg.Chunking.Overlap = 32
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ProjectConfigName)))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 256, loaded.Chunking.Size)
	assert.Equal(t, 32, loaded.Chunking.Overlap)
}

func TestConfig_WatchDebounceDuration(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounceDuration())

	cfg.Documents.WatchDebounce = "2s"
	assert.Equal(t, 2*time.Second, cfg.WatchDebounceDuration())

	cfg.Documents.WatchDebounce = "soon"
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounceDuration())
}

func TestBackupFile_KeepsNewestThree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ProjectConfigName)

	// Given: no file yet
	got, err := BackupFile(path)
	require.NoError(t, err)
	assert.Empty(t, got)

	// When: backing up five times
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))
	for i := 0; i < 5; i++ {
		_, err := BackupFile(path)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	// Then: only MaxBackups remain
	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
}
