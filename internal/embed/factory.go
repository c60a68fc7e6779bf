package embed

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ProviderType represents an embedding provider
type ProviderType string

const (
	// ProviderOllama uses the Ollama HTTP API (default)
	ProviderOllama ProviderType = "ollama"

	// ProviderOpenAI uses an OpenAI-compatible API through langchaingo
	ProviderOpenAI ProviderType = "openai"

	// ProviderGemini uses the Gemini API through chroma-go
	ProviderGemini ProviderType = "gemini"

	// ProviderStatic uses hash-based embeddings (offline, deterministic)
	ProviderStatic ProviderType = "static"
)

// Config selects and configures a provider.
type Config struct {
	Provider   ProviderType
	Model      string
	Host       string // Ollama host or OpenAI-compatible base URL
	APIKey     string
	Dimensions int
	BatchSize  int
	Timeout    time.Duration

	// CacheSize enables the query cache when positive.
	CacheSize int
}

// ParseProvider converts a string to a ProviderType.
// Returns an error for unknown providers.
func ParseProvider(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ollama":
		return ProviderOllama, nil
	case "openai":
		return ProviderOpenAI, nil
	case "gemini":
		return ProviderGemini, nil
	case "static":
		return ProviderStatic, nil
	default:
		return "", fmt.Errorf("unknown embedding provider %q (valid: %s)", s, strings.Join(ValidProviders(), ", "))
	}
}

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	return string(p)
}

// ValidProviders returns the names of all providers.
func ValidProviders() []string {
	return []string{string(ProviderOllama), string(ProviderOpenAI), string(ProviderGemini), string(ProviderStatic)}
}

// NewEmbedder creates the configured embedder, wrapped with the query cache
// when CacheSize > 0. There is no silent fallback between providers.
func NewEmbedder(cfg Config) (Embedder, error) {
	var (
		embedder Embedder
		err      error
	)

	switch cfg.Provider {
	case ProviderOllama, "":
		embedder = NewOllamaEmbedder(OllamaConfig{
			Host:       cfg.Host,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
			Timeout:    cfg.Timeout,
		})
	case ProviderOpenAI:
		embedder, err = NewOpenAIEmbedder(OpenAIConfig{
			BaseURL:    cfg.Host,
			Token:      cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	case ProviderGemini:
		embedder, err = NewGeminiEmbedder(GeminiConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	case ProviderStatic:
		embedder = NewStaticEmbedderWithDimensions(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("embedder_created",
		slog.String("provider", cfg.Provider.String()),
		slog.String("model", embedder.ModelName()),
		slog.Int("cache_size", cfg.CacheSize))

	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(embedder, cfg.CacheSize), nil
	}
	return embedder, nil
}
