package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Generation defaults.
const (
	DefaultModel       = "llama3"
	DefaultTemperature = 0.1
	DefaultOllamaHost  = "http://localhost:11434"
)

// Generator produces an answer for a complete prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// LLMGenerator adapts a langchaingo model to Generator.
type LLMGenerator struct {
	model       llms.Model
	name        string
	temperature float64
}

// NewLLMGenerator wraps model. name is reported by ModelName.
func NewLLMGenerator(model llms.Model, name string, temperature float64) *LLMGenerator {
	return &LLMGenerator{model: model, name: name, temperature: temperature}
}

// OllamaConfig configures the Ollama generator.
type OllamaConfig struct {
	Host        string
	Model       string
	Temperature float64
}

// NewOllamaGenerator creates a generator backed by a local Ollama server.
// No request is made until Generate.
func NewOllamaGenerator(cfg OllamaConfig) (*LLMGenerator, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}

	model, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(cfg.Host),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return NewLLMGenerator(model, cfg.Model, cfg.Temperature), nil
}

// Generate sends prompt as a single human message.
func (g *LLMGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := g.model.GenerateContent(ctx, content, llms.WithTemperature(g.temperature))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", g.name)
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// ModelName returns the model identifier.
func (g *LLMGenerator) ModelName() string {
	return g.name
}
