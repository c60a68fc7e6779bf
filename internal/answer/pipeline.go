package answer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Aman-CERP/docrag/internal/chunk"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
	"github.com/Aman-CERP/docrag/internal/search"
)

// MinQuestionLength is the shortest question accepted, in runes.
const MinQuestionLength = 3

// Retriever returns the context chunks for a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, mode search.Mode) ([]chunk.Chunk, error)
}

// Answer is the result of one question.
type Answer struct {
	Answer    string   `json:"answer"`
	Context   []string `json:"context"`
	Sources   []string `json:"sources"`
	LatencyMs float64  `json:"latency_ms"`
	Mode      string   `json:"mode"`
}

// Pipeline retrieves context, builds the prompt and generates an answer.
type Pipeline struct {
	retriever Retriever
	generator Generator
	retry     ragerrors.RetryConfig
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRetry retries generation with cfg. The default runs it once.
func WithRetry(cfg ragerrors.RetryConfig) Option {
	return func(p *Pipeline) {
		p.retry = cfg
	}
}

// NewPipeline creates a pipeline.
func NewPipeline(retriever Retriever, generator Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		retriever: retriever,
		generator: generator,
		retry:     ragerrors.NoRetry(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Answer answers question from chunks retrieved in mode. Latency covers
// retrieval and generation.
func (p *Pipeline) Answer(ctx context.Context, question string, mode search.Mode) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ragerrors.New(ragerrors.ErrCodeQueryEmpty, "question is empty", nil)
	}
	if len([]rune(question)) < MinQuestionLength {
		return nil, ragerrors.ValidationError("question is too short", nil).
			WithDetail("min_length", "3")
	}

	start := time.Now()
	chunks, err := p.retriever.Retrieve(ctx, question, mode)
	if err != nil {
		return nil, err
	}

	contextTexts := make([]string, len(chunks))
	sources := make([]string, 0, len(chunks))
	seen := make(map[string]bool)
	for i, c := range chunks {
		contextTexts[i] = c.Text
		if !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}

	prompt := BuildPrompt(question, contextTexts)
	text, err := ragerrors.RetryWithResult(ctx, p.retry, func(ctx context.Context) (string, error) {
		out, err := p.generator.Generate(ctx, prompt)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", ragerrors.New(ragerrors.ErrCodeGenerationFailed, "generation failed", err).
				WithDetail("model", p.generator.ModelName())
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	latency := time.Since(start)
	slog.Info("answer_generated",
		slog.String("mode", mode.String()),
		slog.Int("context_chunks", len(chunks)),
		slog.Duration("latency", latency))

	return &Answer{
		Answer:    text,
		Context:   contextTexts,
		Sources:   sources,
		LatencyMs: float64(latency.Microseconds()) / 1000.0,
		Mode:      mode.String(),
	}, nil
}
