package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/docrag/internal/embed"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
	"github.com/Aman-CERP/docrag/internal/scanner"
	"github.com/Aman-CERP/docrag/internal/store"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// CheckResult holds the result of a single check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Target is what the checks inspect. Nil or empty fields skip their check.
type Target struct {
	Source         scanner.Source
	DocumentsDir   string
	VectorStoreDir string
	Collection     string
	Embedder       embed.Embedder

	// OllamaHost and GenerationModel select the answer model probe.
	OllamaHost      string
	GenerationModel string
}

// Checker runs the checks against one Target.
type Checker struct {
	target Target
	ollama *OllamaProbe
}

// New creates a Checker.
func New(target Target) *Checker {
	c := &Checker{target: target}
	if target.GenerationModel != "" {
		c.ollama = NewOllamaProbe(target.OllamaHost)
	}
	return c
}

// RunAll runs every applicable check in a fixed order.
func (c *Checker) RunAll(ctx context.Context) []CheckResult {
	var results []CheckResult

	if c.target.Source != nil {
		results = append(results, c.CheckDocuments(ctx))
	}
	if c.target.VectorStoreDir != "" {
		results = append(results,
			c.CheckDiskSpace(c.target.VectorStoreDir),
			c.CheckWritePermissions(c.target.VectorStoreDir),
			c.CheckSemanticIndex(ctx))
	}
	if c.target.Embedder != nil {
		results = append(results, c.CheckEmbedder(ctx))
	}
	if c.ollama != nil {
		results = append(results, c.CheckGenerator(ctx))
	}

	for _, r := range results {
		slog.Debug("preflight_check",
			slog.String("check", r.Name),
			slog.String("status", r.Status.String()),
			slog.String("message", r.Message))
	}
	return results
}

// HasCriticalFailures returns true if any required check failed.
func HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns "failed", "ready_with_warnings" or "ready".
func SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status == StatusWarn || r.Status == StatusFail {
			hasWarnings = true
		}
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// CheckDocuments loads the corpus and reports how many documents it holds.
func (c *Checker) CheckDocuments(ctx context.Context) CheckResult {
	result := CheckResult{Name: "documents", Required: true, Details: c.target.DocumentsDir}

	docs, err := c.target.Source.LoadAll(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = describe(err)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d documents", len(docs))
	return result
}

// CheckWritePermissions checks that the vector store directory, or its
// nearest existing parent, is writable.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{Name: "write_permissions", Required: true}

	existing := nearestExisting(dir)
	result.Details = existing

	f, err := os.CreateTemp(existing, ".docrag-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	result.Status = StatusPass
	result.Message = "OK"
	return result
}

// CheckSemanticIndex reports the persisted collection. A missing collection
// is a warning: lexical retrieval still works.
func (c *Checker) CheckSemanticIndex(ctx context.Context) CheckResult {
	result := CheckResult{Name: "semantic_index"}

	info, err := store.ReadCollectionInfo(ctx, c.target.VectorStoreDir, c.target.Collection)
	switch {
	case ragerrors.GetCode(err) == ragerrors.ErrCodeIndexNotFound:
		result.Status = StatusWarn
		result.Message = "not built (run 'docrag index')"
	case err != nil:
		result.Status = StatusFail
		result.Message = describe(err)
	default:
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%q: %d chunks, %d dims, %s", info.Name, info.Count, info.Dimensions, info.Model)
		if c.target.Embedder != nil && c.target.Embedder.ModelName() != info.Model {
			result.Status = StatusWarn
			result.Details = fmt.Sprintf("built with %s, configured embedder is %s", info.Model, c.target.Embedder.ModelName())
		}
	}
	return result
}

// CheckEmbedder embeds a probe text. Semantic retrieval needs it; lexical
// does not, so a failure is not critical.
func (c *Checker) CheckEmbedder(ctx context.Context) CheckResult {
	result := CheckResult{Name: "embedder", Details: c.target.Embedder.ModelName()}

	vec, err := c.target.Embedder.Embed(ctx, "docrag preflight")
	if err != nil {
		result.Status = StatusFail
		result.Message = describe(err)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s (%d dims)", c.target.Embedder.ModelName(), len(vec))
	return result
}

// CheckGenerator checks that Ollama answers and has the answer model.
func (c *Checker) CheckGenerator(ctx context.Context) CheckResult {
	result := CheckResult{Name: "answer_model", Details: c.ollama.Host()}

	ok, err := c.ollama.HasModel(ctx, c.target.GenerationModel)
	switch {
	case err != nil:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("Ollama not reachable: %v", err)
	case !ok:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("model %s not pulled (run 'ollama pull %s')", c.target.GenerationModel, c.target.GenerationModel)
	default:
		result.Status = StatusPass
		result.Message = c.target.GenerationModel
	}
	return result
}

func describe(err error) string {
	if re, ok := ragerrors.As(err); ok {
		return re.Message
	}
	return err.Error()
}

func nearestExisting(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
