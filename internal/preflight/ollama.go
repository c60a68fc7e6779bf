package preflight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Aman-CERP/docrag/internal/answer"
	"github.com/Aman-CERP/docrag/pkg/version"
)

// OllamaProbe queries an Ollama server for its pulled models.
type OllamaProbe struct {
	host   string
	client *http.Client
}

// NewOllamaProbe creates a probe. Empty host means the local default.
func NewOllamaProbe(host string) *OllamaProbe {
	if host == "" {
		host = answer.DefaultOllamaHost
	}
	return &OllamaProbe{
		host:   strings.TrimRight(host, "/"),
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Host returns the probed server.
func (p *OllamaProbe) Host() string {
	return p.host
}

// ListModels returns the names of the pulled models.
func (p *OllamaProbe) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	models := make([]string, len(result.Models))
	for i, m := range result.Models {
		models[i] = m.Name
	}
	return models, nil
}

// HasModel reports whether model is pulled. "llama3" matches "llama3:latest".
func (p *OllamaProbe) HasModel(ctx context.Context, model string) (bool, error) {
	models, err := p.ListModels(ctx)
	if err != nil {
		return false, err
	}

	want := strings.ToLower(model)
	wantBase, _, _ := strings.Cut(want, ":")
	for _, available := range models {
		have := strings.ToLower(available)
		haveBase, _, _ := strings.Cut(have, ":")
		if have == want || haveBase == wantBase {
			return true, nil
		}
	}
	return false, nil
}
