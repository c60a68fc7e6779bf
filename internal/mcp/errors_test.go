package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
)

func TestMapError_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"index not found", ragerrors.IndexNotFound("missing", nil), ErrCodeIndexNotFound},
		{"corrupt index", ragerrors.New(ragerrors.ErrCodeCorruptIndex, "bad", nil), ErrCodeIndexNotFound},
		{"embedding", ragerrors.EmbeddingProvider("down", errors.New("x")), ErrCodeEmbeddingFailed},
		{"empty corpus", ragerrors.EmptyCorpus("none", nil), ErrCodeEmptyCorpus},
		{"not ready", ragerrors.IndexNotReady("building"), ErrCodeIndexNotReady},
		{"invalid mode", ragerrors.InvalidMode("fuzzy"), ErrCodeInvalidMode},
		{"dimension", ragerrors.New(ragerrors.ErrCodeDimensionMismatch, "dims", nil), ErrCodeDimensionMismatch},
		{"validation", ragerrors.ValidationError("short", nil), ErrCodeInvalidParams},
		{"wrapped", fmt.Errorf("outer: %w", ragerrors.IndexNotReady("x")), ErrCodeIndexNotReady},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", fmt.Errorf("op: %w", context.Canceled), ErrCodeTimeout},
		{"plain", errors.New("boom"), ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapError(tt.err).Code)
		})
	}
}

func TestMapError_NilAndPassthrough(t *testing.T) {
	assert.Nil(t, MapError(nil))

	orig := NewInvalidParamsError("bad")
	assert.Same(t, orig, MapError(orig))
}

func TestMapError_IncludesSuggestion(t *testing.T) {
	err := ragerrors.IndexNotFound("no semantic index", nil).WithSuggestion("Run 'docrag index'")

	got := MapError(err)

	assert.Contains(t, got.Message, "no semantic index")
	assert.Contains(t, got.Message, "Run 'docrag index'")
}

func TestMCPError_Error(t *testing.T) {
	err := &MCPError{Code: -32001, Message: "x"}
	assert.Equal(t, "MCP error -32001: x", err.Error())
}
