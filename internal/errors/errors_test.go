package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRagError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := stderrors.New("connection refused")

	// When: wrapping as a provider error
	err := EmbeddingProvider("embedding request failed", originalErr)

	// Then: the chain reaches the original error
	require.NotNil(t, err)
	assert.True(t, stderrors.Is(err, originalErr))
	assert.Equal(t, originalErr, stderrors.Unwrap(err))
}

func TestRagError_Is_MatchesSentinelsByCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"empty corpus", EmptyCorpus("no documents", nil), ErrEmptyCorpus},
		{"index not found", IndexNotFound("missing", nil), ErrIndexNotFound},
		{"index not ready", IndexNotReady("not built"), ErrIndexNotReady},
		{"embedding provider", EmbeddingProvider("down", nil), ErrEmbeddingProvider},
		{"invalid mode", InvalidMode("fuzzy"), ErrInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, stderrors.Is(tt.err, tt.sentinel))

			// Wrapped with fmt.Errorf the match still holds
			wrapped := fmt.Errorf("retrieve: %w", tt.err)
			assert.True(t, stderrors.Is(wrapped, tt.sentinel))
		})
	}
}

func TestRagError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err := IndexNotFound("missing", nil)

	assert.False(t, stderrors.Is(err, ErrIndexNotReady))
	assert.False(t, stderrors.Is(err, ErrEmptyCorpus))
}

func TestRagError_Error_IncludesCodeAndCause(t *testing.T) {
	err := New(ErrCodeStorage, "open collection", stderrors.New("disk full"))

	assert.Equal(t, "[ERR_205_STORAGE] open collection: disk full", err.Error())

	wrapped := Wrap(ErrCodeInternal, stderrors.New("boom"))
	assert.Equal(t, "[ERR_501_INTERNAL] boom", wrapped.Error())
}

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError, false},
		{ErrCodeEmptyCorpus, CategoryIO, SeverityError, false},
		{ErrCodeCorruptIndex, CategoryIO, SeverityFatal, false},
		{ErrCodeEmbeddingProvider, CategoryNetwork, SeverityWarning, true},
		{ErrCodeInvalidMode, CategoryValidation, SeverityError, false},
		{ErrCodeIndexNotReady, CategoryInternal, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestWrap_KeepsExistingErrorWithSameCode(t *testing.T) {
	original := IndexNotFound("no collection", nil)

	assert.Same(t, original, Wrap(ErrCodeIndexNotFound, fmt.Errorf("load: %w", original)))
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestEmbeddingProvider_DoesNotDoubleWrap(t *testing.T) {
	inner := EmbeddingProvider("ollama returned 500", nil)

	outer := EmbeddingProvider("embed query", inner)

	assert.Same(t, inner, outer)
}

func TestGetCode_ReturnsEmptyForPlainErrors(t *testing.T) {
	assert.Equal(t, "", GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeInvalidMode, GetCode(fmt.Errorf("x: %w", InvalidMode("nope"))))
	assert.Equal(t, CategoryValidation, GetCategory(InvalidMode("nope")))
}

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	err := IndexNotFound("semantic index not found at data/vector_store", nil)

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: semantic index not found at data/vector_store")
	assert.Contains(t, out, "Hint: run 'docrag index'")
	assert.Contains(t, out, "Code: ERR_202_INDEX_NOT_FOUND")
}

func TestFormatJSON_WrapsPlainErrors(t *testing.T) {
	data, err := FormatJSON(stderrors.New("unexpected"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeInternal, decoded["code"])
	assert.Equal(t, "unexpected", decoded["message"])
}

func TestLogAttrs_SortsDetails(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad", nil).WithDetail("z", "1").WithDetail("a", "2")

	attrs := LogAttrs(err)

	// error_code, error, retryable, then details in key order
	require.Len(t, attrs, 5)
	assert.Contains(t, fmt.Sprint(attrs[3]), "detail_a")
	assert.Contains(t, fmt.Sprint(attrs[4]), "detail_z")
}

func TestRetryWithResult_RetriesRetryableErrors(t *testing.T) {
	// Given: a function failing twice with a retryable error
	calls := 0
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, Multiplier: 1, OnlyRetryable: true}

	// When: retrying
	result, err := RetryWithResult(context.Background(), cfg, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", EmbeddingProvider("timeout", nil)
		}
		return "ok", nil
	})

	// Then: the third attempt succeeds
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, Multiplier: 1, OnlyRetryable: true}

	err := Retry(context.Background(), cfg, func(context.Context) error {
		calls++
		return InvalidMode("bogus")
	})

	assert.True(t, stderrors.Is(err, ErrInvalidMode))
	assert.Equal(t, 1, calls)
}

func TestRetry_NoRetryRunsOnce(t *testing.T) {
	calls := 0
	sentinel := stderrors.New("fail")

	err := Retry(context.Background(), NoRetry(), func(context.Context) error {
		calls++
		return sentinel
	})

	assert.Same(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, DefaultRetryConfig(), func(context.Context) error {
		t.Fatal("must not be called")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
