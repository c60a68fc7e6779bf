// Package mcp serves the retrieval engine as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"

	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
)

// MCP error codes. Each failure kind a client may react to has its own code.
const (
	ErrCodeIndexNotFound     = -32001
	ErrCodeEmbeddingFailed   = -32002
	ErrCodeTimeout           = -32003
	ErrCodeEmptyCorpus       = -32004
	ErrCodeIndexNotReady     = -32005
	ErrCodeInvalidMode       = -32006
	ErrCodeGenerationFailed  = -32007
	ErrCodeDimensionMismatch = -32008

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is a protocol error with a code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts an error to an MCPError. Nil maps to nil.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	}

	re, ok := ragerrors.As(err)
	if !ok {
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}

	message := re.Message
	if re.Suggestion != "" {
		message = fmt.Sprintf("%s. %s.", re.Message, re.Suggestion)
	}

	code := ErrCodeInternalError
	switch re.Code {
	case ragerrors.ErrCodeIndexNotFound, ragerrors.ErrCodeCorruptIndex:
		code = ErrCodeIndexNotFound
	case ragerrors.ErrCodeEmbeddingProvider:
		code = ErrCodeEmbeddingFailed
	case ragerrors.ErrCodeEmptyCorpus:
		code = ErrCodeEmptyCorpus
	case ragerrors.ErrCodeIndexNotReady:
		code = ErrCodeIndexNotReady
	case ragerrors.ErrCodeInvalidMode:
		code = ErrCodeInvalidMode
	case ragerrors.ErrCodeGenerationFailed:
		code = ErrCodeGenerationFailed
	case ragerrors.ErrCodeDimensionMismatch:
		code = ErrCodeDimensionMismatch
	case ragerrors.ErrCodeInvalidInput, ragerrors.ErrCodeQueryEmpty:
		code = ErrCodeInvalidParams
	}
	return &MCPError{Code: code, Message: message}
}

// NewInvalidParamsError creates an invalid parameters error.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for an unknown tool.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Tool '%s' not found.", name)}
}
