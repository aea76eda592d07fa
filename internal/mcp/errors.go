// Package mcp serves the document index to MCP clients.
package mcp

import (
	"context"
	"errors"
	"fmt"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
)

// Custom MCP error codes for mdindex.
const (
	// ErrCodeIndexUnavailable indicates the index cannot be read.
	ErrCodeIndexUnavailable = -32001

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var ie *mderrors.IndexError
	if errors.As(err, &ie) {
		return mapIndexError(ie)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapIndexError(ie *mderrors.IndexError) *MCPError {
	message := ie.Message
	if ie.Cause != nil && ie.Cause.Error() != ie.Message {
		message = fmt.Sprintf("%s: %v", ie.Message, ie.Cause)
	}
	if ie.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", message, ie.Suggestion)
	}

	switch ie.Category {
	case mderrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case mderrors.CategoryIO:
		return &MCPError{Code: ErrCodeIndexUnavailable, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
