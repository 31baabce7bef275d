// Package errors defines the structured error taxonomy used across assetpack.
//
// Errors fall into a small set of types. Configuration and processor errors are
// fatal for the pack attempt that raised them, missing inputs are reportable
// (the asset is still packed from whatever resolved) and I/O errors surface to
// the caller of the pack operation.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeProcessor  ErrorType = "processor"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeUnknownProcessor = "ERR_UNKNOWN_PROCESSOR"
	ErrCodeInvalidSpec      = "ERR_INVALID_SPEC"
	ErrCodeInputNotFound    = "ERR_INPUT_NOT_FOUND"
	ErrCodeAssetNotFound    = "ERR_ASSET_NOT_FOUND"
	ErrCodeProcessorFailed  = "ERR_PROCESSOR_FAILED"
	ErrCodeWriteFailed      = "ERR_WRITE_FAILED"
	ErrCodeReadFailed       = "ERR_READ_FAILED"
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeEncoding         = "ERR_ENCODING"
	ErrCodeListen           = "ERR_LISTEN"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// PackError is a structured error type with context.
type PackError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Asset       string
	Input       string
	Recoverable bool
}

// Error implements the error interface.
func (e *PackError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Asset != "" {
		parts = append(parts, "asset:"+e.Asset)
	}

	if e.Input != "" {
		parts = append(parts, "input:"+e.Input)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PackError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *PackError) Is(target error) bool {
	var t *PackError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *PackError) WithContext(key string, value interface{}) *PackError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithAsset attaches the asset the error belongs to.
func (e *PackError) WithAsset(asset string) *PackError {
	e.Asset = asset

	return e
}

// WithInput attaches the input the error belongs to.
func (e *PackError) WithInput(input string) *PackError {
	e.Input = input

	return e
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PackError {
	return &PackError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *PackError {
	return &PackError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewNotFoundError creates a not-found error. These are reportable, not fatal.
func NewNotFoundError(code, message string) *PackError {
	return &PackError{
		Type:        ErrorTypeNotFound,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewProcessorError creates a processor execution error.
func NewProcessorError(code, message string, cause error) *PackError {
	return &PackError{
		Type:        ErrorTypeProcessor,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *PackError {
	return &PackError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PackError {
	return &PackError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

func isType(err error, typ ErrorType) bool {
	var pe *PackError
	if errors.As(err, &pe) {
		return pe.Type == typ
	}

	return false
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var pe *PackError
	if errors.As(err, &pe) {
		return pe.Recoverable
	}

	return false
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool {
	return isType(err, ErrorTypeConfig)
}

// IsNotFound checks if an error reports a missing input or asset.
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsProcessorError checks if an error came from a processor.
func IsProcessorError(err error) bool {
	return isType(err, ErrorTypeProcessor)
}

// IsIOError checks if an error is an I/O failure.
func IsIOError(err error) bool {
	return isType(err, ErrorTypeIO)
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level that matches its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var pe *PackError
	if !errors.As(err, &pe) {
		h.logger.Error(ctx, err, "Unhandled error occurred")

		return
	}

	switch pe.Type {
	case ErrorTypeNotFound:
		h.logger.Warn(ctx, err, "Input not found",
			"code", pe.Code,
			"asset", pe.Asset,
			"input", pe.Input)
	case ErrorTypeValidation:
		h.logger.Warn(ctx, err, "Validation error occurred",
			"code", pe.Code,
			"asset", pe.Asset)
	case ErrorTypeProcessor:
		h.logger.Error(ctx, err, "Processor failed",
			"code", pe.Code,
			"asset", pe.Asset,
			"input", pe.Input)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", pe.Type,
			"code", pe.Code,
			"asset", pe.Asset)
	}
}

// ErrUnknownProcessor creates the fatal error raised for unregistered processor names.
func ErrUnknownProcessor(name string) *PackError {
	return NewConfigError(ErrCodeUnknownProcessor, "unknown processor: "+name).
		WithContext("processor", name)
}

// ErrInvalidSpec creates a configuration error for a malformed input spec.
func ErrInvalidSpec(spec interface{}) *PackError {
	return NewConfigError(ErrCodeInvalidSpec, fmt.Sprintf("unknown input type: %v", spec))
}

// ErrInvalidDepends creates a configuration error for a dependency glob that
// cannot be parsed.
func ErrInvalidDepends(pattern string, cause error) *PackError {
	return NewConfigError(ErrCodeInvalidSpec, "invalid dependency pattern: "+pattern).
		WithContext("pattern", pattern).
		withCause(cause)
}

// ErrInputNotFound creates the reportable error for an input no search root contains.
func ErrInputNotFound(input string) *PackError {
	return NewNotFoundError(ErrCodeInputNotFound, "input not found").WithInput(input)
}

// ErrAssetNotFound creates the error for a request naming an unknown asset.
func ErrAssetNotFound(asset string) *PackError {
	return NewNotFoundError(ErrCodeAssetNotFound, "asset not found").WithAsset(asset)
}

// ErrProcessorFailed wraps a processor failure.
func ErrProcessorFailed(processor, input string, cause error) *PackError {
	return NewProcessorError(ErrCodeProcessorFailed, "processor "+processor+" failed", cause).
		WithInput(input).
		WithContext("processor", processor)
}

// ErrWriteFailed wraps an output write failure.
func ErrWriteFailed(path string, cause error) *PackError {
	return NewIOError(ErrCodeWriteFailed, "failed to write "+path, cause).
		WithContext("path", path)
}

// ErrReadFailed wraps an input read or stat failure.
func ErrReadFailed(path string, cause error) *PackError {
	return NewIOError(ErrCodeReadFailed, "failed to read "+path, cause).
		WithContext("path", path)
}

// ErrInvalidPath creates a path validation error.
func ErrInvalidPath(path string) *PackError {
	return NewConfigError(ErrCodeInvalidPath, "invalid path: "+path)
}

// ErrEncoding wraps a charset lookup or encoding failure.
func ErrEncoding(charset string, cause error) *PackError {
	return NewConfigError(ErrCodeEncoding, "cannot encode output as "+charset).
		WithContext("charset", charset).
		withCause(cause)
}

func (e *PackError) withCause(cause error) *PackError {
	e.Cause = cause

	return e
}
