package errors

import (
	"errors"
)

// As is errors.As, re-exported so callers importing this package need not alias the stdlib one.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is, re-exported for the same reason as As.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// New is errors.New.
func New(text string) error {
	return errors.New(text)
}

// Wrap wraps an error with additional context, creating a PackError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *PackError {
	if err == nil {
		return nil
	}

	var pe *PackError
	if errors.As(err, &pe) {
		return &PackError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       pe,
			Context:     pe.Context,
			Asset:       pe.Asset,
			Input:       pe.Input,
			Recoverable: pe.Recoverable,
		}
	}

	return &PackError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeNotFound,
	}
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *PackError {
	pe := Wrap(err, ErrorTypeConfig, code, message)
	if pe != nil {
		pe.Recoverable = false
	}
	return pe
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *PackError {
	pe := Wrap(err, ErrorTypeIO, code, message)
	if pe != nil {
		pe.Recoverable = false
	}
	return pe
}

// AttachAsset sets the asset on err when it is a PackError without one.
func AttachAsset(err error, asset string) error {
	var pe *PackError
	if errors.As(err, &pe) && pe.Asset == "" {
		pe.Asset = asset
	}
	return err
}

// GetErrorContext extracts context information from a PackError
func GetErrorContext(err error) map[string]interface{} {
	var pe *PackError
	if errors.As(err, &pe) {
		context := make(map[string]interface{})
		for k, v := range pe.Context {
			context[k] = v
		}
		if pe.Asset != "" {
			context["asset"] = pe.Asset
		}
		if pe.Input != "" {
			context["input"] = pe.Input
		}
		context["type"] = string(pe.Type)
		context["code"] = pe.Code
		context["recoverable"] = pe.Recoverable
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}
