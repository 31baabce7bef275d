package errors

import (
	"sync"
)

// ErrorCollector gathers reportable errors from concurrent pack operations.
type ErrorCollector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// AddError adds an error to the collector. Nil errors are ignored.
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// AddErrors adds every non-nil error in errs.
func (ec *ErrorCollector) AddErrors(errs ...error) {
	for _, err := range errs {
		ec.AddError(err)
	}
}

// GetAllErrors returns a copy of all collected errors
func (ec *ErrorCollector) GetAllErrors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]error, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// GetErrorsByAsset returns the collected errors attached to asset.
func (ec *ErrorCollector) GetErrorsByAsset(asset string) []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var assetErrors []error
	for _, err := range ec.errors {
		var pe *PackError
		if As(err, &pe) && pe.Asset == asset {
			assetErrors = append(assetErrors, err)
		}
	}
	return assetErrors
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors) > 0
}

// Len returns the number of collected errors.
func (ec *ErrorCollector) Len() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors)
}
