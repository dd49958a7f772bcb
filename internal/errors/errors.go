// Package errors provides enhanced error handling with categorization and
// context for the BIMS reporting service.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory represents the category of an error for logging and grouping
type ErrorCategory string

const (
	CategoryDatabase      ErrorCategory = "database"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryNotFound      ErrorCategory = "not-found"
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryNetwork       ErrorCategory = "network"
	CategoryGeneric       ErrorCategory = "generic"
)

// EnhancedError wraps an error with additional context and categorization
type EnhancedError struct {
	Err       error
	component string
	category  ErrorCategory
	context   map[string]any
	timestamp time.Time
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap returns the wrapped error for errors.Is/As support
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is reports whether the wrapped error matches the target
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return errors.Is(ee.Err, other.Err)
	}
	return errors.Is(ee.Err, target)
}

// GetComponent returns the component that produced the error
func (ee *EnhancedError) GetComponent() string {
	return ee.component
}

// GetCategory returns the error category as a string
func (ee *EnhancedError) GetCategory() string {
	return string(ee.category)
}

// GetContext returns the context data attached to the error
func (ee *EnhancedError) GetContext() map[string]any {
	return ee.context
}

// GetTimestamp returns when the error was built
func (ee *EnhancedError) GetTimestamp() time.Time {
	return ee.timestamp
}

// ErrorBuilder provides a fluent interface for building enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new ErrorBuilder wrapping an existing error
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{
		err:      err,
		category: CategoryGeneric,
	}
}

// Newf creates a new ErrorBuilder from a format string
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds a key-value pair to the error context
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the EnhancedError
func (eb *ErrorBuilder) Build() *EnhancedError {
	return &EnhancedError{
		Err:       eb.err,
		component: eb.component,
		category:  eb.category,
		context:   eb.context,
		timestamp: time.Now(),
	}
}

// --- Standard library passthroughs so callers need a single import ---

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}

// NewStd creates a standard error without enhancement
func NewStd(text string) error {
	return errors.New(text)
}
