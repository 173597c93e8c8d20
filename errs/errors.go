package errs

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrState          = errors.New("state error")
	ErrNamingConflict = errors.New("naming conflict")
	ErrColumnMismatch = errors.New("column mismatch")
	ErrNotFound       = errors.New("not found")
)

// Error carries one of the sentinel kinds above together with the component
// (slicer, metric, or slicer/metric pair) that raised it.
type Error struct {
	Kind      error
	Component string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Component != "" {
		msg += " in " + e.Component
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind error, component, format string, args ...interface{}) *Error {
	return &Error{
		Kind:      kind,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	}
}

func Configuration(component, format string, args ...interface{}) error {
	return newError(ErrConfiguration, component, format, args...)
}

func State(component, format string, args ...interface{}) error {
	return newError(ErrState, component, format, args...)
}

func NamingConflict(component, format string, args ...interface{}) error {
	return newError(ErrNamingConflict, component, format, args...)
}

func Column(component, format string, args ...interface{}) error {
	return newError(ErrColumnMismatch, component, format, args...)
}

func NotFound(component, format string, args ...interface{}) error {
	return newError(ErrNotFound, component, format, args...)
}

// Wrap attaches kind and component to an underlying error. A nil err stays nil.
func Wrap(kind error, component string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Component: component, Cause: err}
}
