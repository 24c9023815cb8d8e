// Package apperrors defines application-level error types.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ParseIOError indicates a structured-text or env-file source could not be read.
type ParseIOError struct {
	Cause error
	Path  string
}

func (e *ParseIOError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Cause)
}

func (e *ParseIOError) Unwrap() error {
	return e.Cause
}

// NewParseIOError creates a new parse IO error.
func NewParseIOError(path string, cause error) *ParseIOError {
	return &ParseIOError{
		Path:  path,
		Cause: cause,
	}
}

// MetadataError indicates an engine metadata document is missing,
// malformed or inconsistent.
type MetadataError struct {
	Cause  error
	Engine string
	Reason string
}

func (e *MetadataError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("metadata error for engine %s: %s: %v", e.Engine, e.Reason, e.Cause)
	}
	return fmt.Sprintf("metadata error for engine %s: %s", e.Engine, e.Reason)
}

func (e *MetadataError) Unwrap() error {
	return e.Cause
}

// NewMetadataError creates a new metadata error.
func NewMetadataError(engine, reason string, cause error) *MetadataError {
	return &MetadataError{
		Engine: engine,
		Reason: reason,
		Cause:  cause,
	}
}

// MissingRequiredFieldError indicates a required key is absent or empty
// after the merge. Key is the first missing key; Missing lists all of them.
type MissingRequiredFieldError struct {
	Key     string
	Missing []string
}

func (e *MissingRequiredFieldError) Error() string {
	if len(e.Missing) > 1 {
		return fmt.Sprintf("missing required field %s (also missing: %s)", e.Key, strings.Join(e.Missing[1:], ", "))
	}
	return fmt.Sprintf("missing required field %s", e.Key)
}

// NewMissingRequiredFieldError creates a new missing field error.
// missing must be non-empty; its first entry names the error.
func NewMissingRequiredFieldError(missing []string) *MissingRequiredFieldError {
	return &MissingRequiredFieldError{
		Key:     missing[0],
		Missing: missing,
	}
}

// ValidationError indicates a validation rule rejected the resolved configuration.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(rule, message string) *ValidationError {
	return &ValidationError{
		Rule:    rule,
		Message: message,
	}
}

// ValidationErrors collects every rule violation of one validation run.
type ValidationErrors struct {
	Engine string
	Verb   string
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("validation failed for %s %s:\n  - %s", e.Engine, e.Verb, strings.Join(msgs, "\n  - "))
}

// Unwrap exposes the individual violations to errors.As and errors.Is.
func (e *ValidationErrors) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, v := range e.Errors {
		out[i] = v
	}
	return out
}

// Rules returns the names of the violated rules in report order.
func (e *ValidationErrors) Rules() []string {
	names := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		names[i] = v.Rule
	}
	return names
}

// StateError indicates an instance document could not be read or written.
type StateError struct {
	Cause error
	Op    string
	Path  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("instance state %s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *StateError) Unwrap() error {
	return e.Cause
}

// NewStateError creates a new state error.
func NewStateError(op, path string, cause error) *StateError {
	return &StateError{
		Op:    op,
		Path:  path,
		Cause: cause,
	}
}

// ErrInstanceNotFound is wrapped by errors about instances without a document.
var ErrInstanceNotFound = errors.New("instance not found")

// ConfigurationError indicates system config or setup issue.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}

// RuntimeError indicates the container runtime rejected an action.
type RuntimeError struct {
	Cause  error
	Action string
	Target string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime %s %s: %v", e.Action, e.Target, e.Cause)
}

func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// NewRuntimeError creates a new runtime error.
func NewRuntimeError(action, target string, cause error) *RuntimeError {
	return &RuntimeError{
		Action: action,
		Target: target,
		Cause:  cause,
	}
}
