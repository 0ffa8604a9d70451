// Package errors provides custom error types for the kinmap system.
// These errors enable programmatic error checking across the graph,
// codec, reconciler and store layers.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// As and Is mirror the standard library so callers need one errors import.
var (
	As = errors.As
	Is = errors.Is
)

// Common sentinel errors for the kinmap system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedKey indicates a frontmatter key that cannot be mapped to a relationship
	ErrMalformedKey = errors.New("malformed key")

	// ErrUnresolved indicates a relationship target that does not resolve to a contact
	ErrUnresolved = errors.New("unresolved target")

	// ErrRevisionConflict indicates the stored text changed since it was read
	ErrRevisionConflict = errors.New("revision conflict")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrReadOnly indicates an attempt to modify a read-only resource
	ErrReadOnly = errors.New("read only")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// UnknownContactError is returned by edge operations that reference a
// contact missing from the graph.
type UnknownContactError struct {
	UID string
}

// Error implements the error interface
func (e *UnknownContactError) Error() string {
	return fmt.Sprintf("unknown contact %q", e.UID)
}

// Is implements errors.Is support
func (e *UnknownContactError) Is(target error) bool {
	return target == ErrNotFound
}

// NewUnknownContactError creates a new UnknownContactError
func NewUnknownContactError(uid string) *UnknownContactError {
	return &UnknownContactError{UID: uid}
}

// SelfLoopError is returned when an edge would connect a contact to itself.
type SelfLoopError struct {
	UID  string
	Type string
}

// Error implements the error interface
func (e *SelfLoopError) Error() string {
	return fmt.Sprintf("self-loop rejected: %s cannot be %s of itself", e.UID, e.Type)
}

// Is implements errors.Is support
func (e *SelfLoopError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewSelfLoopError creates a new SelfLoopError
func NewSelfLoopError(uid, relType string) *SelfLoopError {
	return &SelfLoopError{UID: uid, Type: relType}
}

// MalformedKeyError describes a RELATED key that was dropped while decoding.
type MalformedKeyError struct {
	Key     string
	Value   string
	Message string
}

// Error implements the error interface
func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("malformed key %s (value %q dropped): %s", e.Key, e.Value, e.Message)
}

// Is implements errors.Is support
func (e *MalformedKeyError) Is(target error) bool {
	return target == ErrMalformedKey
}

// NewMalformedKeyError creates a new MalformedKeyError
func NewMalformedKeyError(key, value, message string) *MalformedKeyError {
	return &MalformedKeyError{Key: key, Value: value, Message: message}
}

// UnresolvedTargetError reports a relationship whose target could not be
// matched to a contact. The relationship stays in text form.
type UnresolvedTargetError struct {
	Contact   string
	Type      string
	Reference string
}

// Error implements the error interface
func (e *UnresolvedTargetError) Error() string {
	return fmt.Sprintf("contact %s: %s target %s does not resolve", e.Contact, e.Type, e.Reference)
}

// Is implements errors.Is support
func (e *UnresolvedTargetError) Is(target error) bool {
	return target == ErrUnresolved
}

// NewUnresolvedTargetError creates a new UnresolvedTargetError
func NewUnresolvedTargetError(contact, relType, reference string) *UnresolvedTargetError {
	return &UnresolvedTargetError{Contact: contact, Type: relType, Reference: reference}
}

// RevisionConflictError is returned when a contact's text changed between
// the read and the write of a reconciliation.
type RevisionConflictError struct {
	UID      string
	Expected uint64
	Actual   uint64
	Attempts int
}

// Error implements the error interface
func (e *RevisionConflictError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("revision conflict for %s after %d attempts: read %d, now %d", e.UID, e.Attempts, e.Expected, e.Actual)
	}
	return fmt.Sprintf("revision conflict for %s: read %d, now %d", e.UID, e.Expected, e.Actual)
}

// Is implements errors.Is support
func (e *RevisionConflictError) Is(target error) bool {
	return target == ErrRevisionConflict
}

// NewRevisionConflictError creates a new RevisionConflictError
func NewRevisionConflictError(uid string, expected, actual uint64) *RevisionConflictError {
	return &RevisionConflictError{UID: uid, Expected: expected, Actual: actual}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMalformedKey checks if an error is a malformed frontmatter key diagnostic
func IsMalformedKey(err error) bool {
	return errors.Is(err, ErrMalformedKey)
}

// IsUnresolved checks if an error is an unresolved target
func IsUnresolved(err error) bool {
	return errors.Is(err, ErrUnresolved)
}

// IsRevisionConflict checks if an error is a revision conflict
func IsRevisionConflict(err error) bool {
	return errors.Is(err, ErrRevisionConflict)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "yaml", "markdown", etc.
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d:%d: %s", e.Format, e.File, e.Line, e.Column, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "read", "write", "reconcile", "resolve"
	Resource  string // "contact", "vault", "graph"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
