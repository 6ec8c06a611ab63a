// Package apperr defines the error kinds surfaced by the catalog and diary
// services. Transport layers map each kind to a distinct response.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnauthenticated is returned when an operation needs a principal and none was supplied.
var ErrUnauthenticated = errors.New("authentication credentials were not provided")

// ValidationError carries field-keyed messages.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidation(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field has been flagged.
func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// Err returns e as an error, or nil when nothing was flagged.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// PermissionDeniedError is an ownership or role violation.
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string { return e.Reason }

func PermissionDenied(format string, args ...any) *PermissionDeniedError {
	return &PermissionDeniedError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing referenced record.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func NotFound(resource string, id uint) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError is a uniqueness violation raised by the store.
type ConflictError struct {
	Resource string
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflicts with an existing record", e.Resource)
}

func (e *ConflictError) Unwrap() error { return e.Err }
