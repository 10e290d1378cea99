package crm

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/wolfeidau/leadtrack/internal/store"
)

var (
	// ErrNotFound is returned for records that are absent or outside the requester's scope.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when an agent invokes an organisor-only operation.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized is returned when no identity is present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConfiguration is returned when an organisation is missing its Converted category.
	ErrConfiguration = errors.New("configuration error")
)

// ValidationError carries per-field messages. Nothing is persisted when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add records a message for field, keeping the first message per field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Err returns the error when any field failed, or nil.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// fieldError builds a single-field validation error.
func fieldError(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// mapStoreError translates store sentinels into the service taxonomy.
func mapStoreError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrLeadNotFound),
		errors.Is(err, store.ErrCategoryNotFound),
		errors.Is(err, store.ErrAgentNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrOrganisationNotFound):
		return fmt.Errorf("%s: %w", action, ErrNotFound)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
