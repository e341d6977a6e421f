package loom

import (
	"fmt"
	"strings"
)

// InvalidTokenError is returned when a value passed where a token is expected
// is not one of the accepted token flavors.
type InvalidTokenError struct {
	Value any
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid token: %v (%T) is not a type, prototype, *loom.Key, or loom.Symbol", e.Value, e.Value)
}

// NoProviderError is returned when a canonical token has no registered
// provider at resolution time.
type NoProviderError struct {
	Token string
}

func (e *NoProviderError) Error() string {
	return fmt.Sprintf("no provider registered for token %s", e.Token)
}

// InvalidProviderError is returned when a registration does not match any
// provider shape, or when a constructible type lacks the required metadata.
type InvalidProviderError struct {
	Reason string
}

func (e *InvalidProviderError) Error() string {
	return fmt.Sprintf("invalid provider: %s", e.Reason)
}

// InvalidModuleError is returned when a value presented for module loading is
// not a valid module descriptor.
type InvalidModuleError struct {
	Reason string
}

func (e *InvalidModuleError) Error() string {
	return fmt.Sprintf("invalid module: %s", e.Reason)
}

// CircularDependencyError is returned when resolution re-enters a token that
// is already being resolved. Path lists the tokens from the first entry to
// the repeated one.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return "circular dependency detected"
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}
