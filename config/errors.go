package config

import "fmt"

// ConfigurationError reports a configuration that cannot be run: a
// non-positive size or count, a footprint larger than the memory available,
// or a scalar that would overflow the arrays. It is fatal for the target.
type ConfigurationError struct {
	// Field is the offending configuration field.
	Field string
	// Value is the rejected value.
	Value interface{}
	// Reason explains the rejection.
	Reason string
	// Err is the underlying error, if any (e.g. an allocation failure).
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s=%v %s: %v", e.Field, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration: %s=%v %s", e.Field, e.Value, e.Reason)
}

// Unwrap allows error chain inspection.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func invalid(field string, value interface{}, reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}
