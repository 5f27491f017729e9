package surql

import "fmt"

// MissingTargetError is returned when a builder is asked to render before
// a mandatory part of the statement has been set.
type MissingTargetError struct {
	Builder string
	Part    string
}

// Error returns the error message for MissingTargetError.
func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("surql: %s statement is missing its %s", e.Builder, e.Part)
}

// ConfigurationError is returned when a builder is configured in a way
// that cannot produce a valid statement, such as requesting field
// encryption without a pipeline.
type ConfigurationError struct {
	Builder string
	Message string
}

// Error returns the error message for ConfigurationError.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("surql: %s: %s", e.Builder, e.Message)
}
