package fieldenc

import "fmt"

// ConfigurationError is returned when a pipeline is built or used with
// settings that can never work, such as an out-of-range strength or a
// non-string value under a protected field.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error returns the error message for ConfigurationError.
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("fieldenc: %s", e.Message)
	}
	return fmt.Sprintf("fieldenc: field %q: %s", e.Field, e.Message)
}

// DecryptionError is returned when a stored value carries the encryption
// marker but cannot be reversed, typically because the ciphertext was
// tampered with or sealed under a different key.
type DecryptionError struct {
	Field string
	Cause error
}

// Error returns the error message for DecryptionError.
func (e *DecryptionError) Error() string {
	return fmt.Sprintf("fieldenc: field %q: %v", e.Field, e.Cause)
}

// Unwrap returns the underlying cause of the DecryptionError.
func (e *DecryptionError) Unwrap() error {
	return e.Cause
}
