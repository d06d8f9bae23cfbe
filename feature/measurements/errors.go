package measurements

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRunNotFound is returned when a stored run does not exist.
var ErrRunNotFound = errors.New("run not found")

// ErrStoreDisabled is returned when persistence is requested without a database.
var ErrStoreDisabled = errors.New("run store is not configured")

// ErrStorageDisabled is returned when object storage is needed but not configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// ConfigError indicates a malformed or incomplete extraction document.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid extraction document: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid extraction document: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// SchemaError indicates the record stream lacks required columns.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("record stream is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	var cfgErr *ConfigError
	var schemaErr *SchemaError
	return errors.As(err, &cfgErr) || errors.As(err, &schemaErr)
}
