package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for terminal download outcomes.
var (
	// ErrCancelled marks a user-initiated stop. Never retried.
	ErrCancelled = errors.New("download cancelled")

	// ErrMetadataFetch marks a failed or empty playlist listing. Aborts
	// the sync for that playlist only.
	ErrMetadataFetch = errors.New("playlist metadata fetch failed")
)

// ConfigurationError reports invalid batch or job settings. It is
// surfaced before any job is created.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
