package mapping

import (
	"errors"
	"fmt"
)

// MappingError reports a property that cannot be mapped or a field
// reference that cannot be resolved.
type MappingError struct {
	// Entity is the entity type name, when known.
	Entity string

	// Property is the property or field name involved.
	Property string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	target := e.Property
	if e.Entity != "" {
		target = e.Entity + "." + e.Property
	}
	if e.Err != nil {
		return fmt.Sprintf("mapping %s: %s: %v", target, e.Message, e.Err)
	}
	return fmt.Sprintf("mapping %s: %s", target, e.Message)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// IsMappingError returns true if err is or wraps a *MappingError.
func IsMappingError(err error) bool {
	var me *MappingError
	return errors.As(err, &me)
}
