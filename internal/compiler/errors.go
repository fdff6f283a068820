package compiler

import (
	"errors"
	"fmt"
)

// QueryBuildError reports a predicate that cannot be turned into a query.
// It is always fatal to the compile that raised it.
type QueryBuildError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Field is the field reference involved, when known.
	Field string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause (optional).
	Err error
}

// ErrorCode categorizes query build errors.
type ErrorCode string

const (
	// ErrCodeTypeMismatch indicates a numeric bound whose Go type does not
	// match the field's declared numeric subtype.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnsupported indicates a query kind the field cannot serve.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"

	// ErrCodeInvalidNode indicates a malformed predicate node.
	ErrCodeInvalidNode ErrorCode = "INVALID_NODE"

	// ErrCodeInvalidPattern indicates a pattern the text parser rejected.
	ErrCodeInvalidPattern ErrorCode = "INVALID_PATTERN"
)

// Error implements the error interface.
func (e *QueryBuildError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *QueryBuildError) Unwrap() error {
	return e.Err
}

// IsQueryBuildError returns true if err is or wraps a *QueryBuildError.
func IsQueryBuildError(err error) bool {
	var qe *QueryBuildError
	return errors.As(err, &qe)
}

// IsTypeMismatch returns true if err is a numeric subtype mismatch.
func IsTypeMismatch(err error) bool {
	var qe *QueryBuildError
	if errors.As(err, &qe) {
		return qe.Code == ErrCodeTypeMismatch
	}
	return false
}
