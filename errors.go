package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// =====================================
// Error Handling
// =====================================

// Error represents a record-specific error
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Code    string
}

// Error implements the error interface
func (e Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e Error) Is(target error) bool {
	if targetErr, ok := target.(Error); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// NewError creates a new Error
func NewError(errorType ErrorType, message string) Error {
	return Error{
		Type:    errorType,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error with a cause
func NewErrorWithCause(errorType ErrorType, message string, cause error) Error {
	return Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewErrorWithCode creates a new Error with a code
func NewErrorWithCode(errorType ErrorType, message string, code string) Error {
	return Error{
		Type:    errorType,
		Message: message,
		Code:    code,
	}
}

// IsErrorType checks if an error, or any error it wraps, is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	var recErr Error
	if errors.As(err, &recErr) {
		return recErr.Type == errorType
	}
	return false
}

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

// IsSchemaResolution checks if an error came from table introspection
func IsSchemaResolution(err error) bool {
	return IsErrorType(err, ErrorTypeSchemaResolution)
}

// IsUnknownAttribute checks if construction was given a name with no column
func IsUnknownAttribute(err error) bool {
	return IsErrorType(err, ErrorTypeUnknownAttribute)
}

// IsValidation checks if an error is a "validation" error
func IsValidation(err error) bool {
	return IsErrorType(err, ErrorTypeValidation)
}

// IsDuplicate checks if an error is a "duplicate" error
func IsDuplicate(err error) bool {
	return IsErrorType(err, ErrorTypeDuplicate)
}

// IsConnection checks if an error is a "connection" error
func IsConnection(err error) bool {
	return IsErrorType(err, ErrorTypeConnection)
}

// IsStoreExecution reports whether err was raised by the store while executing a
// statement, as opposed to a schema, attribute or validation problem.
func IsStoreExecution(err error) bool {
	var recErr Error
	if !errors.As(err, &recErr) {
		return false
	}
	switch recErr.Type {
	case ErrorTypeDatabase, ErrorTypeDuplicate, ErrorTypeConstraint,
		ErrorTypeConnection, ErrorTypeTimeout:
		return true
	}
	return false
}

// ConvertError classifies a driver error into an Error. Errors that are already
// classified pass through unchanged.
func ConvertError(err error) error {
	if err == nil {
		return nil
	}

	var recErr Error
	if errors.As(err, &recErr) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Error{
			Type:    ErrorTypeNotFound,
			Message: "record not found",
			Cause:   err,
		}
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "timeout"):
		return Error{
			Type:    ErrorTypeTimeout,
			Message: "operation timeout",
			Cause:   err,
		}
	case strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key"):
		return Error{
			Type:    ErrorTypeDuplicate,
			Message: "duplicate key violation",
			Cause:   err,
		}
	case strings.Contains(msg, "foreign key") || strings.Contains(msg, "constraint"):
		return Error{
			Type:    ErrorTypeConstraint,
			Message: "constraint violation",
			Cause:   err,
		}
	case errors.Is(err, sql.ErrConnDone) || strings.Contains(msg, "connection"):
		return Error{
			Type:    ErrorTypeConnection,
			Message: "connection error",
			Cause:   err,
		}
	default:
		return Error{
			Type:    ErrorTypeDatabase,
			Message: "database operation failed",
			Cause:   err,
		}
	}
}
