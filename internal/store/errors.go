package store

import (
	"errors"
	"fmt"
)

// Error codes for storage failures.
const (
	CodeConnection       = "storage.connection"        // open, pragma or close failure; fatal
	CodeQueryFailed      = "storage.query_failed"      // prepare or step failure
	CodeInvalidParameter = "storage.invalid_parameter" // value cannot be bound
	CodeInvalidData      = "storage.invalid_data"      // row cannot be decoded
	CodeNotFound         = "storage.not_found"         // expected row absent
)

// Error is the storage error type. Code is stable and can be matched with the
// Is* helpers. SQL, ID and Field are set when they help diagnose the failure.
type Error struct {
	Code    string
	Message string
	SQL     string
	ID      string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" [field: %s]", e.Field)
	}
	if e.SQL != "" {
		msg += fmt.Sprintf(" [sql: %s]", e.SQL)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (%v)", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ConnectionError reports a failure to open, configure or reach the database.
func ConnectionError(message string, cause error) *Error {
	return &Error{Code: CodeConnection, Message: message, Cause: cause}
}

// QueryError carries the engine diagnostic and the offending statement.
func QueryError(sql string, cause error) *Error {
	msg := "query failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Code: CodeQueryFailed, Message: msg, SQL: sql, Cause: cause}
}

// InvalidParameter reports a value of a type that cannot be bound.
func InvalidParameter(index int, v any) *Error {
	return &Error{
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf("parameter %d: unsupported type %T", index+1, v),
	}
}

// InvalidData reports a missing or malformed column.
func InvalidData(field, reason string) *Error {
	return &Error{
		Code:    CodeInvalidData,
		Message: fmt.Sprintf("field %q: %s", field, reason),
		Field:   field,
	}
}

// NotFound reports that no row exists for id.
func NotFound(resource, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
		ID:      id,
	}
}

var errNotConnected = ConnectionError("not connected", nil)

// Code returns the storage code of err, or "" when err is not a storage error.
func Code(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func IsNotFound(err error) bool { return Code(err) == CodeNotFound }
func IsConnectionError(err error) bool { return Code(err) == CodeConnection }
func IsQueryError(err error) bool { return Code(err) == CodeQueryFailed }
func IsInvalidData(err error) bool { return Code(err) == CodeInvalidData }
func IsInvalidParameter(err error) bool { return Code(err) == CodeInvalidParameter }
