package errors

import (
	"fmt"
)

// Error represents a PostgreSQL-compatible error with SQLSTATE code
type Error struct {
	Code       string // SQLSTATE code
	Message    string // Primary error message
	Detail     string // Optional detailed error message
	Hint       string // Optional hint message
	Position   int    // Character position in the query text (0 if not applicable)
	Where      string // Context where error occurred
	Collection string // Collection name if applicable
	Path       string // Document path if applicable
	Index      string // Index name if applicable
	File       string // Source code file where error occurred
	Line       int    // Source code line number
	Routine    string // Source code routine name
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (SQLSTATE %s) DETAIL: %s", e.Routine, e.Message, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: %s (SQLSTATE %s)", e.Routine, e.Message, e.Code)
}

// New creates a new Error with the given code and message
func New(code string, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message
func Newf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail adds detail to the error
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithDetailf adds formatted detail to the error
func (e *Error) WithDetailf(format string, args ...interface{}) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint adds a hint to the error
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithHintf adds a formatted hint to the error
func (e *Error) WithHintf(format string, args ...interface{}) *Error {
	e.Hint = fmt.Sprintf(format, args...)
	return e
}

// WithPosition sets the query position
func (e *Error) WithPosition(pos int) *Error {
	e.Position = pos
	return e
}

// WithCollection sets the collection name
func (e *Error) WithCollection(collection string) *Error {
	e.Collection = collection
	return e
}

// WithPath sets the document path
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithIndex sets the index name
func (e *Error) WithIndex(index string) *Error {
	e.Index = index
	return e
}

// WithWhere sets the context where the error occurred
func (e *Error) WithWhere(where string) *Error {
	e.Where = where
	return e
}

// WithSource sets source code location info
func (e *Error) WithSource(file string, line int, routine string) *Error {
	e.File = file
	e.Line = line
	e.Routine = routine
	return e
}

// Common error constructors

// UndefinedCollectionError creates an undefined collection error
func UndefinedCollectionError(name string) *Error {
	return Newf(UndefinedTable, "collection \"%s\" does not exist", name).
		WithCollection(name)
}

// UndefinedIndexError creates an undefined index error
func UndefinedIndexError(name string) *Error {
	return Newf(UndefinedObject, "index \"%s\" does not exist", name).
		WithIndex(name)
}

// DuplicateCollectionError creates a duplicate collection error
func DuplicateCollectionError(name string) *Error {
	return Newf(DuplicateTable, "collection \"%s\" already exists", name).
		WithCollection(name)
}

// DuplicateIndexError creates a duplicate index error
func DuplicateIndexError(name string) *Error {
	return Newf(DuplicateObject, "index \"%s\" already exists", name).
		WithIndex(name)
}

// FeatureNotSupportedError creates a feature not supported error
func FeatureNotSupportedError(feature string) *Error {
	return Newf(FeatureNotSupported, "%s is not supported", feature)
}

// QueryCanceledError creates a query canceled error
func QueryCanceledError() *Error {
	return New(QueryCanceled, "canceling statement due to user request")
}

// IOErrorf creates an I/O error
func IOErrorf(format string, args ...interface{}) *Error {
	return Newf(IOError, format, args...)
}

// InternalErrorf creates an internal error
func InternalErrorf(format string, args ...interface{}) *Error {
	return Newf(InternalError, format, args...)
}

// IsError checks if an error is a documentdb Error with a specific code
func IsError(err error, code string) bool {
	if err == nil {
		return false
	}
	dErr, ok := err.(*Error)
	return ok && dErr.Code == code
}

// GetError attempts to extract a documentdb Error from any error
func GetError(err error) *Error {
	if err == nil {
		return nil
	}
	if dErr, ok := err.(*Error); ok {
		return dErr
	}
	// Wrap generic errors as internal errors
	return InternalErrorf("%v", err)
}
