package graph

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrorKind classifies a graph error per the taxonomy in SPEC_FULL.md §7.
type ErrorKind int

const (
	// KindUnknown is the zero value and should not be constructed
	// directly; it only appears if an Error is built without a kind.
	KindUnknown ErrorKind = iota
	KindConnection
	KindSchema
	KindQuery
	KindNotFound
	KindInvalidInput
	KindFaultInjected
	KindTransaction
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindSchema:
		return "schema"
	case KindQuery:
		return "query"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindFaultInjected:
		return "fault_injected"
	case KindTransaction:
		return "transaction"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is the tagged error type used throughout this module in place
// of sentinel values or panics, generalizing the Kind-less
// wrapDBError/ErrNotFound pair this codebase otherwise reaches for.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func NewConnectionError(op string, err error) *Error   { return newErr(KindConnection, op, err) }
func NewSchemaError(op string, err error) *Error       { return newErr(KindSchema, op, err) }
func NewQueryError(op string, err error) *Error        { return newErr(KindQuery, op, err) }
func NewNotFoundError(op string, err error) *Error     { return newErr(KindNotFound, op, err) }
func NewInvalidInputError(op string, err error) *Error { return newErr(KindInvalidInput, op, err) }
func NewFaultInjectedError(op string, err error) *Error {
	return newErr(KindFaultInjected, op, err)
}
func NewTransactionError(op string, err error) *Error { return newErr(KindTransaction, op, err) }
func NewValidationError(op string, err error) *Error  { return newErr(KindValidation, op, err) }

// KindOf returns the ErrorKind of err if it is (or wraps) a *Error, and
// KindUnknown otherwise.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is (or wraps) a *Error of the given kind.
func Is(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// wrapDBError wraps a database/sql error with operation context,
// converting sql.ErrNoRows to a NotFound error and anything else to a
// Query error. Mirrors this codebase's internal/storage/sqlite
// wrapDBError, generalized from a single sentinel to the full taxonomy.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NewNotFoundError(op, err)
	}
	return NewQueryError(op, err)
}
