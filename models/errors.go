package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type ErrorKind string

const (
	ErrorKindInsufficientQuantity   ErrorKind = "InsufficientQuantity"
	ErrorKindNotFound               ErrorKind = "NotFound"
	ErrorKindInvalidInput           ErrorKind = "InvalidInput"
	ErrorKindReadOnlyJobsheet       ErrorKind = "ReadOnlyJobsheet"
	ErrorKindInvalidStateTransition ErrorKind = "InvalidStateTransition"
	ErrorKindTransactionFailure     ErrorKind = "TransactionFailure"
)

// AppError is returned by every mutating operation in this package.
// errors.Is matches any AppError of the same kind, so callers compare
// against the Err* sentinels below.
type AppError struct {
	Kind    ErrorKind
	Message string
	// State is set for ReadOnlyJobsheet.
	State JobSheetState
	Err   error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInsufficientQuantity   = &AppError{Kind: ErrorKindInsufficientQuantity, Message: "insufficient quantity"}
	ErrNotFound               = &AppError{Kind: ErrorKindNotFound, Message: "not found"}
	ErrInvalidInput           = &AppError{Kind: ErrorKindInvalidInput, Message: "invalid input"}
	ErrReadOnlyJobsheet       = &AppError{Kind: ErrorKindReadOnlyJobsheet, Message: "job sheet is read-only"}
	ErrInvalidStateTransition = &AppError{Kind: ErrorKindInvalidStateTransition, Message: "invalid state transition"}
	ErrTransactionFailure     = &AppError{Kind: ErrorKindTransactionFailure, Message: "transaction failed"}
)

// AsAppError returns the AppError in err's chain, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func errInsufficientQuantity() error {
	return &AppError{Kind: ErrorKindInsufficientQuantity, Message: "Insufficient quantity available for allocation"}
}

func errNotFound(resource string) error {
	return &AppError{Kind: ErrorKindNotFound, Message: resource + " not found"}
}

func errInvalidInput(message string) error {
	return &AppError{Kind: ErrorKindInvalidInput, Message: message}
}

func errReadOnly(state JobSheetState) error {
	return &AppError{
		Kind:    ErrorKindReadOnlyJobsheet,
		Message: fmt.Sprintf("job sheet is %s and can no longer be modified", state),
		State:   state,
	}
}

func errInvalidTransition(from JobSheetState, to JobSheetState) error {
	return &AppError{
		Kind:    ErrorKindInvalidStateTransition,
		Message: fmt.Sprintf("cannot change job sheet state from %s to %s", from, to),
		State:   from,
	}
}

// errUnsettled rejects a manual completion while work is missing or money is owed.
func errUnsettled(from JobSheetState, balance decimal.Decimal) error {
	return &AppError{
		Kind:    ErrorKindInvalidStateTransition,
		Message: fmt.Sprintf("cannot complete job sheet without billable work or with balance %s outstanding", balance.StringFixed(2)),
		State:   from,
	}
}

func errTransactionFailure(err error) error {
	return &AppError{Kind: ErrorKindTransactionFailure, Message: "transaction failed", Err: err}
}
