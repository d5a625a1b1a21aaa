package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrPasswordMissMatch = errors.New("password mismatch")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrUnknown           = errors.New("unknown error")

	// ErrConstraintViolation запись отклонена ограничением схемы (CHECK, диапазон NUMERIC).
	ErrConstraintViolation = errors.New("constraint violation")
)

// Ошибки торговых операций. Все, кроме ErrStoreFailure, возникают до коммита и не меняют состояние.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidShareCount   = fmt.Errorf("%w: share count must be a positive integer", ErrInvalidInput)
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	ErrInvalidSymbolFormat = fmt.Errorf("%w: malformed symbol", ErrInvalidInput)
	ErrInvalidCredentials  = fmt.Errorf("%w: username and password must contain only letters and digits", ErrInvalidInput)
	ErrPasswordConfirm     = fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	ErrOperationIDConflict = fmt.Errorf("%w: operation id already used", ErrInvalidInput)
	ErrCashLimit           = fmt.Errorf("%w: balance would exceed %s", ErrInvalidInput, MaxCash.StringFixed(2))

	ErrInvalidSymbol      = errors.New("invalid symbol")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrNotOwned           = errors.New("stock not owned")
	ErrQuoteUnavailable   = errors.New("quote unavailable")
	ErrStoreFailure       = errors.New("store failure")
)

// StoreError ошибка хранилища на шаге коммита. OutcomeUnknown означает, что подтверждение коммита не получено,
// и операция могла как примениться, так и нет. Автоматически такие операции не повторяются.
type StoreError struct {
	OutcomeUnknown bool
	Err            error
}

func NewStoreError(err error, outcomeUnknown bool) error {
	return &StoreError{OutcomeUnknown: outcomeUnknown, Err: err}
}

func (e *StoreError) Error() string {
	if e.OutcomeUnknown {
		return fmt.Sprintf("store failure, outcome unknown: %s", e.Err.Error())
	}
	return fmt.Sprintf("store failure: %s", e.Err.Error())
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// DuplicateOperationError операция с таким идентификатором уже была закоммичена ранее.
type DuplicateOperationError struct {
	Transaction *Transaction
}

func NewDuplicateOperationError(transaction *Transaction) error {
	return &DuplicateOperationError{Transaction: transaction}
}

func (e *DuplicateOperationError) Error() string {
	return fmt.Sprintf(
		"operation %s already recorded for user with id %d",
		e.Transaction.OperationID,
		e.Transaction.UserID,
	)
}
