package usecase

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeValidation = "VALIDATION"
	CodeNotFound   = "NOT_FOUND"
	CodeAmbiguous  = "AMBIGUOUS"

	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeLedgerWrite      = "LEDGER_WRITE"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(code, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// LedgerWriteError reports a ledger update that stopped halfway. Written
// lists the fields that already reached the store; they are not rolled back.
type LedgerWriteError struct {
	Partner string
	Row     int
	Field   string
	Written []string
	Err     error
}

func (e *LedgerWriteError) Error() string {
	written := "nothing"
	if len(e.Written) > 0 {
		written = strings.Join(e.Written, ", ")
	}
	return fmt.Sprintf("ledger write %s failed for %s (row %d, already written: %s): %v",
		e.Field, e.Partner, e.Row, written, e.Err)
}

func (e *LedgerWriteError) Unwrap() error { return e.Err }

func (e *LedgerWriteError) Torn() bool { return len(e.Written) > 0 }
