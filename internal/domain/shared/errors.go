package shared

import "errors"

// DomainError represents a domain-level error with a stable machine-readable code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors.
//
// Business-rule violations (UnbalancedJournal, pending transactions) are
// recoverable and require caller action. Contract violations (NotLockOwner,
// EmptyJournal) indicate a programming error on the caller's side and are
// never swallowed. Lock contention is NOT an error anywhere in this package
// tree; contended acquisitions report through return values.
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrNotLockOwner      = NewDomainError("NOT_LOCK_OWNER", "Caller does not own the lease it is trying to release")
	ErrUnbalancedJournal = NewDomainError("UNBALANCED_JOURNAL", "Journal debits and credits do not balance")
	ErrEmptyJournal      = NewDomainError("EMPTY_JOURNAL", "Journal requires at least two line items")
	ErrJournalVoided     = NewDomainError("JOURNAL_VOIDED", "Journal has already been voided")
)

// IsDomainError reports whether err is (or wraps) a DomainError with the given code.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
