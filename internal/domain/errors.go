package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidTotal  = "INVALID_TOTAL"
	ErrCodeOrderNotFound = "ORDER_NOT_FOUND"
	ErrCodeMissingEmail  = "MISSING_EMAIL"
)

func NewInvalidTotalError(cents int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTotal,
		Message: fmt.Sprintf("invalid total %d", cents),
	}
}

func NewOrderNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeOrderNotFound,
		Message: fmt.Sprintf("order with ID %s not found", id),
	}
}

func NewMissingEmailError() *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingEmail,
		Message: "client email required for confirmation",
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
