package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrAgreementNotFound      = errors.New("agreement not found")
	ErrAgreementAlreadyExists = errors.New("order already has an agreement")
	ErrAgreementSettled       = errors.New("agreement is already settled")
	ErrInvalidAgreementTerms  = errors.New("invalid agreement terms")
	ErrInstallmentNotFound    = errors.New("installment not found")
	ErrInstallmentAlreadyPaid = errors.New("installment is already paid")
	ErrCustomerNotFound       = errors.New("customer not found")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeAgreementNotFound      = "AGREEMENT_NOT_FOUND"
	ErrCodeAgreementAlreadyExists = "AGREEMENT_ALREADY_EXISTS"
	ErrCodeAgreementSettled       = "AGREEMENT_SETTLED"
	ErrCodeInvalidAgreementTerms  = "INVALID_AGREEMENT_TERMS"
	ErrCodeInstallmentNotFound    = "INSTALLMENT_NOT_FOUND"
	ErrCodeInstallmentAlreadyPaid = "INSTALLMENT_ALREADY_PAID"
	ErrCodeCustomerNotFound       = "CUSTOMER_NOT_FOUND"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeCacheError             = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapAgreementNotFound(agreementID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAgreementNotFound,
		fmt.Sprintf("Agreement %s not found", agreementID),
		ErrAgreementNotFound,
	)
}

func WrapAgreementAlreadyExists(orderID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAgreementAlreadyExists,
		fmt.Sprintf("Order %s already has an installment agreement", orderID),
		ErrAgreementAlreadyExists,
	)
}

func WrapAgreementSettled(agreementID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAgreementSettled,
		fmt.Sprintf("Agreement %s is already settled", agreementID),
		ErrAgreementSettled,
	)
}

func WrapInvalidAgreementTerms(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAgreementTerms,
		reason,
		ErrInvalidAgreementTerms,
	)
}

func WrapInstallmentNotFound(agreementID string, number int) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment %d of agreement %s not found", number, agreementID),
		ErrInstallmentNotFound,
	)
}

func WrapInstallmentAlreadyPaid(agreementID string, number int) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentAlreadyPaid,
		fmt.Sprintf("Installment %d of agreement %s is already paid", number, agreementID),
		ErrInstallmentAlreadyPaid,
	)
}

func WrapCustomerNotFound(customerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeCustomerNotFound,
		fmt.Sprintf("Customer %s not found", customerID),
		ErrCustomerNotFound,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}
