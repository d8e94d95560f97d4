// Package domainerrors defines coded errors returned by registry services.
//
// Services return *Error values so transports can map a failure to a stable
// code without string matching. Infrastructure layers return the sentinels in
// pkg/platform/sentinel instead, and services translate them here.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a class of failure that callers can distinguish.
type Code string

const (
	// Generic
	CodeInternal           Code = "internal_error"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeNotFound           Code = "not_found"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeUnauthorized       Code = "unauthorized"
	CodeRateLimited        Code = "rate_limit_exceeded"

	// Record addressing
	CodeConstraintSeeds       Code = "constraint_seeds"
	CodeAccountAlreadyInUse   Code = "account_already_in_use"
	CodeAccountNotInitialized Code = "account_not_initialized"
	CodeInsufficientFunds     Code = "insufficient_funds"

	// Authority hierarchy
	CodeInvalidAdmin              Code = "invalid_admin"
	CodeInvalidRegistrar          Code = "invalid_registrar"
	CodeRegistrarAlreadyConfirmed Code = "registrar_already_confirmed"
	CodeProtocolPaused            Code = "protocol_paused"

	// Title deeds and sales
	CodeTitleAuthorityMismatch    Code = "title_authority_mismatch"
	CodeTitleNotForSale           Code = "title_not_for_sale"
	CodeTitleNotMarkedForSale     Code = "title_not_marked_for_sale"
	CodeInvalidBuyer              Code = "invalid_buyer"
	CodePriceMismatch             Code = "price_mismatch"
	CodeAgreementAlreadyExists    Code = "agreement_already_exists"
	CodeAgreementAlreadyCancelled Code = "agreement_already_cancelled"
	CodeAgreementNotSigned        Code = "agreement_not_signed"
	CodeInvalidState              Code = "invalid_state"

	// Escrow
	CodePaymentAmountMismatch Code = "payment_amount_mismatch"
	CodeEscrowNotReady        Code = "escrow_not_ready"

	// Transaction envelope
	CodeInvalidSignature    Code = "invalid_signature"
	CodeReplayedTransaction Code = "replayed_transaction"
	CodeTransactionExpired  Code = "transaction_expired"
)

// Error is a domain error carrying a code and a caller-safe message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is reports whether the outermost domain error in the chain carries code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the outermost domain error code, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status used by the API.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeConstraintSeeds:
		return http.StatusBadRequest
	case CodeInvalidSignature, CodeTransactionExpired:
		return http.StatusUnauthorized
	case CodeUnauthorized, CodeInvalidAdmin, CodeInvalidRegistrar:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAccountAlreadyInUse, CodeRegistrarAlreadyConfirmed, CodeAgreementAlreadyExists, CodeReplayedTransaction:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeInternal, CodeInvariantViolation:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
