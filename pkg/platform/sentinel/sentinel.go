package sentinel

import "errors"

// Sentinel errors for infrastructure facts. The ledger and its stores return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about records, not validation failures:
// - ErrNotFound: no record at the address
// - ErrAlreadyUsed: a live record already occupies the address
// - ErrClosed: the record existed and was closed
// - ErrKindMismatch: the record at the address has a different kind
// - ErrInsufficientFunds: the payer balance cannot cover a debit
// - ErrUnavailable: backing store temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyUsed       = errors.New("already used")
	ErrClosed            = errors.New("closed")
	ErrKindMismatch      = errors.New("kind mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnavailable       = errors.New("unavailable")
)
