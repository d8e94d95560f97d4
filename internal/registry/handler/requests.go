package handler

import (
	"encoding/json"
	"strings"

	"landlocked/internal/txn"
	dErrors "landlocked/pkg/domain-errors"
)

// SubmitRequest is the HTTP request body for POST /v1/transactions. It is the
// signed transaction envelope as produced by txn.Transaction.
type SubmitRequest struct {
	Instruction string          `json:"instruction"`
	Accounts    json.RawMessage `json:"accounts"`
	Args        json.RawMessage `json:"args,omitempty"`
	Nonce       string          `json:"nonce"`
	ExpiresAt   int64           `json:"expires_at"`
	PublicKey   string          `json:"public_key"`
	Signature   string          `json:"signature"`
}

func (r *SubmitRequest) Normalize() {
	r.Instruction = strings.TrimSpace(r.Instruction)
	r.PublicKey = strings.ToLower(strings.TrimSpace(r.PublicKey))
	r.Signature = strings.ToLower(strings.TrimSpace(r.Signature))
}

// Validate checks the envelope shape. Signature and instruction semantics
// are checked by the dispatcher.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	switch {
	case r.Instruction == "":
		return dErrors.New(dErrors.CodeValidation, "instruction is required")
	case len(r.Accounts) == 0:
		return dErrors.New(dErrors.CodeValidation, "accounts are required")
	case r.Nonce == "":
		return dErrors.New(dErrors.CodeValidation, "nonce is required")
	case len(r.Nonce) > 64:
		return dErrors.New(dErrors.CodeValidation, "nonce must be 64 characters or less")
	case r.ExpiresAt <= 0:
		return dErrors.New(dErrors.CodeValidation, "expires_at is required")
	case r.PublicKey == "" || r.Signature == "":
		return dErrors.New(dErrors.CodeValidation, "public_key and signature are required")
	}
	return nil
}

func (r *SubmitRequest) Transaction() *txn.Transaction {
	return &txn.Transaction{
		Instruction: txn.Instruction(r.Instruction),
		Accounts:    r.Accounts,
		Args:        r.Args,
		Nonce:       r.Nonce,
		ExpiresAt:   r.ExpiresAt,
		PublicKey:   r.PublicKey,
		Signature:   r.Signature,
	}
}
