// Package txn defines the signed transaction envelope accepted by the node
// and dispatches verified transactions to the registry.
package txn

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"landlocked/internal/ledger"
	"landlocked/internal/ledger/keys"
	dErrors "landlocked/pkg/domain-errors"
)

// DefaultValidity is how long a transaction built by New stays executable.
const DefaultValidity = 10 * time.Minute

// Transaction is a registry instruction signed by its sender. Accounts and
// Args are instruction specific JSON objects. ExpiresAt is a unix timestamp
// in seconds after which the node refuses the transaction.
type Transaction struct {
	Instruction Instruction     `json:"instruction"`
	Accounts    json.RawMessage `json:"accounts"`
	Args        json.RawMessage `json:"args,omitempty"`
	Nonce       string          `json:"nonce"`
	ExpiresAt   int64           `json:"expires_at"`
	PublicKey   string          `json:"public_key"`
	Signature   string          `json:"signature,omitempty"`
}

// signingBody is the canonical, signature-free form of a transaction.
type signingBody struct {
	Instruction string `cbor:"1,keyasint"`
	Accounts    []byte `cbor:"2,keyasint"`
	Args        []byte `cbor:"3,keyasint,omitempty"`
	Nonce       string `cbor:"4,keyasint"`
	PublicKey   string `cbor:"5,keyasint"`
	ExpiresAt   int64  `cbor:"6,keyasint"`
}

// New builds an unsigned transaction with a fresh nonce that expires
// DefaultValidity from now. Set ExpiresAt before signing to change it.
func New(instruction Instruction, accounts, args any) (*Transaction, error) {
	rawAccounts, err := json.Marshal(accounts)
	if err != nil {
		return nil, fmt.Errorf("encode accounts: %w", err)
	}
	var rawArgs json.RawMessage
	if args != nil {
		if rawArgs, err = json.Marshal(args); err != nil {
			return nil, fmt.Errorf("encode args: %w", err)
		}
	}
	return &Transaction{
		Instruction: instruction,
		Accounts:    rawAccounts,
		Args:        rawArgs,
		Nonce:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(DefaultValidity).Unix(),
	}, nil
}

func compact(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SigningBytes returns the canonical encoding covered by the signature.
// Insignificant whitespace in accounts and args does not change it.
func (t *Transaction) SigningBytes() ([]byte, error) {
	accounts, err := compact(t.Accounts)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "accounts must be a JSON object")
	}
	args, err := compact(t.Args)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "args must be a JSON object")
	}
	return ledger.Marshal(signingBody{
		Instruction: string(t.Instruction),
		Accounts:    accounts,
		Args:        args,
		Nonce:       t.Nonce,
		PublicKey:   t.PublicKey,
		ExpiresAt:   t.ExpiresAt,
	})
}

// Hash identifies the transaction; it is the hex SHA-256 of SigningBytes.
func (t *Transaction) Hash() (string, error) {
	body, err := t.SigningBytes()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// Sign sets the public key and signature for key.
func (t *Transaction) Sign(key *keys.PrivateKey) error {
	t.PublicKey = hex.EncodeToString(key.PublicKey())
	body, err := t.SigningBytes()
	if err != nil {
		return err
	}
	sig, err := key.Sign(body)
	if err != nil {
		return err
	}
	t.Signature = hex.EncodeToString(sig)
	return nil
}

// Verify checks the signature and returns the signer's identity. Expiry is
// checked against the node clock by the Dispatcher.
func (t *Transaction) Verify() (ledger.Address, error) {
	if t.Nonce == "" {
		return ledger.ZeroAddress, dErrors.New(dErrors.CodeBadRequest, "nonce is required")
	}
	if t.ExpiresAt <= 0 {
		return ledger.ZeroAddress, dErrors.New(dErrors.CodeBadRequest, "expires_at is required")
	}
	pub, err := hex.DecodeString(t.PublicKey)
	if err != nil {
		return ledger.ZeroAddress, dErrors.Wrap(err, dErrors.CodeInvalidSignature, "public key must be hex encoded")
	}
	sig, err := hex.DecodeString(t.Signature)
	if err != nil || len(sig) == 0 {
		return ledger.ZeroAddress, dErrors.New(dErrors.CodeInvalidSignature, "signature must be hex encoded")
	}
	body, err := t.SigningBytes()
	if err != nil {
		return ledger.ZeroAddress, err
	}
	signer, err := keys.Verify(pub, body, sig)
	if err != nil {
		return ledger.ZeroAddress, dErrors.Wrap(err, dErrors.CodeInvalidSignature, "signature verification failed")
	}
	return signer, nil
}
