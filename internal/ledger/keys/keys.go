// Package keys signs and verifies transactions with secp256k1 keys and maps
// public keys to ledger identities.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec"

	"landlocked/internal/ledger"
)

var ErrInvalidSignature = errors.New("invalid signature")

// PrivateKey is a signer's secret key.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// Generate creates a fresh random key.
func Generate() (*PrivateKey, error) {
	key, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// FromBytes restores a key from its 32-byte scalar.
func FromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", btcec.PrivKeyBytesLen, len(b))
	}
	key, _ := btcec.PrivKeyFromBytes(btcec.S256(), b)
	return &PrivateKey{key: key}, nil
}

// FromHex restores a key from hex.
func FromHex(s string) (*PrivateKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	return FromBytes(b)
}

func (k *PrivateKey) Bytes() []byte {
	return k.key.Serialize()
}

func (k *PrivateKey) Hex() string {
	return hex.EncodeToString(k.Bytes())
}

// PublicKey returns the compressed public key.
func (k *PrivateKey) PublicKey() []byte {
	return k.key.PubKey().SerializeCompressed()
}

// Identity is the ledger address of this key's owner.
func (k *PrivateKey) Identity() ledger.Address {
	return Identity(k.PublicKey())
}

// Sign returns a DER signature over sha256(message).
func (k *PrivateKey) Sign(message []byte) ([]byte, error) {
	hash := sha256.Sum256(message)
	sig, err := k.key.Sign(hash[:])
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig.Serialize(), nil
}

// Identity maps a public key to its ledger address. Compressed and
// uncompressed encodings of the same key map to the same identity.
func Identity(pubKey []byte) ledger.Address {
	if key, err := btcec.ParsePubKey(pubKey, btcec.S256()); err == nil {
		pubKey = key.SerializeCompressed()
	}
	return ledger.Address(sha256.Sum256(pubKey))
}

// Verify checks a DER signature over sha256(message) and returns the signer's
// identity.
func Verify(pubKey, message, signature []byte) (ledger.Address, error) {
	key, err := btcec.ParsePubKey(pubKey, btcec.S256())
	if err != nil {
		return ledger.ZeroAddress, fmt.Errorf("%w: parse public key: %v", ErrInvalidSignature, err)
	}
	sig, err := btcec.ParseDERSignature(signature, btcec.S256())
	if err != nil {
		return ledger.ZeroAddress, fmt.Errorf("%w: parse signature: %v", ErrInvalidSignature, err)
	}
	hash := sha256.Sum256(message)
	if !sig.Verify(hash[:], key) {
		return ledger.ZeroAddress, ErrInvalidSignature
	}
	return ledger.Address(sha256.Sum256(key.SerializeCompressed())), nil
}
