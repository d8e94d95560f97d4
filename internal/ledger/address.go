package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// AddressLength is the size of every record and identity address.
const AddressLength = 32

// derivationMarker separates derived addresses from identity addresses, which
// are plain hashes of public keys.
const derivationMarker = "ProgramDerivedAddress"

// Address locates a record or identifies a signer.
type Address [AddressLength]byte

// ZeroAddress is the unset address.
var ZeroAddress Address

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) Bytes() []byte {
	return a[:]
}

// Less orders addresses bytewise.
func (a Address) Less(b Address) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress decodes a hex address.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != AddressLength {
		return a, fmt.Errorf("address must be %d bytes, got %d", AddressLength, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// Derive returns the deterministic address for seeds under program. The same
// program and seeds always yield the same address.
func Derive(program Address, seeds ...[]byte) Address {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte(derivationMarker))
	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

// ProgramIDFromName derives a stable program identity from a deployment name.
func ProgramIDFromName(name string) Address {
	return Address(sha256.Sum256([]byte("program:" + name)))
}
