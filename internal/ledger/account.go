package ledger

// Kind discriminates the record type held at an address.
type Kind string

// KindSystem marks a plain value-holding account, such as a signer's wallet.
const KindSystem Kind = "system"

// Account is the unit of ledger state. Records pay a storage deposit that
// stays in Lamports until the record is closed.
type Account struct {
	Kind     Kind   `cbor:"1,keyasint"`
	Lamports uint64 `cbor:"2,keyasint"`
	Data     []byte `cbor:"3,keyasint,omitempty"`
	// Closed accounts keep their address occupied as a tombstone so readers
	// can tell a closed record from one that never existed. Create may reuse
	// the address.
	Closed bool `cbor:"4,keyasint,omitempty"`
}

// Live reports whether the account holds an open record.
func (a *Account) Live() bool {
	return a != nil && !a.Closed && a.Kind != KindSystem
}

func (a *Account) clone() *Account {
	c := *a
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return &c
}
