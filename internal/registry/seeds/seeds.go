// Package seeds derives the address of every registry record. Services use
// it to check caller-supplied accounts and clients use it to build them, so
// both sides always agree.
package seeds

import (
	"crypto/sha256"
	"encoding/binary"

	"landlocked/internal/ledger"
)

// Namespace tags, the first seed of every record address.
const (
	TagProtocolState     = "protocol_state"
	TagAdmin             = "admin"
	TagRegistrar         = "registrar"
	TagPerson            = "person"
	TagIDNumberClaim     = "id_number_claim"
	TagTitleDeed         = "title_deed"
	TagTitleNumberLookup = "title_number_lookup"
	TagOwnershipHistory  = "ownership_history"
	TagTitleForSale      = "title_for_sale"
	TagAgreement         = "agreement"
	TagAgreementIndex    = "agreement_index"
	TagEscrow            = "escrow"
	TagDeposit           = "deposit"
)

// Deriver computes record addresses for one program.
type Deriver struct {
	program ledger.Address
}

func New(program ledger.Address) Deriver {
	return Deriver{program: program}
}

func (d Deriver) derive(tag string, rest ...[]byte) ledger.Address {
	all := make([][]byte, 0, len(rest)+1)
	all = append(all, []byte(tag))
	all = append(all, rest...)
	return ledger.Derive(d.program, all...)
}

// HashText fingerprints free-text seeds such as id and title numbers.
func HashText(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

func u64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func (d Deriver) ProtocolState() ledger.Address {
	return d.derive(TagProtocolState)
}

func (d Deriver) Admin(identity ledger.Address) ledger.Address {
	return d.derive(TagAdmin, identity.Bytes())
}

func (d Deriver) Registrar(identity ledger.Address) ledger.Address {
	return d.derive(TagRegistrar, identity.Bytes())
}

// User addresses include the id number, so a User record cannot be found from
// the identity alone.
func (d Deriver) User(idNumber string, identity ledger.Address) ledger.Address {
	return d.derive(TagPerson, HashText(idNumber), identity.Bytes())
}

func (d Deriver) IDNumberClaim(idNumber string) ledger.Address {
	return d.derive(TagIDNumberClaim, HashText(idNumber))
}

// TitleDeed addresses are keyed by title number so one owner can hold many
// parcels and a parcel can never be registered twice.
func (d Deriver) TitleDeed(titleNumber string) ledger.Address {
	return d.derive(TagTitleDeed, HashText(titleNumber))
}

func (d Deriver) TitleNumberLookup(titleNumber string) ledger.Address {
	return d.derive(TagTitleNumberLookup, []byte(titleNumber))
}

func (d Deriver) OwnershipHistory(deed ledger.Address, sequence uint64) ledger.Address {
	return d.derive(TagOwnershipHistory, deed.Bytes(), u64(sequence))
}

func (d Deriver) TitleForSale(seller, deed ledger.Address) ledger.Address {
	return d.derive(TagTitleForSale, seller.Bytes(), deed.Bytes())
}

func (d Deriver) Agreement(seller, buyer, deed ledger.Address, price uint64) ledger.Address {
	return d.derive(TagAgreement, seller.Bytes(), buyer.Bytes(), deed.Bytes(), u64(price))
}

func (d Deriver) AgreementIndex(deed ledger.Address) ledger.Address {
	return d.derive(TagAgreementIndex, deed.Bytes())
}

func (d Deriver) Escrow(agreement ledger.Address) ledger.Address {
	return d.derive(TagEscrow, agreement.Bytes())
}

func (d Deriver) Deposit(escrow ledger.Address) ledger.Address {
	return d.derive(TagDeposit, escrow.Bytes())
}
