package models

import (
	"strings"
	"time"

	"landlocked/internal/ledger"
	dErrors "landlocked/pkg/domain-errors"
)

const (
	MaxNameLength     = 64
	MaxIDNumberLength = 32
	MaxPhoneLength    = 20
)

// PersonDetails are the identifying fields shared by users and registrars.
type PersonDetails struct {
	FirstName   string
	LastName    string
	IDNumber    string
	PhoneNumber string
}

// Normalize trims surrounding whitespace from every field.
func (p *PersonDetails) Normalize() {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.IDNumber = strings.TrimSpace(p.IDNumber)
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)
}

func (p PersonDetails) validateNames() error {
	switch {
	case p.FirstName == "" || p.LastName == "":
		return dErrors.New(dErrors.CodeValidation, "first and last name are required")
	case len(p.FirstName) > MaxNameLength || len(p.LastName) > MaxNameLength:
		return dErrors.New(dErrors.CodeValidation, "names must be 64 characters or less")
	case p.IDNumber == "":
		return dErrors.New(dErrors.CodeValidation, "id number is required")
	case len(p.IDNumber) > MaxIDNumberLength:
		return dErrors.New(dErrors.CodeValidation, "id number must be 32 characters or less")
	}
	return nil
}

// User is a registered natural person. A User record is created once per id
// number and is bound to a single signing identity.
type User struct {
	Authority    ledger.Address `json:"authority"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	IDNumber     string         `json:"id_number"`
	PhoneNumber  string         `json:"phone_number"`
	RegisteredAt int64          `json:"registered_at"`
}

func NewUser(authority ledger.Address, p PersonDetails, now time.Time) (*User, error) {
	if err := p.validateNames(); err != nil {
		return nil, err
	}
	if len(p.PhoneNumber) > MaxPhoneLength {
		return nil, dErrors.New(dErrors.CodeValidation, "phone number must be 20 characters or less")
	}
	return &User{
		Authority:    authority,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		IDNumber:     p.IDNumber,
		PhoneNumber:  p.PhoneNumber,
		RegisteredAt: now.Unix(),
	}, nil
}

// IDNumberClaim reserves an id number for the User record at Person.
type IDNumberClaim struct {
	Person    ledger.Address `json:"person"`
	ClaimedAt int64          `json:"claimed_at"`
}
