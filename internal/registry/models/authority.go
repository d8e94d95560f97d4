package models

import (
	"slices"
	"time"

	"landlocked/internal/ledger"
	dErrors "landlocked/pkg/domain-errors"
)

// MaxAdmins bounds the protocol admin list.
const MaxAdmins = 5

// ProtocolState is the singleton configuration of the registry.
//
// Invariants:
//   - Admins holds 1..MaxAdmins distinct identities
//   - the identity that initialized the protocol is one of the Admins
type ProtocolState struct {
	Admins   []ledger.Address `json:"admins"`
	IsPaused bool             `json:"is_paused"`
}

// NewProtocolState validates the admin list against the initializing signer.
func NewProtocolState(admins []ledger.Address, signer ledger.Address) (*ProtocolState, error) {
	if len(admins) == 0 || len(admins) > MaxAdmins {
		return nil, dErrors.New(dErrors.CodeInvalidAdmin, "admin list must hold between 1 and 5 identities")
	}
	seen := make(map[ledger.Address]struct{}, len(admins))
	for _, a := range admins {
		if a.IsZero() {
			return nil, dErrors.New(dErrors.CodeInvalidAdmin, "admin identity cannot be empty")
		}
		if _, dup := seen[a]; dup {
			return nil, dErrors.New(dErrors.CodeInvalidAdmin, "admin identities must be distinct")
		}
		seen[a] = struct{}{}
	}
	if _, ok := seen[signer]; !ok {
		return nil, dErrors.New(dErrors.CodeInvalidAdmin, "initializer must be one of the admins")
	}
	return &ProtocolState{Admins: slices.Clone(admins)}, nil
}

func (p *ProtocolState) IsAdmin(identity ledger.Address) bool {
	return slices.Contains(p.Admins, identity)
}

// Admin is a confirmed administrator slot.
type Admin struct {
	Authority   ledger.Address `json:"authority"`
	ConfirmedAt int64          `json:"confirmed_at"`
}

func NewAdmin(authority ledger.Address, now time.Time) *Admin {
	return &Admin{Authority: authority, ConfirmedAt: now.Unix()}
}

// Registrar is a land registry official appointed by an admin.
//
// Invariants:
//   - IsActive only ever moves false → true, and only through ApplyConfirmation
//   - AddedBy is the admin that appointed the registrar
type Registrar struct {
	Authority   ledger.Address `json:"authority"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	IDNumber    string         `json:"id_number"`
	IsActive    bool           `json:"is_active"`
	AddedBy     ledger.Address `json:"added_by"`
	AddedAt     int64          `json:"added_at"`
	ConfirmedAt int64          `json:"confirmed_at,omitempty"`
}

func NewRegistrar(authority ledger.Address, p PersonDetails, addedBy ledger.Address, now time.Time) (*Registrar, error) {
	if authority.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "registrar identity is required")
	}
	if err := p.validateNames(); err != nil {
		return nil, err
	}
	return &Registrar{
		Authority: authority,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		IDNumber:  p.IDNumber,
		AddedBy:   addedBy,
		AddedAt:   now.Unix(),
	}, nil
}

// CanConfirm checks that the registrar has not confirmed yet.
func (r *Registrar) CanConfirm() error {
	if r.IsActive {
		return dErrors.New(dErrors.CodeRegistrarAlreadyConfirmed, "registrar already confirmed")
	}
	return nil
}

// ApplyConfirmation activates the registrar. Call CanConfirm first.
func (r *Registrar) ApplyConfirmation(now time.Time) {
	r.IsActive = true
	r.ConfirmedAt = now.Unix()
}

// Role is the highest authority an identity holds.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleRegistrar Role = "registrar"
	RoleUser      Role = "user"
	RoleUnknown   Role = "unknown"
)
