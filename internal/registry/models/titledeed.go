package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"landlocked/internal/ledger"
	dErrors "landlocked/pkg/domain-errors"
)

const (
	MaxTitleNumberLength = 64
	MaxLocationLength    = 128
)

// AuthorityKind tells who controls a deed.
type AuthorityKind string

const (
	AuthorityOwner  AuthorityKind = "owner"
	AuthorityEscrow AuthorityKind = "escrow"
)

// DeedAuthority is either the owner's identity or the escrow record that
// holds the deed while a sale settles.
type DeedAuthority struct {
	Kind    AuthorityKind  `json:"kind"`
	Address ledger.Address `json:"address"`
}

func OwnerAuthority(identity ledger.Address) DeedAuthority {
	return DeedAuthority{Kind: AuthorityOwner, Address: identity}
}

func EscrowAuthority(escrow ledger.Address) DeedAuthority {
	return DeedAuthority{Kind: AuthorityEscrow, Address: escrow}
}

// IsOwner reports whether identity controls the deed directly.
func (a DeedAuthority) IsOwner(identity ledger.Address) bool {
	return a.Kind == AuthorityOwner && a.Address == identity
}

func (a DeedAuthority) String() string {
	return fmt.Sprintf("%s:%s", a.Kind, a.Address)
}

// ParcelDetails describe the land a deed covers.
type ParcelDetails struct {
	TitleNumber            string
	Location               string
	Acreage                float64
	DistrictLandRegistry   string
	RegistryMapsheetNumber uint64
}

func (p *ParcelDetails) Normalize() {
	p.TitleNumber = strings.TrimSpace(p.TitleNumber)
	p.Location = strings.TrimSpace(p.Location)
	p.DistrictLandRegistry = strings.TrimSpace(p.DistrictLandRegistry)
}

func (p ParcelDetails) Validate() error {
	switch {
	case p.TitleNumber == "":
		return dErrors.New(dErrors.CodeValidation, "title number is required")
	case len(p.TitleNumber) > MaxTitleNumberLength:
		return dErrors.New(dErrors.CodeValidation, "title number must be 64 characters or less")
	case p.Location == "" || p.DistrictLandRegistry == "":
		return dErrors.New(dErrors.CodeValidation, "location and district land registry are required")
	case len(p.Location) > MaxLocationLength || len(p.DistrictLandRegistry) > MaxLocationLength:
		return dErrors.New(dErrors.CodeValidation, "location fields must be 128 characters or less")
	case p.Acreage <= 0 || math.IsNaN(p.Acreage) || math.IsInf(p.Acreage, 0):
		return dErrors.New(dErrors.CodeValidation, "acreage must be a positive number")
	}
	return nil
}

// TitleDeed is the ownership record for one parcel.
//
// Invariants:
//   - Owner.Authority is the owning identity
//   - Authority is OwnerAuthority(Owner.Authority) unless an escrow holds the deed
//   - TotalTransfers equals the number of settled sales
type TitleDeed struct {
	Owner                  User          `json:"owner"`
	Authority              DeedAuthority `json:"authority"`
	TitleNumber            string        `json:"title_number"`
	Location               string        `json:"location"`
	Acreage                float64       `json:"acreage"`
	DistrictLandRegistry   string        `json:"district_land_registry"`
	RegistrationDate       int64         `json:"registration_date"`
	RegistryMapsheetNumber uint64        `json:"registry_mapsheet_number"`
	IsForSale              bool          `json:"is_for_sale"`
	TotalTransfers         uint64        `json:"total_transfers"`
}

func NewTitleDeed(owner User, p ParcelDetails, now time.Time) (*TitleDeed, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &TitleDeed{
		Owner:                  owner,
		Authority:              OwnerAuthority(owner.Authority),
		TitleNumber:            p.TitleNumber,
		Location:               p.Location,
		Acreage:                p.Acreage,
		DistrictLandRegistry:   p.DistrictLandRegistry,
		RegistrationDate:       now.Unix(),
		RegistryMapsheetNumber: p.RegistryMapsheetNumber,
	}, nil
}

// ControlledBy reports whether identity both owns and directly controls the deed.
func (d *TitleDeed) ControlledBy(identity ledger.Address) bool {
	return d.Owner.Authority == identity && d.Authority.IsOwner(identity)
}

// CanList checks that seller may put the deed up for sale.
func (d *TitleDeed) CanList(seller ledger.Address) error {
	if !d.ControlledBy(seller) {
		return dErrors.New(dErrors.CodeUnauthorized, "only the controlling owner can list a title deed")
	}
	return nil
}

// ApplyListing marks the deed for sale. Call CanList first.
func (d *TitleDeed) ApplyListing() {
	d.IsForSale = true
}

// ApplyEscrowHold hands control of the deed to an escrow record.
func (d *TitleDeed) ApplyEscrowHold(escrow ledger.Address) {
	d.Authority = EscrowAuthority(escrow)
}

// ApplyTransfer moves ownership to buyer and closes the sale.
func (d *TitleDeed) ApplyTransfer(buyer User) {
	d.Owner = buyer
	d.Authority = OwnerAuthority(buyer.Authority)
	d.IsForSale = false
	d.TotalTransfers++
}

// TitleNumberLookup maps a title number to its deed and counts searches.
type TitleNumberLookup struct {
	TitleNumber string         `json:"title_number"`
	TitleDeed   ledger.Address `json:"title_deed"`
	SearchedBy  ledger.Address `json:"searched_by"`
	SearchCount uint64         `json:"search_count"`
	LastSearch  int64          `json:"last_search,omitempty"`
}

// ApplySearch records a search by searcher.
func (l *TitleNumberLookup) ApplySearch(searcher ledger.Address, now time.Time) {
	l.SearchedBy = searcher
	l.SearchCount++
	l.LastSearch = now.Unix()
}

// TransferType records how ownership changed hands.
type TransferType string

const (
	TransferInitialAssignment TransferType = "initial_assignment"
	TransferEscrowCompletion  TransferType = "escrow_completion"
)

// OwnershipHistory is one entry of a deed's append-only provenance chain.
// Entry 0 records the initial assignment; entry n records the n-th sale.
type OwnershipHistory struct {
	TitleDeed      ledger.Address `json:"title_deed"`
	PreviousOwner  ledger.Address `json:"previous_owner"`
	CurrentOwner   ledger.Address `json:"current_owner"`
	SequenceNumber uint64         `json:"sequence_number"`
	TransferType   TransferType   `json:"transfer_type"`
	RecordedAt     int64          `json:"recorded_at"`
}
