package models

import (
	"time"

	"landlocked/internal/ledger"
	dErrors "landlocked/pkg/domain-errors"
)

// TitleForSale is a seller's standing offer for a deed at a fixed price.
type TitleForSale struct {
	TitleDeed ledger.Address `json:"title_deed"`
	Seller    User           `json:"seller"`
	SalePrice uint64         `json:"sale_price"`
	ListedAt  int64          `json:"listed_at"`
}

func NewTitleForSale(deed ledger.Address, seller User, price uint64, now time.Time) (*TitleForSale, error) {
	if price == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "sale price must be greater than zero")
	}
	return &TitleForSale{TitleDeed: deed, Seller: seller, SalePrice: price, ListedAt: now.Unix()}, nil
}

// AgreementStatus tracks a sale agreement through settlement.
type AgreementStatus string

const (
	AgreementDrafted  AgreementStatus = "drafted"
	AgreementSigned   AgreementStatus = "signed"
	AgreementEscrowed AgreementStatus = "escrowed"
	AgreementSettled  AgreementStatus = "settled"
)

// Agreement binds a seller and buyer to a price for a deed.
//
// Invariants:
//   - Price never changes after drafting
//   - Status moves Drafted → Signed → Escrowed → Settled; cancellation closes
//     the record instead of adding a status
type Agreement struct {
	Seller    User            `json:"seller"`
	Buyer     User            `json:"buyer"`
	TitleDeed ledger.Address  `json:"title_deed"`
	Price     uint64          `json:"price"`
	DraftedBy ledger.Address  `json:"drafted_by"`
	Status    AgreementStatus `json:"status"`
	CreatedAt int64           `json:"created_at"`
	SignedAt  int64           `json:"signed_at,omitempty"`
}

func NewAgreement(seller, buyer User, deed ledger.Address, price uint64, now time.Time) (*Agreement, error) {
	if seller.Authority == buyer.Authority {
		return nil, dErrors.New(dErrors.CodeInvalidBuyer, "buyer and seller must be different identities")
	}
	if price == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "agreement price must be greater than zero")
	}
	return &Agreement{
		Seller:    seller,
		Buyer:     buyer,
		TitleDeed: deed,
		Price:     price,
		DraftedBy: seller.Authority,
		Status:    AgreementDrafted,
		CreatedAt: now.Unix(),
	}, nil
}

// IsParty reports whether identity is the seller or the buyer.
func (a *Agreement) IsParty(identity ledger.Address) bool {
	return a.Seller.Authority == identity || a.Buyer.Authority == identity
}

// CanSign checks that buyer may accept the agreement at price.
func (a *Agreement) CanSign(buyer ledger.Address, price uint64) error {
	if a.Buyer.Authority != buyer {
		return dErrors.New(dErrors.CodeUnauthorized, "only the named buyer can sign the agreement")
	}
	if a.Price != price {
		return dErrors.New(dErrors.CodePriceMismatch, "signed price differs from the agreement price")
	}
	if a.Status != AgreementDrafted {
		return dErrors.New(dErrors.CodeInvalidState, "agreement is not awaiting a signature")
	}
	return nil
}

// ApplySignature records the buyer's acceptance. Call CanSign first.
func (a *Agreement) ApplySignature(now time.Time) {
	a.Status = AgreementSigned
	a.SignedAt = now.Unix()
}

// CanCancel checks that identity may withdraw from the agreement.
func (a *Agreement) CanCancel(identity ledger.Address) error {
	if !a.IsParty(identity) {
		return dErrors.New(dErrors.CodeUnauthorized, "only the seller or buyer can cancel the agreement")
	}
	if a.Status == AgreementEscrowed || a.Status == AgreementSettled {
		return dErrors.New(dErrors.CodeInvalidState, "agreement is already held in escrow")
	}
	return nil
}

// CanEscrow checks that the agreement has been accepted.
func (a *Agreement) CanEscrow() error {
	if a.Status != AgreementSigned {
		return dErrors.New(dErrors.CodeAgreementNotSigned, "agreement has not been signed by the buyer")
	}
	return nil
}

func (a *Agreement) ApplyEscrow() {
	a.Status = AgreementEscrowed
}

func (a *Agreement) ApplySettlement() {
	a.Status = AgreementSettled
}

// AgreementIndex admits at most one live agreement per deed.
type AgreementIndex struct {
	TitleDeed ledger.Address `json:"title_deed"`
	Agreement ledger.Address `json:"agreement"`
	Live      bool           `json:"live"`
}

// EscrowState tracks custody of the buyer's payment.
type EscrowState string

const (
	EscrowCreated          EscrowState = "created"
	EscrowPaymentDeposited EscrowState = "payment_deposited"
	EscrowCompleted        EscrowState = "completed"
)

// Escrow holds a deed while the buyer's payment is collected and released.
type Escrow struct {
	Agreement   ledger.Address `json:"agreement"`
	TitleDeed   ledger.Address `json:"title_deed"`
	Seller      ledger.Address `json:"seller"`
	Buyer       ledger.Address `json:"buyer"`
	Amount      uint64         `json:"amount"`
	State       EscrowState    `json:"state"`
	CreatedAt   int64          `json:"created_at"`
	CompletedAt int64          `json:"completed_at,omitempty"`
}

func NewEscrow(agreementAddr ledger.Address, a *Agreement, now time.Time) *Escrow {
	return &Escrow{
		Agreement: agreementAddr,
		TitleDeed: a.TitleDeed,
		Seller:    a.Seller.Authority,
		Buyer:     a.Buyer.Authority,
		Amount:    a.Price,
		State:     EscrowCreated,
		CreatedAt: now.Unix(),
	}
}

// CanDeposit checks a buyer payment against the escrow terms.
func (e *Escrow) CanDeposit(buyer ledger.Address, amount uint64) error {
	if e.Buyer != buyer {
		return dErrors.New(dErrors.CodeUnauthorized, "only the escrow buyer can deposit payment")
	}
	if e.State != EscrowCreated {
		return dErrors.New(dErrors.CodeInvalidState, "escrow is not awaiting payment")
	}
	if amount != e.Amount {
		return dErrors.New(dErrors.CodePaymentAmountMismatch, "deposit must equal the agreed price")
	}
	return nil
}

func (e *Escrow) ApplyDeposit() {
	e.State = EscrowPaymentDeposited
}

// CanComplete checks that the payment is in custody.
func (e *Escrow) CanComplete() error {
	if e.State != EscrowPaymentDeposited {
		return dErrors.New(dErrors.CodeEscrowNotReady, "escrow payment has not been deposited")
	}
	return nil
}

func (e *Escrow) ApplyCompletion(now time.Time) {
	e.State = EscrowCompleted
	e.CompletedAt = now.Unix()
}

// Deposit records the payment held for an escrow. The paid value itself sits
// in the Deposit record's balance until release.
type Deposit struct {
	Escrow      ledger.Address `json:"escrow"`
	Buyer       ledger.Address `json:"buyer"`
	Amount      uint64         `json:"amount"`
	DepositedAt int64          `json:"deposited_at"`
	Released    bool           `json:"released"`
	ReleasedAt  int64          `json:"released_at,omitempty"`
}

// ApplyRelease retires the deposit after its value has been paid out.
func (d *Deposit) ApplyRelease(now time.Time) {
	d.Amount = 0
	d.Released = true
	d.ReleasedAt = now.Unix()
}
