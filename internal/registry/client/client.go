// Package client derives the account sets registry operations expect, so
// callers only need to know identities, id numbers and title numbers.
package client

import (
	"landlocked/internal/ledger"
	"landlocked/internal/ledger/keys"
	"landlocked/internal/registry/seeds"
	"landlocked/internal/registry/service"
	"landlocked/internal/txn"
)

// Party is a registered person: their identity and the id number their User
// record was created with.
type Party struct {
	Identity ledger.Address
	IDNumber string
}

// Sale names the parties and terms of one deed sale.
type Sale struct {
	Seller      Party
	Buyer       Party
	TitleNumber string
	Price       uint64
}

// Accounts builds account sets for one program.
type Accounts struct {
	seeds seeds.Deriver
}

func New(program ledger.Address) Accounts {
	return Accounts{seeds: seeds.New(program)}
}

func (a Accounts) Seeds() seeds.Deriver {
	return a.seeds
}

func (a Accounts) Initialize() service.InitializeAccounts {
	return service.InitializeAccounts{ProtocolState: a.seeds.ProtocolState()}
}

func (a Accounts) ConfirmAdmin(admin ledger.Address) service.ConfirmAdminAccounts {
	return service.ConfirmAdminAccounts{
		ProtocolState: a.seeds.ProtocolState(),
		Admin:         a.seeds.Admin(admin),
	}
}

func (a Accounts) AddRegistrar(admin, registrar ledger.Address) service.AddRegistrarAccounts {
	return service.AddRegistrarAccounts{
		ProtocolState: a.seeds.ProtocolState(),
		Admin:         a.seeds.Admin(admin),
		Registrar:     a.seeds.Registrar(registrar),
	}
}

func (a Accounts) ConfirmRegistrar(registrar ledger.Address) service.ConfirmRegistrarAccounts {
	return service.ConfirmRegistrarAccounts{
		ProtocolState: a.seeds.ProtocolState(),
		Registrar:     a.seeds.Registrar(registrar),
	}
}

func (a Accounts) SetProtocolPaused(admin ledger.Address) service.SetProtocolPausedAccounts {
	return service.SetProtocolPausedAccounts{
		ProtocolState: a.seeds.ProtocolState(),
		Admin:         a.seeds.Admin(admin),
	}
}

func (a Accounts) CreateUser(p Party) service.CreateUserAccounts {
	return service.CreateUserAccounts{
		ProtocolState: a.seeds.ProtocolState(),
		User:          a.seeds.User(p.IDNumber, p.Identity),
		IDNumberClaim: a.seeds.IDNumberClaim(p.IDNumber),
	}
}

func (a Accounts) User(p Party) ledger.Address {
	return a.seeds.User(p.IDNumber, p.Identity)
}

func (a Accounts) AssignTitleDeed(registrar ledger.Address, owner Party, titleNumber string) service.AssignTitleDeedAccounts {
	deed := a.seeds.TitleDeed(titleNumber)
	return service.AssignTitleDeedAccounts{
		ProtocolState:     a.seeds.ProtocolState(),
		Registrar:         a.seeds.Registrar(registrar),
		Owner:             a.User(owner),
		TitleDeed:         deed,
		TitleNumberLookup: a.seeds.TitleNumberLookup(titleNumber),
		OwnershipHistory:  a.seeds.OwnershipHistory(deed, 0),
	}
}

func (a Accounts) SearchTitleDeed(searcher Party, titleNumber string) service.SearchTitleDeedAccounts {
	return service.SearchTitleDeedAccounts{
		ProtocolState:     a.seeds.ProtocolState(),
		Searcher:          a.User(searcher),
		TitleDeed:         a.seeds.TitleDeed(titleNumber),
		TitleNumberLookup: a.seeds.TitleNumberLookup(titleNumber),
	}
}

func (a Accounts) MarkTitleForSale(seller Party, titleNumber string) service.MarkTitleForSaleAccounts {
	deed := a.seeds.TitleDeed(titleNumber)
	return service.MarkTitleForSaleAccounts{
		ProtocolState: a.seeds.ProtocolState(),
		Seller:        a.User(seller),
		TitleDeed:     deed,
		TitleForSale:  a.seeds.TitleForSale(seller.Identity, deed),
	}
}

func (a Accounts) agreement(s Sale) (deed, agreement ledger.Address) {
	deed = a.seeds.TitleDeed(s.TitleNumber)
	return deed, a.seeds.Agreement(s.Seller.Identity, s.Buyer.Identity, deed, s.Price)
}

func (a Accounts) MakeAgreement(s Sale) service.MakeAgreementAccounts {
	deed, agreement := a.agreement(s)
	return service.MakeAgreementAccounts{
		ProtocolState:     a.seeds.ProtocolState(),
		Seller:            a.User(s.Seller),
		Buyer:             a.User(s.Buyer),
		TitleDeed:         deed,
		TitleNumberLookup: a.seeds.TitleNumberLookup(s.TitleNumber),
		TitleForSale:      a.seeds.TitleForSale(s.Seller.Identity, deed),
		Agreement:         agreement,
		AgreementIndex:    a.seeds.AgreementIndex(deed),
	}
}

func (a Accounts) SignAgreement(s Sale) service.SignAgreementAccounts {
	_, agreement := a.agreement(s)
	return service.SignAgreementAccounts{
		ProtocolState: a.seeds.ProtocolState(),
		Agreement:     agreement,
	}
}

func (a Accounts) CancelAgreement(s Sale) service.CancelAgreementAccounts {
	deed, agreement := a.agreement(s)
	return service.CancelAgreementAccounts{
		ProtocolState:  a.seeds.ProtocolState(),
		Agreement:      agreement,
		AgreementIndex: a.seeds.AgreementIndex(deed),
	}
}

func (a Accounts) CreateEscrow(s Sale) service.CreateEscrowAccounts {
	deed, agreement := a.agreement(s)
	return service.CreateEscrowAccounts{
		ProtocolState: a.seeds.ProtocolState(),
		TitleDeed:     deed,
		Agreement:     agreement,
		Escrow:        a.seeds.Escrow(agreement),
		Buyer:         s.Buyer.Identity,
	}
}

func (a Accounts) DepositPayment(s Sale) service.DepositPaymentAccounts {
	_, agreement := a.agreement(s)
	escrow := a.seeds.Escrow(agreement)
	return service.DepositPaymentAccounts{
		ProtocolState: a.seeds.ProtocolState(),
		Escrow:        escrow,
		Deposit:       a.seeds.Deposit(escrow),
	}
}

// AuthorizeEscrow builds the settlement accounts. sequence is the deed's
// total transfers after this sale, i.e. its current count plus one.
func (a Accounts) AuthorizeEscrow(registrar ledger.Address, s Sale, sequence uint64) service.AuthorizeEscrowAccounts {
	deed, agreement := a.agreement(s)
	escrow := a.seeds.Escrow(agreement)
	return service.AuthorizeEscrowAccounts{
		ProtocolState:    a.seeds.ProtocolState(),
		Registrar:        a.seeds.Registrar(registrar),
		Escrow:           escrow,
		Deposit:          a.seeds.Deposit(escrow),
		TitleDeed:        deed,
		Agreement:        agreement,
		AgreementIndex:   a.seeds.AgreementIndex(deed),
		OwnershipHistory: a.seeds.OwnershipHistory(deed, sequence),
		Seller:           s.Seller.Identity,
	}
}

// Sign builds and signs a transaction envelope.
func Sign(key *keys.PrivateKey, instruction txn.Instruction, accounts, args any) (*txn.Transaction, error) {
	t, err := txn.New(instruction, accounts, args)
	if err != nil {
		return nil, err
	}
	if err := t.Sign(key); err != nil {
		return nil, err
	}
	return t, nil
}
