package service

import (
	"context"
	"errors"

	"landlocked/internal/audit"
	"landlocked/internal/ledger"
	"landlocked/internal/registry/models"
	dErrors "landlocked/pkg/domain-errors"
	"landlocked/pkg/platform/sentinel"
)

type CreateEscrowAccounts struct {
	ProtocolState ledger.Address `json:"protocol_state"`
	TitleDeed     ledger.Address `json:"title_deed"`
	Agreement     ledger.Address `json:"agreement"`
	Escrow        ledger.Address `json:"escrow"`
	// Buyer is the buyer's identity, checked against the agreement.
	Buyer ledger.Address `json:"buyer"`
}

type DepositPaymentAccounts struct {
	ProtocolState ledger.Address `json:"protocol_state"`
	Escrow        ledger.Address `json:"escrow"`
	Deposit       ledger.Address `json:"deposit"`
}

type AuthorizeEscrowAccounts struct {
	ProtocolState    ledger.Address `json:"protocol_state"`
	Registrar        ledger.Address `json:"registrar"`
	Escrow           ledger.Address `json:"escrow"`
	Deposit          ledger.Address `json:"deposit"`
	TitleDeed        ledger.Address `json:"title_deed"`
	Agreement        ledger.Address `json:"agreement"`
	AgreementIndex   ledger.Address `json:"agreement_index"`
	OwnershipHistory ledger.Address `json:"ownership_history"`
	// Seller is the seller's identity, which receives the payment.
	Seller ledger.Address `json:"seller"`
}

// CreateEscrow hands control of the deed to a new escrow for a signed
// agreement. From here the owner can no longer list or sell the deed.
func (s *Service) CreateEscrow(ctx context.Context, signer ledger.Address, acc CreateEscrowAccounts) (*ledger.Commit, error) {
	commit, err := s.execute(ctx, "create_escrow", signer, func(tx *ledger.Tx) error {
		if _, err := s.activeProtocol(tx, acc.ProtocolState); err != nil {
			return err
		}
		deed, err := titleDeed(tx, acc.TitleDeed)
		if err != nil {
			return err
		}
		if !deed.ControlledBy(signer) {
			return dErrors.New(dErrors.CodeUnauthorized, "only the controlling owner can open an escrow")
		}
		a, err := agreement(tx, acc.Agreement)
		if err != nil {
			return err
		}
		if a.TitleDeed != acc.TitleDeed {
			return dErrors.New(dErrors.CodeConstraintSeeds, "agreement is for another title deed")
		}
		if a.Seller.Authority != signer {
			return dErrors.New(dErrors.CodeUnauthorized, "signer is not the agreement seller")
		}
		if a.Buyer.Authority != acc.Buyer {
			return dErrors.New(dErrors.CodeUnauthorized, "buyer does not match the agreement")
		}
		if err := a.CanEscrow(); err != nil {
			return err
		}
		if err := expect(acc.Escrow, s.seeds.Escrow(acc.Agreement), "escrow"); err != nil {
			return err
		}

		completed := func(e *models.Escrow) bool { return e.State == models.EscrowCompleted }
		if err := createOrReuse(tx, signer, acc.Escrow, models.KindEscrow, models.NewEscrow(acc.Agreement, a, tx.Now()), completed); err != nil {
			return err
		}
		deed.ApplyEscrowHold(acc.Escrow)
		if err := tx.Put(acc.TitleDeed, models.KindTitleDeed, deed); err != nil {
			return err
		}
		a.ApplyEscrow()
		return tx.Put(acc.Agreement, models.KindAgreement, a)
	})
	if err != nil {
		return nil, err
	}
	event := auditEvent(audit.EventEscrowCreated, signer, acc.Escrow)
	event.TitleDeed = acc.TitleDeed.String()
	s.logAudit(ctx, event)
	return commit, nil
}

func loadEscrow(tx *ledger.Tx, addr ledger.Address) (*models.Escrow, error) {
	var e models.Escrow
	if err := tx.Load(addr, models.KindEscrow, &e); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeAccountNotInitialized, "escrow not found")
		}
		return nil, err
	}
	return &e, nil
}

// DepositPayment moves the agreed price from the buyer into custody. The
// value sits in the Deposit record's balance until the escrow is authorized.
func (s *Service) DepositPayment(ctx context.Context, signer ledger.Address, acc DepositPaymentAccounts, amount uint64) (*ledger.Commit, error) {
	var deed ledger.Address
	commit, err := s.execute(ctx, "deposit_payment", signer, func(tx *ledger.Tx) error {
		if _, err := s.activeProtocol(tx, acc.ProtocolState); err != nil {
			return err
		}
		escrow, err := loadEscrow(tx, acc.Escrow)
		if err != nil {
			return err
		}
		if err := escrow.CanDeposit(signer, amount); err != nil {
			return err
		}
		if err := expect(acc.Deposit, s.seeds.Deposit(acc.Escrow), "deposit"); err != nil {
			return err
		}
		deed = escrow.TitleDeed

		deposit := &models.Deposit{
			Escrow:      acc.Escrow,
			Buyer:       signer,
			Amount:      amount,
			DepositedAt: tx.Now().Unix(),
		}
		released := func(d *models.Deposit) bool { return d.Released }
		if err := createOrReuse(tx, signer, acc.Deposit, models.KindDeposit, deposit, released); err != nil {
			return err
		}
		if err := tx.Transfer(signer, acc.Deposit, amount); err != nil {
			return err
		}
		escrow.ApplyDeposit()
		return tx.Put(acc.Escrow, models.KindEscrow, escrow)
	})
	if err != nil {
		return nil, err
	}
	event := auditEvent(audit.EventPaymentDeposited, signer, acc.Escrow)
	event.TitleDeed = deed.String()
	event.Amount = amount
	s.logAudit(ctx, event)
	return commit, nil
}

// AuthorizeEscrow settles a funded escrow: the buyer becomes owner, the seller
// is paid exactly the deposit, and the deed can be sold again.
func (s *Service) AuthorizeEscrow(ctx context.Context, signer ledger.Address, acc AuthorizeEscrowAccounts) (*ledger.Commit, error) {
	var paid uint64
	commit, err := s.execute(ctx, "authorize_escrow", signer, func(tx *ledger.Tx) error {
		if _, err := s.activeProtocol(tx, acc.ProtocolState); err != nil {
			return err
		}
		if _, err := s.activeRegistrar(tx, acc.Registrar, signer); err != nil {
			return err
		}
		escrow, err := loadEscrow(tx, acc.Escrow)
		if err != nil {
			return err
		}
		if err := escrow.CanComplete(); err != nil {
			return err
		}
		if acc.TitleDeed != escrow.TitleDeed || acc.Agreement != escrow.Agreement || acc.Seller != escrow.Seller {
			return dErrors.New(dErrors.CodeConstraintSeeds, "accounts do not match the escrow")
		}
		if err := expect(acc.Deposit, s.seeds.Deposit(acc.Escrow), "deposit"); err != nil {
			return err
		}
		if err := expect(acc.AgreementIndex, s.seeds.AgreementIndex(acc.TitleDeed), "agreement index"); err != nil {
			return err
		}

		deed, err := titleDeed(tx, acc.TitleDeed)
		if err != nil {
			return err
		}
		if deed.Authority != models.EscrowAuthority(acc.Escrow) {
			return dErrors.New(dErrors.CodeTitleAuthorityMismatch, "title deed is not held by this escrow")
		}
		sequence := deed.TotalTransfers + 1
		if err := expect(acc.OwnershipHistory, s.seeds.OwnershipHistory(acc.TitleDeed, sequence), "ownership history"); err != nil {
			return err
		}
		a, err := agreement(tx, acc.Agreement)
		if err != nil {
			return err
		}
		var deposit models.Deposit
		if err := tx.Load(acc.Deposit, models.KindDeposit, &deposit); err != nil {
			return err
		}
		if deposit.Released || deposit.Amount != escrow.Amount {
			return dErrors.New(dErrors.CodePaymentAmountMismatch, "deposit does not hold the agreed price")
		}

		history := &models.OwnershipHistory{
			TitleDeed:      acc.TitleDeed,
			PreviousOwner:  deed.Owner.Authority,
			CurrentOwner:   a.Buyer.Authority,
			SequenceNumber: sequence,
			TransferType:   models.TransferEscrowCompletion,
			RecordedAt:     tx.Now().Unix(),
		}
		if err := tx.Create(signer, acc.OwnershipHistory, models.KindOwnershipHistory, history); err != nil {
			return err
		}
		deed.ApplyTransfer(a.Buyer)
		if err := tx.Put(acc.TitleDeed, models.KindTitleDeed, deed); err != nil {
			return err
		}

		paid = deposit.Amount
		if err := tx.Transfer(acc.Deposit, escrow.Seller, deposit.Amount); err != nil {
			return err
		}
		deposit.ApplyRelease(tx.Now())
		if err := tx.Put(acc.Deposit, models.KindDeposit, &deposit); err != nil {
			return err
		}
		escrow.ApplyCompletion(tx.Now())
		if err := tx.Put(acc.Escrow, models.KindEscrow, escrow); err != nil {
			return err
		}
		a.ApplySettlement()
		if err := tx.Put(acc.Agreement, models.KindAgreement, a); err != nil {
			return err
		}

		var index models.AgreementIndex
		if err := tx.Load(acc.AgreementIndex, models.KindAgreementIndex, &index); err != nil {
			return err
		}
		index.Live = false
		return tx.Put(acc.AgreementIndex, models.KindAgreementIndex, &index)
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveSettlement(paid)
	}
	event := auditEvent(audit.EventEscrowCompleted, signer, acc.Escrow)
	event.TitleDeed = acc.TitleDeed.String()
	event.Amount = paid
	s.logAudit(ctx, event)
	return commit, nil
}
