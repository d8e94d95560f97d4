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

type MakeAgreementAccounts struct {
	ProtocolState     ledger.Address `json:"protocol_state"`
	Seller            ledger.Address `json:"seller"`
	Buyer             ledger.Address `json:"buyer"`
	TitleDeed         ledger.Address `json:"title_deed"`
	TitleNumberLookup ledger.Address `json:"title_number_lookup"`
	TitleForSale      ledger.Address `json:"title_for_sale"`
	Agreement         ledger.Address `json:"agreement"`
	AgreementIndex    ledger.Address `json:"agreement_index"`
}

type SignAgreementAccounts struct {
	ProtocolState ledger.Address `json:"protocol_state"`
	Agreement     ledger.Address `json:"agreement"`
}

type CancelAgreementAccounts struct {
	ProtocolState  ledger.Address `json:"protocol_state"`
	Agreement      ledger.Address `json:"agreement"`
	AgreementIndex ledger.Address `json:"agreement_index"`
}

// MakeAgreement drafts a sale of a listed deed to a registered buyer at the
// asking price. At most one live agreement exists per deed.
func (s *Service) MakeAgreement(ctx context.Context, signer ledger.Address, acc MakeAgreementAccounts, price uint64) (*ledger.Commit, error) {
	commit, err := s.execute(ctx, "make_agreement", signer, func(tx *ledger.Tx) error {
		if _, err := s.activeProtocol(tx, acc.ProtocolState); err != nil {
			return err
		}
		seller, err := s.user(tx, acc.Seller, signer, "seller")
		if err != nil {
			return err
		}
		deed, err := titleDeed(tx, acc.TitleDeed)
		if err != nil {
			return err
		}
		if !deed.ControlledBy(signer) {
			return dErrors.New(dErrors.CodeUnauthorized, "only the controlling owner can draft an agreement")
		}
		if !deed.IsForSale {
			return dErrors.New(dErrors.CodeTitleNotForSale, "title deed is not for sale")
		}

		if err := expect(acc.TitleForSale, s.seeds.TitleForSale(signer, acc.TitleDeed), "title for sale"); err != nil {
			return err
		}
		var listing models.TitleForSale
		if err := tx.Load(acc.TitleForSale, models.KindTitleForSale, &listing); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeTitleNotForSale, "title deed has no listing")
			}
			return err
		}
		if listing.Seller.Authority != signer || listing.TitleDeed != acc.TitleDeed {
			return dErrors.New(dErrors.CodeUnauthorized, "listing belongs to another seller")
		}
		if price != listing.SalePrice {
			return dErrors.New(dErrors.CodePriceMismatch, "price differs from the asking price")
		}

		var buyer models.User
		if err := tx.Load(acc.Buyer, models.KindUser, &buyer); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeInvalidBuyer, "buyer is not a registered user")
			}
			return err
		}
		if err := expect(acc.Buyer, s.seeds.User(buyer.IDNumber, buyer.Authority), "buyer"); err != nil {
			return err
		}

		if err := expect(acc.TitleNumberLookup, s.seeds.TitleNumberLookup(deed.TitleNumber), "title number lookup"); err != nil {
			return err
		}
		var lookup models.TitleNumberLookup
		if err := tx.Load(acc.TitleNumberLookup, models.KindTitleNumberLookup, &lookup); err != nil {
			return err
		}
		if lookup.TitleDeed != acc.TitleDeed {
			return dErrors.New(dErrors.CodeTitleNotMarkedForSale, "title number lookup does not match the listed deed")
		}

		draft, err := models.NewAgreement(*seller, buyer, acc.TitleDeed, price, tx.Now())
		if err != nil {
			return err
		}
		if err := expect(acc.AgreementIndex, s.seeds.AgreementIndex(acc.TitleDeed), "agreement index"); err != nil {
			return err
		}
		if err := expect(acc.Agreement, s.seeds.Agreement(signer, buyer.Authority, acc.TitleDeed, price), "agreement"); err != nil {
			return err
		}

		var index models.AgreementIndex
		indexErr := tx.Load(acc.AgreementIndex, models.KindAgreementIndex, &index)
		switch {
		case errors.Is(indexErr, sentinel.ErrNotFound):
		case indexErr != nil:
			return indexErr
		case index.Live:
			return dErrors.New(dErrors.CodeAgreementAlreadyExists, "title deed already has a live agreement")
		}

		settled := func(a *models.Agreement) bool { return a.Status == models.AgreementSettled }
		if err := createOrReuse(tx, signer, acc.Agreement, models.KindAgreement, draft, settled); err != nil {
			return err
		}
		next := models.AgreementIndex{TitleDeed: acc.TitleDeed, Agreement: acc.Agreement, Live: true}
		if indexErr == nil {
			return tx.Put(acc.AgreementIndex, models.KindAgreementIndex, &next)
		}
		return tx.Create(signer, acc.AgreementIndex, models.KindAgreementIndex, &next)
	})
	if err != nil {
		return nil, err
	}
	event := auditEvent(audit.EventAgreementDrafted, signer, acc.Agreement)
	event.TitleDeed = acc.TitleDeed.String()
	event.Amount = price
	s.logAudit(ctx, event)
	return commit, nil
}

// SignAgreement records the buyer's acceptance at the agreed price.
func (s *Service) SignAgreement(ctx context.Context, signer ledger.Address, acc SignAgreementAccounts, price uint64) (*ledger.Commit, error) {
	var deed ledger.Address
	commit, err := s.execute(ctx, "sign_agreement", signer, func(tx *ledger.Tx) error {
		if _, err := s.activeProtocol(tx, acc.ProtocolState); err != nil {
			return err
		}
		a, err := agreement(tx, acc.Agreement)
		if err != nil {
			return err
		}
		if err := a.CanSign(signer, price); err != nil {
			return err
		}
		a.ApplySignature(tx.Now())
		deed = a.TitleDeed
		return tx.Put(acc.Agreement, models.KindAgreement, a)
	})
	if err != nil {
		return nil, err
	}
	event := auditEvent(audit.EventAgreementSigned, signer, acc.Agreement)
	event.TitleDeed = deed.String()
	event.Amount = price
	s.logAudit(ctx, event)
	return commit, nil
}

// CancelAgreement withdraws a drafted or signed agreement. The record is
// closed and its storage refunded to the signer; the listing stays up so a
// new agreement can be drafted.
func (s *Service) CancelAgreement(ctx context.Context, signer ledger.Address, acc CancelAgreementAccounts) (*ledger.Commit, error) {
	var deed ledger.Address
	commit, err := s.execute(ctx, "cancel_agreement", signer, func(tx *ledger.Tx) error {
		if _, err := s.activeProtocol(tx, acc.ProtocolState); err != nil {
			return err
		}
		a, err := agreement(tx, acc.Agreement)
		if err != nil {
			return err
		}
		if err := a.CanCancel(signer); err != nil {
			return err
		}
		if err := expect(acc.AgreementIndex, s.seeds.AgreementIndex(a.TitleDeed), "agreement index"); err != nil {
			return err
		}
		deed = a.TitleDeed

		var index models.AgreementIndex
		if err := tx.Load(acc.AgreementIndex, models.KindAgreementIndex, &index); err != nil {
			return err
		}
		if err := tx.Close(acc.Agreement, signer); err != nil {
			return err
		}
		if index.Agreement != acc.Agreement {
			return nil
		}
		index.Live = false
		return tx.Put(acc.AgreementIndex, models.KindAgreementIndex, &index)
	})
	if err != nil {
		return nil, err
	}
	event := auditEvent(audit.EventAgreementCancelled, signer, acc.Agreement)
	event.TitleDeed = deed.String()
	s.logAudit(ctx, event)
	return commit, nil
}
