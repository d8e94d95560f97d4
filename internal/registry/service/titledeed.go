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

type AssignTitleDeedAccounts struct {
	ProtocolState     ledger.Address `json:"protocol_state"`
	Registrar         ledger.Address `json:"registrar"`
	Owner             ledger.Address `json:"owner"`
	TitleDeed         ledger.Address `json:"title_deed"`
	TitleNumberLookup ledger.Address `json:"title_number_lookup"`
	OwnershipHistory  ledger.Address `json:"ownership_history"`
}

type SearchTitleDeedAccounts struct {
	ProtocolState     ledger.Address `json:"protocol_state"`
	Searcher          ledger.Address `json:"searcher"`
	TitleDeed         ledger.Address `json:"title_deed"`
	TitleNumberLookup ledger.Address `json:"title_number_lookup"`
}

// AssignTitleDeed issues a deed for a parcel to a registered user. The deed,
// its title number lookup and ownership history entry 0 are created
// together; the registrar pays their storage.
func (s *Service) AssignTitleDeed(ctx context.Context, signer ledger.Address, acc AssignTitleDeedAccounts, owner ledger.Address, parcel models.ParcelDetails) (*ledger.Commit, error) {
	parcel.Normalize()
	commit, err := s.execute(ctx, "assign_title_deed", signer, func(tx *ledger.Tx) error {
		if _, err := s.activeProtocol(tx, acc.ProtocolState); err != nil {
			return err
		}
		if _, err := s.activeRegistrar(tx, acc.Registrar, signer); err != nil {
			return err
		}
		user, err := s.user(tx, acc.Owner, owner, "owner")
		if err != nil {
			return err
		}
		deed, err := models.NewTitleDeed(*user, parcel, tx.Now())
		if err != nil {
			return err
		}
		if err := expect(acc.TitleDeed, s.seeds.TitleDeed(deed.TitleNumber), "title deed"); err != nil {
			return err
		}
		if err := expect(acc.TitleNumberLookup, s.seeds.TitleNumberLookup(deed.TitleNumber), "title number lookup"); err != nil {
			return err
		}
		if err := expect(acc.OwnershipHistory, s.seeds.OwnershipHistory(acc.TitleDeed, 0), "ownership history"); err != nil {
			return err
		}

		if err := tx.Create(signer, acc.TitleDeed, models.KindTitleDeed, deed); err != nil {
			return err
		}
		lookup := &models.TitleNumberLookup{TitleNumber: deed.TitleNumber, TitleDeed: acc.TitleDeed}
		if err := tx.Create(signer, acc.TitleNumberLookup, models.KindTitleNumberLookup, lookup); err != nil {
			return err
		}
		history := &models.OwnershipHistory{
			TitleDeed:      acc.TitleDeed,
			CurrentOwner:   owner,
			SequenceNumber: 0,
			TransferType:   models.TransferInitialAssignment,
			RecordedAt:     tx.Now().Unix(),
		}
		return tx.Create(signer, acc.OwnershipHistory, models.KindOwnershipHistory, history)
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementTitleDeedsIssued()
	}
	event := auditEvent(audit.EventTitleDeedAssigned, signer, acc.TitleDeed)
	event.TitleDeed = acc.TitleDeed.String()
	s.logAudit(ctx, event)
	return commit, nil
}

// SearchTitleDeed records a registered user's search for a title number.
func (s *Service) SearchTitleDeed(ctx context.Context, signer ledger.Address, acc SearchTitleDeedAccounts, titleNumber string) (*ledger.Commit, error) {
	commit, err := s.execute(ctx, "search_title_deed", signer, func(tx *ledger.Tx) error {
		if _, err := s.activeProtocol(tx, acc.ProtocolState); err != nil {
			return err
		}
		if err := expect(acc.TitleNumberLookup, s.seeds.TitleNumberLookup(titleNumber), "title number lookup"); err != nil {
			return err
		}
		var lookup models.TitleNumberLookup
		if err := tx.Load(acc.TitleNumberLookup, models.KindTitleNumberLookup, &lookup); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeAccountNotInitialized, "title number is not registered")
			}
			return err
		}
		if lookup.TitleDeed != acc.TitleDeed || lookup.TitleNumber != titleNumber {
			return dErrors.New(dErrors.CodeTitleAuthorityMismatch, "title number lookup does not point at the supplied deed")
		}
		if _, err := s.user(tx, acc.Searcher, signer, "searcher"); err != nil {
			if dErrors.HasCode(err, dErrors.CodeAccountNotInitialized) {
				return dErrors.Wrap(err, dErrors.CodeUnauthorized, "only registered users can search title deeds")
			}
			return err
		}
		lookup.ApplySearch(signer, tx.Now())
		return tx.Put(acc.TitleNumberLookup, models.KindTitleNumberLookup, &lookup)
	})
	if err != nil {
		return nil, err
	}
	event := auditEvent(audit.EventTitleDeedSearched, signer, acc.TitleNumberLookup)
	event.TitleDeed = acc.TitleDeed.String()
	s.logAudit(ctx, event)
	return commit, nil
}
