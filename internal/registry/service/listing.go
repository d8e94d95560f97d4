package service

import (
	"context"

	"landlocked/internal/audit"
	"landlocked/internal/ledger"
	"landlocked/internal/registry/models"
	dErrors "landlocked/pkg/domain-errors"
)

type MarkTitleForSaleAccounts struct {
	ProtocolState ledger.Address `json:"protocol_state"`
	Seller        ledger.Address `json:"seller"`
	TitleDeed     ledger.Address `json:"title_deed"`
	TitleForSale  ledger.Address `json:"title_for_sale"`
}

// MarkTitleForSale lists a deed the signer controls at price. A listing left
// over from an earlier completed sale by the same seller is replaced.
func (s *Service) MarkTitleForSale(ctx context.Context, signer ledger.Address, acc MarkTitleForSaleAccounts, price uint64) (*ledger.Commit, error) {
	commit, err := s.execute(ctx, "mark_title_for_sale", signer, func(tx *ledger.Tx) error {
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
		if err := deed.CanList(signer); err != nil {
			return err
		}
		if err := expect(acc.TitleForSale, s.seeds.TitleForSale(signer, acc.TitleDeed), "title for sale"); err != nil {
			return err
		}
		if deed.IsForSale {
			return dErrors.New(dErrors.CodeAccountAlreadyInUse, "title deed is already listed for sale")
		}
		listing, err := models.NewTitleForSale(acc.TitleDeed, *seller, price, tx.Now())
		if err != nil {
			return err
		}

		stale, err := tx.Exists(acc.TitleForSale)
		if err != nil {
			return err
		}
		if stale {
			err = tx.Put(acc.TitleForSale, models.KindTitleForSale, listing)
		} else {
			err = tx.Create(signer, acc.TitleForSale, models.KindTitleForSale, listing)
		}
		if err != nil {
			return err
		}
		deed.ApplyListing()
		return tx.Put(acc.TitleDeed, models.KindTitleDeed, deed)
	})
	if err != nil {
		return nil, err
	}
	event := auditEvent(audit.EventTitleListed, signer, acc.TitleForSale)
	event.TitleDeed = acc.TitleDeed.String()
	event.Amount = price
	s.logAudit(ctx, event)
	return commit, nil
}
