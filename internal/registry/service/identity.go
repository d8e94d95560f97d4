package service

import (
	"context"

	"landlocked/internal/audit"
	"landlocked/internal/ledger"
	"landlocked/internal/registry/models"
)

type CreateUserAccounts struct {
	ProtocolState ledger.Address `json:"protocol_state"`
	User          ledger.Address `json:"user"`
	IDNumberClaim ledger.Address `json:"id_number_claim"`
}

// CreateUserAccount registers signer as a natural person. The id number claim
// makes a second registration with the same id number fail, whichever
// identity signs it.
func (s *Service) CreateUserAccount(ctx context.Context, signer ledger.Address, acc CreateUserAccounts, details models.PersonDetails) (*ledger.Commit, error) {
	details.Normalize()
	commit, err := s.execute(ctx, "create_user_account", signer, func(tx *ledger.Tx) error {
		if _, err := s.activeProtocol(tx, acc.ProtocolState); err != nil {
			return err
		}
		user, err := models.NewUser(signer, details, tx.Now())
		if err != nil {
			return err
		}
		if err := expect(acc.User, s.seeds.User(user.IDNumber, signer), "user"); err != nil {
			return err
		}
		if err := expect(acc.IDNumberClaim, s.seeds.IDNumberClaim(user.IDNumber), "id number claim"); err != nil {
			return err
		}
		claim := &models.IDNumberClaim{Person: acc.User, ClaimedAt: tx.Now().Unix()}
		if err := tx.Create(signer, acc.IDNumberClaim, models.KindIDNumberClaim, claim); err != nil {
			return err
		}
		return tx.Create(signer, acc.User, models.KindUser, user)
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, auditEvent(audit.EventUserRegistered, signer, acc.User))
	return commit, nil
}
