package service

import (
	"context"

	"landlocked/internal/audit"
	"landlocked/internal/ledger"
	"landlocked/internal/registry/models"
	dErrors "landlocked/pkg/domain-errors"
)

type InitializeAccounts struct {
	ProtocolState ledger.Address `json:"protocol_state"`
}

type ConfirmAdminAccounts struct {
	ProtocolState ledger.Address `json:"protocol_state"`
	Admin         ledger.Address `json:"admin"`
}

type AddRegistrarAccounts struct {
	ProtocolState ledger.Address `json:"protocol_state"`
	Admin         ledger.Address `json:"admin"`
	Registrar     ledger.Address `json:"registrar"`
}

type ConfirmRegistrarAccounts struct {
	ProtocolState ledger.Address `json:"protocol_state"`
	Registrar     ledger.Address `json:"registrar"`
}

type SetProtocolPausedAccounts struct {
	ProtocolState ledger.Address `json:"protocol_state"`
	Admin         ledger.Address `json:"admin"`
}

// Initialize creates the protocol state. It succeeds once; signer must be
// one of admins.
func (s *Service) Initialize(ctx context.Context, signer ledger.Address, acc InitializeAccounts, admins []ledger.Address) (*ledger.Commit, error) {
	commit, err := s.execute(ctx, "initialize", signer, func(tx *ledger.Tx) error {
		if err := expect(acc.ProtocolState, s.seeds.ProtocolState(), "protocol state"); err != nil {
			return err
		}
		state, err := models.NewProtocolState(admins, signer)
		if err != nil {
			return err
		}
		return tx.Create(signer, acc.ProtocolState, models.KindProtocolState, state)
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, auditEvent(audit.EventProtocolInitialized, signer, acc.ProtocolState))
	return commit, nil
}

// ConfirmAdmin creates the signer's Admin record.
func (s *Service) ConfirmAdmin(ctx context.Context, signer ledger.Address, acc ConfirmAdminAccounts) (*ledger.Commit, error) {
	commit, err := s.execute(ctx, "confirm_admin", signer, func(tx *ledger.Tx) error {
		state, err := s.activeProtocol(tx, acc.ProtocolState)
		if err != nil {
			return err
		}
		if !state.IsAdmin(signer) {
			return dErrors.New(dErrors.CodeInvalidAdmin, "signer is not listed as an admin")
		}
		if err := expect(acc.Admin, s.seeds.Admin(signer), "admin"); err != nil {
			return err
		}
		return tx.Create(signer, acc.Admin, models.KindAdmin, models.NewAdmin(signer, tx.Now()))
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, auditEvent(audit.EventAdminConfirmed, signer, acc.Admin))
	return commit, nil
}

// AddRegistrar appoints identity as an inactive registrar. The appointee
// activates the record with ConfirmRegistrar.
func (s *Service) AddRegistrar(ctx context.Context, signer ledger.Address, acc AddRegistrarAccounts, identity ledger.Address, details models.PersonDetails) (*ledger.Commit, error) {
	details.Normalize()
	commit, err := s.execute(ctx, "add_registrar", signer, func(tx *ledger.Tx) error {
		state, err := s.activeProtocol(tx, acc.ProtocolState)
		if err != nil {
			return err
		}
		if err := s.confirmedAdmin(tx, state, acc.Admin, signer); err != nil {
			return err
		}
		if err := expect(acc.Registrar, s.seeds.Registrar(identity), "registrar"); err != nil {
			return err
		}
		registrar, err := models.NewRegistrar(identity, details, signer, tx.Now())
		if err != nil {
			return err
		}
		return tx.Create(signer, acc.Registrar, models.KindRegistrar, registrar)
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, auditEvent(audit.EventRegistrarAdded, signer, acc.Registrar))
	return commit, nil
}

// ConfirmRegistrar activates the signer's own registrar record.
func (s *Service) ConfirmRegistrar(ctx context.Context, signer ledger.Address, acc ConfirmRegistrarAccounts) (*ledger.Commit, error) {
	commit, err := s.execute(ctx, "confirm_registrar", signer, func(tx *ledger.Tx) error {
		if _, err := s.activeProtocol(tx, acc.ProtocolState); err != nil {
			return err
		}
		if err := expect(acc.Registrar, s.seeds.Registrar(signer), "registrar"); err != nil {
			return err
		}
		var registrar models.Registrar
		if err := tx.Load(acc.Registrar, models.KindRegistrar, &registrar); err != nil {
			return err
		}
		if err := registrar.CanConfirm(); err != nil {
			return err
		}
		registrar.ApplyConfirmation(tx.Now())
		return tx.Put(acc.Registrar, models.KindRegistrar, &registrar)
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, auditEvent(audit.EventRegistrarConfirmed, signer, acc.Registrar))
	return commit, nil
}

// SetProtocolPaused halts or resumes every other mutating operation. Only a
// confirmed admin may call it, and it works while paused.
func (s *Service) SetProtocolPaused(ctx context.Context, signer ledger.Address, acc SetProtocolPausedAccounts, paused bool) (*ledger.Commit, error) {
	commit, err := s.execute(ctx, "set_protocol_paused", signer, func(tx *ledger.Tx) error {
		state, err := s.protocol(tx, acc.ProtocolState)
		if err != nil {
			return err
		}
		if err := s.confirmedAdmin(tx, state, acc.Admin, signer); err != nil {
			return err
		}
		state.IsPaused = paused
		return tx.Put(acc.ProtocolState, models.KindProtocolState, state)
	})
	if err != nil {
		return nil, err
	}
	event := audit.EventProtocolResumed
	if paused {
		event = audit.EventProtocolPaused
	}
	s.logAudit(ctx, auditEvent(event, signer, acc.ProtocolState))
	return commit, nil
}
