package service

import (
	"context"
	"errors"

	"landlocked/internal/ledger"
	"landlocked/internal/registry/models"
	dErrors "landlocked/pkg/domain-errors"
	"landlocked/pkg/platform/sentinel"
)

// ResolveRole returns the highest role identity holds, probing Admin, then
// Registrar, then User. User addresses include the id number, so without
// idNumber a plain user resolves to RoleUnknown.
func (s *Service) ResolveRole(ctx context.Context, identity ledger.Address, idNumber string) (models.Role, error) {
	var admin models.Admin
	err := s.ledger.Load(ctx, s.seeds.Admin(identity), models.KindAdmin, &admin)
	switch {
	case err == nil:
		state, err := s.ProtocolState(ctx)
		if err != nil {
			return models.RoleUnknown, err
		}
		if state.IsAdmin(identity) {
			return models.RoleAdmin, nil
		}
	case !isAbsent(err):
		return models.RoleUnknown, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}

	var registrar models.Registrar
	err = s.ledger.Load(ctx, s.seeds.Registrar(identity), models.KindRegistrar, &registrar)
	switch {
	case err == nil:
		return models.RoleRegistrar, nil
	case !isAbsent(err):
		return models.RoleUnknown, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrar")
	}

	if idNumber == "" {
		return models.RoleUnknown, nil
	}
	var user models.User
	err = s.ledger.Load(ctx, s.seeds.User(idNumber, identity), models.KindUser, &user)
	switch {
	case err == nil:
		return models.RoleUser, nil
	case !isAbsent(err):
		return models.RoleUnknown, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return models.RoleUnknown, nil
}

func isAbsent(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrClosed)
}

func (s *Service) load(ctx context.Context, addr ledger.Address, kind ledger.Kind, v any, what string) error {
	err := s.ledger.Load(ctx, addr, kind, v)
	switch {
	case err == nil:
		return nil
	case isAbsent(err):
		return dErrors.Wrap(err, dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrKindMismatch):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "address does not hold a "+what)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
	}
}

func (s *Service) ProtocolState(ctx context.Context) (*models.ProtocolState, error) {
	var state models.ProtocolState
	if err := s.load(ctx, s.seeds.ProtocolState(), models.KindProtocolState, &state, "protocol state"); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Service) TitleDeed(ctx context.Context, addr ledger.Address) (*models.TitleDeed, error) {
	var deed models.TitleDeed
	if err := s.load(ctx, addr, models.KindTitleDeed, &deed, "title deed"); err != nil {
		return nil, err
	}
	return &deed, nil
}

// TitleDeedByNumber resolves a title number through its lookup record. It
// does not count as a search.
func (s *Service) TitleDeedByNumber(ctx context.Context, titleNumber string) (ledger.Address, *models.TitleDeed, error) {
	var lookup models.TitleNumberLookup
	if err := s.load(ctx, s.seeds.TitleNumberLookup(titleNumber), models.KindTitleNumberLookup, &lookup, "title number"); err != nil {
		return ledger.ZeroAddress, nil, err
	}
	deed, err := s.TitleDeed(ctx, lookup.TitleDeed)
	if err != nil {
		return ledger.ZeroAddress, nil, err
	}
	return lookup.TitleDeed, deed, nil
}

// OwnershipHistory returns the provenance chain of a deed, oldest first.
func (s *Service) OwnershipHistory(ctx context.Context, deedAddr ledger.Address) ([]models.OwnershipHistory, error) {
	deed, err := s.TitleDeed(ctx, deedAddr)
	if err != nil {
		return nil, err
	}
	out := make([]models.OwnershipHistory, 0, deed.TotalTransfers+1)
	for seq := uint64(0); seq <= deed.TotalTransfers; seq++ {
		var entry models.OwnershipHistory
		if err := s.load(ctx, s.seeds.OwnershipHistory(deedAddr, seq), models.KindOwnershipHistory, &entry, "ownership history"); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Service) Agreement(ctx context.Context, addr ledger.Address) (*models.Agreement, error) {
	var a models.Agreement
	if err := s.load(ctx, addr, models.KindAgreement, &a, "agreement"); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Service) Escrow(ctx context.Context, addr ledger.Address) (*models.Escrow, error) {
	var e models.Escrow
	if err := s.load(ctx, addr, models.KindEscrow, &e, "escrow"); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) Balance(ctx context.Context, addr ledger.Address) (uint64, error) {
	balance, err := s.ledger.Balance(ctx, addr)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return balance, nil
}

// Account returns the raw account at addr, whatever record it holds.
func (s *Service) Account(ctx context.Context, addr ledger.Address) (*ledger.Account, error) {
	acct, err := s.ledger.Account(ctx, addr)
	switch {
	case err == nil:
		return acct, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "account not found")
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
}

// Head returns the latest committed ledger position.
func (s *Service) Head() ledger.Head {
	return s.ledger.Head()
}
