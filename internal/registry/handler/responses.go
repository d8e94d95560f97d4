package handler

import (
	"fmt"

	"landlocked/internal/ledger"
	"landlocked/internal/registry/models"
	"landlocked/internal/txn"
	dErrors "landlocked/pkg/domain-errors"
)

type SubmitResponse struct {
	TxHash      string         `json:"tx_hash"`
	Instruction string         `json:"instruction"`
	Signer      ledger.Address `json:"signer"`
	Height      uint64         `json:"height"`
	Root        string         `json:"root"`
	Receipt     string         `json:"receipt,omitempty"`
}

func FromResult(res *txn.Result) *SubmitResponse {
	return &SubmitResponse{
		TxHash:      res.Hash,
		Instruction: string(res.Instruction),
		Signer:      res.Signer,
		Height:      res.Commit.Height,
		Root:        res.Commit.Root.String(),
	}
}

type ProtocolResponse struct {
	*models.ProtocolState
	Head ledger.Head `json:"head"`
}

// AccountResponse shows an account with its record decoded by kind.
type AccountResponse struct {
	Address  ledger.Address `json:"address"`
	Kind     ledger.Kind    `json:"kind"`
	Lamports uint64         `json:"lamports"`
	Closed   bool           `json:"closed"`
	Record   any            `json:"record,omitempty"`
}

func FromAccount(addr ledger.Address, acct *ledger.Account) (*AccountResponse, error) {
	resp := &AccountResponse{
		Address:  addr,
		Kind:     acct.Kind,
		Lamports: acct.Lamports,
		Closed:   acct.Closed,
	}
	if !acct.Live() {
		return resp, nil
	}
	record := newRecord(acct.Kind)
	if record == nil {
		return nil, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unknown record kind %q", acct.Kind))
	}
	if err := ledger.Unmarshal(acct.Data, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode record")
	}
	resp.Record = record
	return resp, nil
}

func newRecord(kind ledger.Kind) any {
	switch kind {
	case models.KindProtocolState:
		return &models.ProtocolState{}
	case models.KindAdmin:
		return &models.Admin{}
	case models.KindRegistrar:
		return &models.Registrar{}
	case models.KindUser:
		return &models.User{}
	case models.KindIDNumberClaim:
		return &models.IDNumberClaim{}
	case models.KindTitleDeed:
		return &models.TitleDeed{}
	case models.KindTitleNumberLookup:
		return &models.TitleNumberLookup{}
	case models.KindOwnershipHistory:
		return &models.OwnershipHistory{}
	case models.KindTitleForSale:
		return &models.TitleForSale{}
	case models.KindAgreement:
		return &models.Agreement{}
	case models.KindAgreementIndex:
		return &models.AgreementIndex{}
	case models.KindEscrow:
		return &models.Escrow{}
	case models.KindDeposit:
		return &models.Deposit{}
	}
	return nil
}

type BalanceResponse struct {
	Address  ledger.Address `json:"address"`
	Lamports uint64         `json:"lamports"`
}

type RoleResponse struct {
	Identity ledger.Address `json:"identity"`
	Role     models.Role    `json:"role"`
}

type TitleDeedResponse struct {
	Address ledger.Address `json:"address"`
	*models.TitleDeed
}

type HistoryResponse struct {
	TitleDeed ledger.Address            `json:"title_deed"`
	Entries   []models.OwnershipHistory `json:"entries"`
}
