package txn

import (
	"bytes"
	"context"
	"encoding/json"

	"landlocked/internal/ledger"
	"landlocked/internal/registry/models"
	"landlocked/internal/registry/service"
	dErrors "landlocked/pkg/domain-errors"
)

// Instruction names a registry operation.
type Instruction string

const (
	InstructionInitialize        Instruction = "initialize"
	InstructionConfirmAdmin      Instruction = "confirm_admin_account"
	InstructionAddRegistrar      Instruction = "add_registrar"
	InstructionConfirmRegistrar  Instruction = "confirm_registrar_account"
	InstructionSetProtocolPaused Instruction = "set_protocol_paused"
	InstructionCreateUser        Instruction = "create_user_account"
	InstructionAssignTitleDeed   Instruction = "assign_title_deed_to_owner"
	InstructionSearchTitleDeed   Instruction = "search_title_deed_by_number"
	InstructionMarkTitleForSale  Instruction = "mark_title_for_sale"
	InstructionMakeAgreement     Instruction = "make_agreement"
	InstructionSignAgreement     Instruction = "sign_agreement"
	InstructionCancelAgreement   Instruction = "cancel_agreement"
	InstructionCreateEscrow      Instruction = "create_escrow"
	InstructionDepositPayment    Instruction = "deposit_payment_to_escrow"
	InstructionAuthorizeEscrow   Instruction = "authorize_escrow"
)

// Registry is the set of operations a transaction can invoke.
type Registry interface {
	Initialize(ctx context.Context, signer ledger.Address, acc service.InitializeAccounts, admins []ledger.Address) (*ledger.Commit, error)
	ConfirmAdmin(ctx context.Context, signer ledger.Address, acc service.ConfirmAdminAccounts) (*ledger.Commit, error)
	AddRegistrar(ctx context.Context, signer ledger.Address, acc service.AddRegistrarAccounts, identity ledger.Address, details models.PersonDetails) (*ledger.Commit, error)
	ConfirmRegistrar(ctx context.Context, signer ledger.Address, acc service.ConfirmRegistrarAccounts) (*ledger.Commit, error)
	SetProtocolPaused(ctx context.Context, signer ledger.Address, acc service.SetProtocolPausedAccounts, paused bool) (*ledger.Commit, error)
	CreateUserAccount(ctx context.Context, signer ledger.Address, acc service.CreateUserAccounts, details models.PersonDetails) (*ledger.Commit, error)
	AssignTitleDeed(ctx context.Context, signer ledger.Address, acc service.AssignTitleDeedAccounts, owner ledger.Address, parcel models.ParcelDetails) (*ledger.Commit, error)
	SearchTitleDeed(ctx context.Context, signer ledger.Address, acc service.SearchTitleDeedAccounts, titleNumber string) (*ledger.Commit, error)
	MarkTitleForSale(ctx context.Context, signer ledger.Address, acc service.MarkTitleForSaleAccounts, price uint64) (*ledger.Commit, error)
	MakeAgreement(ctx context.Context, signer ledger.Address, acc service.MakeAgreementAccounts, price uint64) (*ledger.Commit, error)
	SignAgreement(ctx context.Context, signer ledger.Address, acc service.SignAgreementAccounts, price uint64) (*ledger.Commit, error)
	CancelAgreement(ctx context.Context, signer ledger.Address, acc service.CancelAgreementAccounts) (*ledger.Commit, error)
	CreateEscrow(ctx context.Context, signer ledger.Address, acc service.CreateEscrowAccounts) (*ledger.Commit, error)
	DepositPayment(ctx context.Context, signer ledger.Address, acc service.DepositPaymentAccounts, amount uint64) (*ledger.Commit, error)
	AuthorizeEscrow(ctx context.Context, signer ledger.Address, acc service.AuthorizeEscrowAccounts) (*ledger.Commit, error)
}

type NoArgs struct{}

type InitializeArgs struct {
	Admins []ledger.Address `json:"admins"`
}

type AddRegistrarArgs struct {
	Identity  ledger.Address `json:"identity"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	IDNumber  string         `json:"id_number"`
}

type SetProtocolPausedArgs struct {
	Paused bool `json:"paused"`
}

type CreateUserArgs struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IDNumber    string `json:"id_number"`
	PhoneNumber string `json:"phone_number"`
}

type AssignTitleDeedArgs struct {
	Owner                  ledger.Address `json:"owner"`
	TitleNumber            string         `json:"title_number"`
	Location               string         `json:"location"`
	Acreage                float64        `json:"acreage"`
	DistrictLandRegistry   string         `json:"district_land_registry"`
	RegistryMapsheetNumber uint64         `json:"registry_mapsheet_number"`
}

type SearchTitleDeedArgs struct {
	TitleNumber string `json:"title_number"`
}

type PriceArgs struct {
	Price uint64 `json:"price"`
}

type AmountArgs struct {
	Amount uint64 `json:"amount"`
}

type handlerFunc func(ctx context.Context, r Registry, signer ledger.Address, t *Transaction) (*ledger.Commit, error)

// bind decodes accounts A and args P before calling the registry.
func bind[A, P any](call func(ctx context.Context, r Registry, signer ledger.Address, acc A, args P) (*ledger.Commit, error)) handlerFunc {
	return func(ctx context.Context, r Registry, signer ledger.Address, t *Transaction) (*ledger.Commit, error) {
		var acc A
		if err := decodeStrict(t.Accounts, &acc); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid accounts for "+string(t.Instruction))
		}
		var args P
		if len(t.Args) > 0 {
			if err := decodeStrict(t.Args, &args); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid args for "+string(t.Instruction))
			}
		}
		return call(ctx, r, signer, acc, args)
	}
}

func decodeStrict(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

var handlers = map[Instruction]handlerFunc{
	InstructionInitialize: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.InitializeAccounts, args InitializeArgs) (*ledger.Commit, error) {
		return r.Initialize(ctx, signer, acc, args.Admins)
	}),
	InstructionConfirmAdmin: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.ConfirmAdminAccounts, _ NoArgs) (*ledger.Commit, error) {
		return r.ConfirmAdmin(ctx, signer, acc)
	}),
	InstructionAddRegistrar: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.AddRegistrarAccounts, args AddRegistrarArgs) (*ledger.Commit, error) {
		return r.AddRegistrar(ctx, signer, acc, args.Identity, models.PersonDetails{
			FirstName: args.FirstName,
			LastName:  args.LastName,
			IDNumber:  args.IDNumber,
		})
	}),
	InstructionConfirmRegistrar: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.ConfirmRegistrarAccounts, _ NoArgs) (*ledger.Commit, error) {
		return r.ConfirmRegistrar(ctx, signer, acc)
	}),
	InstructionSetProtocolPaused: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.SetProtocolPausedAccounts, args SetProtocolPausedArgs) (*ledger.Commit, error) {
		return r.SetProtocolPaused(ctx, signer, acc, args.Paused)
	}),
	InstructionCreateUser: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.CreateUserAccounts, args CreateUserArgs) (*ledger.Commit, error) {
		return r.CreateUserAccount(ctx, signer, acc, models.PersonDetails{
			FirstName:   args.FirstName,
			LastName:    args.LastName,
			IDNumber:    args.IDNumber,
			PhoneNumber: args.PhoneNumber,
		})
	}),
	InstructionAssignTitleDeed: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.AssignTitleDeedAccounts, args AssignTitleDeedArgs) (*ledger.Commit, error) {
		return r.AssignTitleDeed(ctx, signer, acc, args.Owner, models.ParcelDetails{
			TitleNumber:            args.TitleNumber,
			Location:               args.Location,
			Acreage:                args.Acreage,
			DistrictLandRegistry:   args.DistrictLandRegistry,
			RegistryMapsheetNumber: args.RegistryMapsheetNumber,
		})
	}),
	InstructionSearchTitleDeed: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.SearchTitleDeedAccounts, args SearchTitleDeedArgs) (*ledger.Commit, error) {
		return r.SearchTitleDeed(ctx, signer, acc, args.TitleNumber)
	}),
	InstructionMarkTitleForSale: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.MarkTitleForSaleAccounts, args PriceArgs) (*ledger.Commit, error) {
		return r.MarkTitleForSale(ctx, signer, acc, args.Price)
	}),
	InstructionMakeAgreement: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.MakeAgreementAccounts, args PriceArgs) (*ledger.Commit, error) {
		return r.MakeAgreement(ctx, signer, acc, args.Price)
	}),
	InstructionSignAgreement: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.SignAgreementAccounts, args PriceArgs) (*ledger.Commit, error) {
		return r.SignAgreement(ctx, signer, acc, args.Price)
	}),
	InstructionCancelAgreement: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.CancelAgreementAccounts, _ NoArgs) (*ledger.Commit, error) {
		return r.CancelAgreement(ctx, signer, acc)
	}),
	InstructionCreateEscrow: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.CreateEscrowAccounts, _ NoArgs) (*ledger.Commit, error) {
		return r.CreateEscrow(ctx, signer, acc)
	}),
	InstructionDepositPayment: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.DepositPaymentAccounts, args AmountArgs) (*ledger.Commit, error) {
		return r.DepositPayment(ctx, signer, acc, args.Amount)
	}),
	InstructionAuthorizeEscrow: bind(func(ctx context.Context, r Registry, signer ledger.Address, acc service.AuthorizeEscrowAccounts, _ NoArgs) (*ledger.Commit, error) {
		return r.AuthorizeEscrow(ctx, signer, acc)
	}),
}
