package e2e

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"landlocked/internal/ledger"
	"landlocked/internal/registry/client"
	"landlocked/internal/txn"
)

// RegisterSteps binds the step vocabulary to w and gives every scenario a
// fresh node.
func RegisterSteps(ctx *godog.ScenarioContext, w *World) {
	ctx.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		w.stop()
		return ctx, err
	})

	// Setup
	ctx.Step(`^a registry node funding (.+)$`, w.aNodeFunding)
	ctx.Step(`^"([^"]*)" initializes the protocol as its admin$`, w.initializesProtocol)
	ctx.Step(`^"([^"]*)" appoints "([^"]*)" as registrar$`, w.appointsRegistrar)
	ctx.Step(`^"([^"]*)" registers with id number "([^"]*)"$`, w.registers)
	ctx.Step(`^"([^"]*)" issues title "([^"]*)" to "([^"]*)"$`, w.issuesTitle)

	// Sale flow
	ctx.Step(`^"([^"]*)" lists title "([^"]*)" for (\d+) lamports$`, w.listsTitle)
	ctx.Step(`^"([^"]*)" agrees to sell title "([^"]*)" to "([^"]*)" for (\d+) lamports$`, w.agreesToSell)
	ctx.Step(`^"([^"]*)" signs the agreement$`, w.signsAgreement)
	ctx.Step(`^"([^"]*)" cancels the agreement$`, w.cancelsAgreement)
	ctx.Step(`^"([^"]*)" opens escrow for the agreement$`, w.opensEscrow)
	ctx.Step(`^"([^"]*)" deposits (\d+) lamports into escrow$`, w.deposits)
	ctx.Step(`^"([^"]*)" authorizes the escrow$`, w.authorizesEscrow)
	ctx.Step(`^"([^"]*)" pauses the protocol$`, w.pausesProtocol)

	// Expectations
	ctx.Step(`^the next transaction fails with "([^"]*)"$`, w.nextTransactionFails)
	ctx.Step(`^the last transaction is resubmitted$`, w.resubmits)
	ctx.Step(`^I note the balance of "([^"]*)"$`, w.notesBalance)
	ctx.Step(`^the balance of "([^"]*)" has grown by (\d+) lamports$`, w.balanceGrew)
	ctx.Step(`^title "([^"]*)" is owned by "([^"]*)"$`, w.titleOwnedBy)
	ctx.Step(`^title "([^"]*)" is (not )?for sale$`, w.titleForSale)
	ctx.Step(`^title "([^"]*)" has (\d+) ownership records$`, w.titleHistoryLength)
	ctx.Step(`^"([^"]*)" resolves to the role "([^"]*)"$`, w.resolvesTo)
}

func (w *World) aNodeFunding(ctx context.Context, list string) error {
	return w.start(ctx, splitNames(list))
}

func (w *World) initializesProtocol(ctx context.Context, name string) error {
	a, err := w.actor(name)
	if err != nil {
		return err
	}
	admin := a.party.Identity
	if err := w.submit(ctx, name, txn.InstructionInitialize, w.accounts.Initialize(),
		txn.InitializeArgs{Admins: []ledger.Address{admin}}); err != nil {
		return err
	}
	return w.submit(ctx, name, txn.InstructionConfirmAdmin, w.accounts.ConfirmAdmin(admin), nil)
}

func (w *World) appointsRegistrar(ctx context.Context, adminName, registrarName string) error {
	admin, err := w.actor(adminName)
	if err != nil {
		return err
	}
	registrar, err := w.actor(registrarName)
	if err != nil {
		return err
	}
	if err := w.submit(ctx, adminName, txn.InstructionAddRegistrar,
		w.accounts.AddRegistrar(admin.party.Identity, registrar.party.Identity),
		txn.AddRegistrarArgs{
			Identity:  registrar.party.Identity,
			FirstName: strings.ToUpper(registrarName[:1]) + registrarName[1:],
			LastName:  "Registrar",
			IDNumber:  "R-" + registrar.party.Identity.String()[:8],
		}); err != nil {
		return err
	}
	return w.submit(ctx, registrarName, txn.InstructionConfirmRegistrar,
		w.accounts.ConfirmRegistrar(registrar.party.Identity), nil)
}

func (w *World) registers(ctx context.Context, name, idNumber string) error {
	a, err := w.actor(name)
	if err != nil {
		return err
	}
	a.party.IDNumber = idNumber
	return w.submit(ctx, name, txn.InstructionCreateUser, w.accounts.CreateUser(a.party), txn.CreateUserArgs{
		FirstName:   strings.ToUpper(name[:1]) + name[1:],
		LastName:    "Mwangi",
		IDNumber:    idNumber,
		PhoneNumber: "+254700000000",
	})
}

func (w *World) issuesTitle(ctx context.Context, registrarName, titleNumber, ownerName string) error {
	registrar, err := w.actor(registrarName)
	if err != nil {
		return err
	}
	owner, err := w.actor(ownerName)
	if err != nil {
		return err
	}
	return w.submit(ctx, registrarName, txn.InstructionAssignTitleDeed,
		w.accounts.AssignTitleDeed(registrar.party.Identity, owner.party, titleNumber),
		txn.AssignTitleDeedArgs{
			Owner:                  owner.party.Identity,
			TitleNumber:            titleNumber,
			Location:               "Nakuru West",
			Acreage:                0.5,
			DistrictLandRegistry:   "Nakuru",
			RegistryMapsheetNumber: 17,
		})
}

func (w *World) listsTitle(ctx context.Context, sellerName, titleNumber string, price int64) error {
	seller, err := w.actor(sellerName)
	if err != nil {
		return err
	}
	return w.submit(ctx, sellerName, txn.InstructionMarkTitleForSale,
		w.accounts.MarkTitleForSale(seller.party, titleNumber), txn.PriceArgs{Price: uint64(price)})
}

func (w *World) agreesToSell(ctx context.Context, sellerName, titleNumber, buyerName string, price int64) error {
	seller, err := w.actor(sellerName)
	if err != nil {
		return err
	}
	buyer, err := w.actor(buyerName)
	if err != nil {
		return err
	}
	w.sale = client.Sale{Seller: seller.party, Buyer: buyer.party, TitleNumber: titleNumber, Price: uint64(price)}
	return w.submit(ctx, sellerName, txn.InstructionMakeAgreement,
		w.accounts.MakeAgreement(w.sale), txn.PriceArgs{Price: w.sale.Price})
}

func (w *World) signsAgreement(ctx context.Context, name string) error {
	return w.submit(ctx, name, txn.InstructionSignAgreement,
		w.accounts.SignAgreement(w.sale), txn.PriceArgs{Price: w.sale.Price})
}

func (w *World) cancelsAgreement(ctx context.Context, name string) error {
	return w.submit(ctx, name, txn.InstructionCancelAgreement, w.accounts.CancelAgreement(w.sale), nil)
}

func (w *World) opensEscrow(ctx context.Context, name string) error {
	return w.submit(ctx, name, txn.InstructionCreateEscrow, w.accounts.CreateEscrow(w.sale), nil)
}

func (w *World) deposits(ctx context.Context, name string, amount int64) error {
	return w.submit(ctx, name, txn.InstructionDepositPayment,
		w.accounts.DepositPayment(w.sale), txn.AmountArgs{Amount: uint64(amount)})
}

func (w *World) authorizesEscrow(ctx context.Context, name string) error {
	registrar, err := w.actor(name)
	if err != nil {
		return err
	}
	deed, err := w.deed(ctx, w.sale.TitleNumber)
	if err != nil {
		return err
	}
	return w.submit(ctx, name, txn.InstructionAuthorizeEscrow,
		w.accounts.AuthorizeEscrow(registrar.party.Identity, w.sale, deed.TotalTransfers+1), nil)
}

func (w *World) pausesProtocol(ctx context.Context, name string) error {
	admin, err := w.actor(name)
	if err != nil {
		return err
	}
	return w.submit(ctx, name, txn.InstructionSetProtocolPaused,
		w.accounts.SetProtocolPaused(admin.party.Identity), txn.SetProtocolPausedArgs{Paused: true})
}

func (w *World) nextTransactionFails(code string) error {
	w.expectFail = code
	return nil
}

func (w *World) resubmits(ctx context.Context) error {
	if w.lastTx == nil {
		return fmt.Errorf("no transaction was submitted")
	}
	return w.post(ctx, w.lastTx)
}

func (w *World) notesBalance(ctx context.Context, name string) error {
	b, err := w.balance(ctx, name)
	if err != nil {
		return err
	}
	w.balances[name] = b
	return nil
}

func (w *World) balanceGrew(ctx context.Context, name string, amount int64) error {
	before, ok := w.balances[name]
	if !ok {
		return fmt.Errorf("balance of %q was not noted", name)
	}
	after, err := w.balance(ctx, name)
	if err != nil {
		return err
	}
	if after != before+uint64(amount) {
		return fmt.Errorf("balance of %q went from %d to %d, expected +%d", name, before, after, amount)
	}
	return nil
}

func (w *World) titleOwnedBy(ctx context.Context, titleNumber, name string) error {
	a, err := w.actor(name)
	if err != nil {
		return err
	}
	deed, err := w.deed(ctx, titleNumber)
	if err != nil {
		return err
	}
	if deed.Owner.Authority != a.party.Identity {
		return fmt.Errorf("title %s is owned by %s, expected %s", titleNumber, deed.Owner.Authority, name)
	}
	return nil
}

func (w *World) titleForSale(ctx context.Context, titleNumber, not string) error {
	deed, err := w.deed(ctx, titleNumber)
	if err != nil {
		return err
	}
	if want := not == ""; deed.IsForSale != want {
		return fmt.Errorf("title %s for sale = %t, expected %t", titleNumber, deed.IsForSale, want)
	}
	return nil
}

func (w *World) titleHistoryLength(ctx context.Context, titleNumber string, n int) error {
	addr := w.accounts.Seeds().TitleDeed(titleNumber)
	var history struct {
		Entries []struct {
			SequenceNumber uint64 `json:"sequence_number"`
		} `json:"entries"`
	}
	if err := w.get(ctx, "/v1/title-deeds/"+addr.String()+"/history", &history); err != nil {
		return err
	}
	if len(history.Entries) != n {
		return fmt.Errorf("title %s has %d ownership records, expected %d", titleNumber, len(history.Entries), n)
	}
	for i, e := range history.Entries {
		if e.SequenceNumber != uint64(i) {
			return fmt.Errorf("record %d carries sequence %d", i, e.SequenceNumber)
		}
	}
	return nil
}

func (w *World) resolvesTo(ctx context.Context, name, role string) error {
	a, err := w.actor(name)
	if err != nil {
		return err
	}
	var resp struct {
		Role string `json:"role"`
	}
	path := "/v1/roles/" + a.party.Identity.String() + "?id_number=" + a.party.IDNumber
	if err := w.get(ctx, path, &resp); err != nil {
		return err
	}
	if resp.Role != role {
		return fmt.Errorf("%s resolves to %s, expected %s", name, resp.Role, role)
	}
	return nil
}
