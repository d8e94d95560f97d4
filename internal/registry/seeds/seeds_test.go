package seeds

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"landlocked/internal/ledger"
)

func TestDerivationIsDeterministic(t *testing.T) {
	d := New(ledger.ProgramIDFromName("landlocked"))
	seller, buyer := ledger.Address{1}, ledger.Address{2}
	deed := d.TitleDeed("LR-100")

	assert.Equal(t, d.Agreement(seller, buyer, deed, 500), d.Agreement(seller, buyer, deed, 500))
	assert.Equal(t, d.User("ID-1", seller), New(ledger.ProgramIDFromName("landlocked")).User("ID-1", seller))
}

func TestDerivationSeparatesNamespaces(t *testing.T) {
	d := New(ledger.ProgramIDFromName("landlocked"))
	identity := ledger.Address{7}

	seen := map[ledger.Address]string{}
	add := func(name string, a ledger.Address) {
		if prev, ok := seen[a]; ok {
			t.Fatalf("%s collides with %s", name, prev)
		}
		seen[a] = name
	}
	add("protocol", d.ProtocolState())
	add("admin", d.Admin(identity))
	add("registrar", d.Registrar(identity))
	add("user", d.User("X", identity))
	add("claim", d.IDNumberClaim("X"))
	add("deed", d.TitleDeed("X"))
	add("lookup", d.TitleNumberLookup("X"))
	add("history0", d.OwnershipHistory(identity, 0))
	add("history1", d.OwnershipHistory(identity, 1))
	add("listing", d.TitleForSale(identity, identity))
	add("index", d.AgreementIndex(identity))
	add("escrow", d.Escrow(identity))
	add("deposit", d.Deposit(identity))
}

func TestAgreementAddressBindsTerms(t *testing.T) {
	d := New(ledger.ProgramIDFromName("landlocked"))
	seller, buyer, deed := ledger.Address{1}, ledger.Address{2}, ledger.Address{3}

	base := d.Agreement(seller, buyer, deed, 500)
	assert.NotEqual(t, base, d.Agreement(seller, buyer, deed, 501))
	assert.NotEqual(t, base, d.Agreement(buyer, seller, deed, 500))
	assert.NotEqual(t, base, d.Agreement(seller, ledger.Address{4}, deed, 500))
}

func TestUserAddressDependsOnIDNumber(t *testing.T) {
	d := New(ledger.ProgramIDFromName("landlocked"))
	identity := ledger.Address{5}
	assert.NotEqual(t, d.User("A", identity), d.User("B", identity))
	assert.NotEqual(t, d.User("A", identity), d.User("A", ledger.Address{6}))
}
