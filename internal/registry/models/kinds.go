package models

import "landlocked/internal/ledger"

// Record kinds stored on the ledger.
const (
	KindProtocolState     ledger.Kind = "protocol_state"
	KindAdmin             ledger.Kind = "admin"
	KindRegistrar         ledger.Kind = "registrar"
	KindUser              ledger.Kind = "user"
	KindIDNumberClaim     ledger.Kind = "id_number_claim"
	KindTitleDeed         ledger.Kind = "title_deed"
	KindTitleNumberLookup ledger.Kind = "title_number_lookup"
	KindOwnershipHistory  ledger.Kind = "ownership_history"
	KindTitleForSale      ledger.Kind = "title_for_sale"
	KindAgreement         ledger.Kind = "agreement"
	KindAgreementIndex    ledger.Kind = "agreement_index"
	KindEscrow            ledger.Kind = "escrow"
	KindDeposit           ledger.Kind = "deposit"
)
