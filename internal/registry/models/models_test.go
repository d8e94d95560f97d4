package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landlocked/internal/ledger"
	dErrors "landlocked/pkg/domain-errors"
)

type ModelsSuite struct {
	suite.Suite
	now    time.Time
	seller User
	buyer  User
}

func TestModelsSuite(t *testing.T) {
	suite.Run(t, new(ModelsSuite))
}

func (s *ModelsSuite) SetupTest() {
	s.now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	seller, err := NewUser(ledger.Address{1}, PersonDetails{FirstName: "Amina", LastName: "Otieno", IDNumber: "100"}, s.now)
	s.Require().NoError(err)
	buyer, err := NewUser(ledger.Address{2}, PersonDetails{FirstName: "Brian", LastName: "Kamau", IDNumber: "200"}, s.now)
	s.Require().NoError(err)
	s.seller, s.buyer = *seller, *buyer
}

func (s *ModelsSuite) TestProtocolState() {
	admin := ledger.Address{9}

	s.Run("initializer must be listed", func() {
		_, err := NewProtocolState([]ledger.Address{{1}}, admin)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAdmin))
	})
	s.Run("empty list rejected", func() {
		_, err := NewProtocolState(nil, admin)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAdmin))
	})
	s.Run("more than five rejected", func() {
		admins := []ledger.Address{admin, {1}, {2}, {3}, {4}, {5}}
		_, err := NewProtocolState(admins, admin)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAdmin))
	})
	s.Run("duplicates rejected", func() {
		_, err := NewProtocolState([]ledger.Address{admin, admin}, admin)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAdmin))
	})
	s.Run("valid list", func() {
		state, err := NewProtocolState([]ledger.Address{admin, {1}}, admin)
		s.Require().NoError(err)
		s.True(state.IsAdmin(admin))
		s.False(state.IsAdmin(ledger.Address{7}))
		s.False(state.IsPaused)
	})
}

func (s *ModelsSuite) TestRegistrarConfirmation() {
	r, err := NewRegistrar(ledger.Address{3}, PersonDetails{FirstName: "C", LastName: "D", IDNumber: "R1"}, ledger.Address{9}, s.now)
	s.Require().NoError(err)
	s.False(r.IsActive)

	s.Require().NoError(r.CanConfirm())
	r.ApplyConfirmation(s.now)
	s.True(r.IsActive)

	err = r.CanConfirm()
	s.True(dErrors.HasCode(err, dErrors.CodeRegistrarAlreadyConfirmed))
}

func (s *ModelsSuite) TestUserValidation() {
	cases := []struct {
		name string
		p    PersonDetails
	}{
		{"missing first name", PersonDetails{LastName: "x", IDNumber: "1"}},
		{"missing id number", PersonDetails{FirstName: "x", LastName: "y"}},
		{"long name", PersonDetails{FirstName: strings.Repeat("a", MaxNameLength+1), LastName: "y", IDNumber: "1"}},
		{"long id", PersonDetails{FirstName: "x", LastName: "y", IDNumber: strings.Repeat("9", MaxIDNumberLength+1)}},
		{"long phone", PersonDetails{FirstName: "x", LastName: "y", IDNumber: "1", PhoneNumber: strings.Repeat("0", MaxPhoneLength+1)}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := NewUser(ledger.Address{1}, tc.p, s.now)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func (s *ModelsSuite) TestTitleDeedLifecycle() {
	deed, err := NewTitleDeed(s.seller, ParcelDetails{
		TitleNumber: "LR-1", Location: "Nakuru", Acreage: 2.5, DistrictLandRegistry: "Nakuru", RegistryMapsheetNumber: 44,
	}, s.now)
	s.Require().NoError(err)
	s.True(deed.ControlledBy(s.seller.Authority))
	s.Equal(s.now.Unix(), deed.RegistrationDate)

	s.Require().NoError(deed.CanList(s.seller.Authority))
	s.True(dErrors.HasCode(deed.CanList(s.buyer.Authority), dErrors.CodeUnauthorized))
	deed.ApplyListing()

	escrow := ledger.Address{0xEE}
	deed.ApplyEscrowHold(escrow)
	s.False(deed.ControlledBy(s.seller.Authority), "escrow locks the owner out")
	s.True(dErrors.HasCode(deed.CanList(s.seller.Authority), dErrors.CodeUnauthorized))

	deed.ApplyTransfer(s.buyer)
	s.True(deed.ControlledBy(s.buyer.Authority))
	s.False(deed.IsForSale)
	s.Equal(uint64(1), deed.TotalTransfers)
}

func (s *ModelsSuite) TestParcelValidation() {
	base := ParcelDetails{TitleNumber: "LR-1", Location: "x", Acreage: 1, DistrictLandRegistry: "y"}
	s.NoError(base.Validate())

	bad := base
	bad.Acreage = 0
	s.True(dErrors.HasCode(bad.Validate(), dErrors.CodeValidation))

	bad = base
	bad.TitleNumber = ""
	s.True(dErrors.HasCode(bad.Validate(), dErrors.CodeValidation))
}

func (s *ModelsSuite) TestAgreementTransitions() {
	deed := ledger.Address{0xDD}

	_, err := NewAgreement(s.seller, s.seller, deed, 100, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidBuyer))

	a, err := NewAgreement(s.seller, s.buyer, deed, 100, s.now)
	s.Require().NoError(err)
	s.Equal(AgreementDrafted, a.Status)

	s.True(dErrors.HasCode(a.CanSign(s.seller.Authority, 100), dErrors.CodeUnauthorized))
	s.True(dErrors.HasCode(a.CanSign(s.buyer.Authority, 99), dErrors.CodePriceMismatch))
	s.True(dErrors.HasCode(a.CanEscrow(), dErrors.CodeAgreementNotSigned))

	s.Require().NoError(a.CanSign(s.buyer.Authority, 100))
	a.ApplySignature(s.now)
	s.True(dErrors.HasCode(a.CanSign(s.buyer.Authority, 100), dErrors.CodeInvalidState))
	s.Require().NoError(a.CanCancel(s.buyer.Authority))
	s.True(dErrors.HasCode(a.CanCancel(ledger.Address{0x42}), dErrors.CodeUnauthorized))

	s.Require().NoError(a.CanEscrow())
	a.ApplyEscrow()
	s.True(dErrors.HasCode(a.CanCancel(s.seller.Authority), dErrors.CodeInvalidState))
}

func (s *ModelsSuite) TestEscrowTransitions() {
	a, err := NewAgreement(s.seller, s.buyer, ledger.Address{0xDD}, 500, s.now)
	s.Require().NoError(err)
	e := NewEscrow(ledger.Address{0xAA}, a, s.now)

	s.True(dErrors.HasCode(e.CanComplete(), dErrors.CodeEscrowNotReady))
	s.True(dErrors.HasCode(e.CanDeposit(s.seller.Authority, 500), dErrors.CodeUnauthorized))
	s.True(dErrors.HasCode(e.CanDeposit(s.buyer.Authority, 499), dErrors.CodePaymentAmountMismatch))

	s.Require().NoError(e.CanDeposit(s.buyer.Authority, 500))
	e.ApplyDeposit()
	s.True(dErrors.HasCode(e.CanDeposit(s.buyer.Authority, 500), dErrors.CodeInvalidState))

	s.Require().NoError(e.CanComplete())
	e.ApplyCompletion(s.now)
	s.Equal(EscrowCompleted, e.State)
	s.Equal(s.now.Unix(), e.CompletedAt)
}

func (s *ModelsSuite) TestRecordsSurviveEncoding() {
	deed, err := NewTitleDeed(s.seller, ParcelDetails{
		TitleNumber: "LR-9", Location: "Kisumu", Acreage: 0.75, DistrictLandRegistry: "Kisumu",
	}, s.now)
	s.Require().NoError(err)
	deed.ApplyEscrowHold(ledger.Address{0x77})

	raw, err := ledger.Marshal(deed)
	s.Require().NoError(err)
	var got TitleDeed
	s.Require().NoError(ledger.Unmarshal(raw, &got))
	s.Equal(*deed, got)
}
