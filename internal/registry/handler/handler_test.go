package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"landlocked/internal/ledger"
	"landlocked/internal/registry/handler/mocks"
	"landlocked/internal/registry/models"
	"landlocked/internal/txn"
	dErrors "landlocked/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Dispatcher,Receipts,Registry
type HandlerSuite struct {
	suite.Suite
	dispatcher *mocks.MockDispatcher
	registry   *mocks.MockRegistry
	receipts   *mocks.MockReceipts
	router     chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.dispatcher = mocks.NewMockDispatcher(ctrl)
	s.registry = mocks.NewMockRegistry(ctrl)
	s.receipts = mocks.NewMockReceipts(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.dispatcher, s.registry, s.receipts, logger).Register(s.router)
}

func (s *HandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func envelope() map[string]any {
	return map[string]any{
		"instruction": "confirm_admin_account",
		"accounts":    map[string]string{"protocol_state": "aa", "admin": "bb"},
		"nonce":       "n-1",
		"expires_at":  1_900_000_000,
		"public_key":  "02AB",
		"signature":   "3045",
	}
}

func (s *HandlerSuite) TestSubmit() {
	result := &txn.Result{
		Hash:        "cafe",
		Signer:      ledger.Address{0x01},
		Instruction: txn.InstructionConfirmAdmin,
		Commit:      &ledger.Commit{Height: 7},
	}

	s.Run("accepted with receipt", func() {
		s.dispatcher.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, t *txn.Transaction) (*txn.Result, error) {
				s.Equal(txn.InstructionConfirmAdmin, t.Instruction)
				s.Equal("02ab", t.PublicKey, "keys are normalized to lower case")
				s.Equal(int64(1_900_000_000), t.ExpiresAt)
				return result, nil
			})
		s.receipts.EXPECT().Issue(result).Return("jwt-receipt", nil)

		w := s.do(http.MethodPost, "/v1/transactions", envelope())
		s.Equal(http.StatusOK, w.Code)
		body := s.decode(w)
		s.Equal("cafe", body["tx_hash"])
		s.Equal(float64(7), body["height"])
		s.Equal("jwt-receipt", body["receipt"])
	})

	s.Run("receipt failure does not fail the commit", func() {
		s.dispatcher.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(result, nil)
		s.receipts.EXPECT().Issue(result).Return("", errors.New("hsm offline"))

		w := s.do(http.MethodPost, "/v1/transactions", envelope())
		s.Equal(http.StatusOK, w.Code)
		s.NotContains(s.decode(w), "receipt")
	})

	s.Run("domain errors map to status", func() {
		cases := []struct {
			code   dErrors.Code
			status int
		}{
			{dErrors.CodeInvalidAdmin, http.StatusForbidden},
			{dErrors.CodeConstraintSeeds, http.StatusBadRequest},
			{dErrors.CodeAgreementAlreadyExists, http.StatusConflict},
			{dErrors.CodeReplayedTransaction, http.StatusConflict},
			{dErrors.CodeInvalidSignature, http.StatusUnauthorized},
			{dErrors.CodeTransactionExpired, http.StatusUnauthorized},
			{dErrors.CodeEscrowNotReady, http.StatusUnprocessableEntity},
			{dErrors.CodeProtocolPaused, http.StatusUnprocessableEntity},
			{dErrors.CodeInternal, http.StatusInternalServerError},
		}
		for _, tc := range cases {
			s.dispatcher.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(tc.code, "rejected"))
			w := s.do(http.MethodPost, "/v1/transactions", envelope())
			s.Equal(tc.status, w.Code, string(tc.code))
			s.Equal(string(tc.code), s.decode(w)["error"])
		}
	})

	s.Run("malformed envelope never reaches the dispatcher", func() {
		missing := envelope()
		delete(missing, "nonce")
		w := s.do(http.MethodPost, "/v1/transactions", missing)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("validation_error", s.decode(w)["error"])

		unbounded := envelope()
		delete(unbounded, "expires_at")
		w = s.do(http.MethodPost, "/v1/transactions", unbounded)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("validation_error", s.decode(w)["error"])

		extra := envelope()
		extra["fee_payer"] = "someone"
		w = s.do(http.MethodPost, "/v1/transactions", extra)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("bad_request", s.decode(w)["error"])
	})
}

func (s *HandlerSuite) TestQueries() {
	addr := ledger.Address{0x42}

	s.Run("protocol", func() {
		s.registry.EXPECT().ProtocolState(gomock.Any()).Return(&models.ProtocolState{Admins: []ledger.Address{addr}}, nil)
		s.registry.EXPECT().Head().Return(ledger.Head{Height: 3})
		w := s.do(http.MethodGet, "/v1/protocol", nil)
		s.Equal(http.StatusOK, w.Code)
		body := s.decode(w)
		s.Equal([]any{addr.String()}, body["admins"])
		s.Equal(false, body["is_paused"])
	})

	s.Run("account decodes its record", func() {
		deed := models.TitleDeed{TitleNumber: "LR-1", Acreage: 2}
		data, err := ledger.Marshal(&deed)
		s.Require().NoError(err)
		s.registry.EXPECT().Account(gomock.Any(), addr).Return(&ledger.Account{Kind: models.KindTitleDeed, Lamports: 900, Data: data}, nil)

		w := s.do(http.MethodGet, "/v1/accounts/"+addr.String(), nil)
		s.Equal(http.StatusOK, w.Code)
		body := s.decode(w)
		s.Equal("title_deed", body["kind"])
		s.Equal("LR-1", body["record"].(map[string]any)["title_number"])
	})

	s.Run("missing account", func() {
		s.registry.EXPECT().Account(gomock.Any(), addr).Return(nil, dErrors.New(dErrors.CodeNotFound, "account not found"))
		w := s.do(http.MethodGet, "/v1/accounts/"+addr.String(), nil)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("bad address", func() {
		w := s.do(http.MethodGet, "/v1/balances/not-hex", nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("balance", func() {
		s.registry.EXPECT().Balance(gomock.Any(), addr).Return(uint64(1234), nil)
		w := s.do(http.MethodGet, "/v1/balances/"+addr.String(), nil)
		s.Equal(http.StatusOK, w.Code)
		s.Equal(float64(1234), s.decode(w)["lamports"])
	})

	s.Run("role", func() {
		s.registry.EXPECT().ResolveRole(gomock.Any(), addr, "27450011").Return(models.RoleUser, nil)
		w := s.do(http.MethodGet, "/v1/roles/"+addr.String()+"?id_number=27450011", nil)
		s.Equal(http.StatusOK, w.Code)
		s.Equal("user", s.decode(w)["role"])
	})

	s.Run("title deed by escaped number", func() {
		number := "NAKURU/BLOCK-4/123"
		s.registry.EXPECT().TitleDeedByNumber(gomock.Any(), number).Return(addr, &models.TitleDeed{TitleNumber: number}, nil)
		w := s.do(http.MethodGet, "/v1/title-deeds/by-number/"+url.PathEscape(number), nil)
		s.Equal(http.StatusOK, w.Code)
		body := s.decode(w)
		s.Equal(addr.String(), body["address"])
		s.Equal(number, body["title_number"])
	})

	s.Run("history", func() {
		s.registry.EXPECT().OwnershipHistory(gomock.Any(), addr).Return([]models.OwnershipHistory{
			{SequenceNumber: 0, TransferType: models.TransferInitialAssignment},
			{SequenceNumber: 1, TransferType: models.TransferEscrowCompletion},
		}, nil)
		w := s.do(http.MethodGet, "/v1/title-deeds/"+addr.String()+"/history", nil)
		s.Equal(http.StatusOK, w.Code)
		s.Len(s.decode(w)["entries"], 2)
	})
}
