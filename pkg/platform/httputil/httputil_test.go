package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "landlocked/pkg/domain-errors"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteErrorMapsRegistryCodes(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
	}{
		{dErrors.CodeAgreementAlreadyExists, http.StatusConflict},
		{dErrors.CodeReplayedTransaction, http.StatusConflict},
		{dErrors.CodePaymentAmountMismatch, http.StatusUnprocessableEntity},
		{dErrors.CodeTitleNotForSale, http.StatusUnprocessableEntity},
		{dErrors.CodeInvalidRegistrar, http.StatusForbidden},
		{dErrors.CodeConstraintSeeds, http.StatusBadRequest},
		{dErrors.CodeTransactionExpired, http.StatusUnauthorized},
		{dErrors.CodeRateLimited, http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			err := fmt.Errorf("dispatch: %w", dErrors.New(tc.code, "deposit must equal the agreed price"))
			WriteError(w, err)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := decodeError(t, w)
			assert.Equal(t, string(tc.code), body["error"])
			assert.Equal(t, "deposit must equal the agreed price", body["error_description"])
		})
	}
}

func TestWriteErrorWithholdsInternalDetail(t *testing.T) {
	t.Run("coded internal error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "commit failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "internal_error", body["error"])
		assert.NotContains(t, body, "error_description")
	})
	t.Run("uncoded error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("leveldb: closed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, decodeError(t, w), "error_description")
	})
}

// listingRequest only validates once Normalize has canonicalized it.
type listingRequest struct {
	TitleNumber string `json:"title_number"`
	Price       uint64 `json:"price"`

	normalized bool
}

func (r *listingRequest) Normalize() {
	r.TitleNumber = strings.ToUpper(strings.TrimSpace(r.TitleNumber))
	r.normalized = true
}

func (r *listingRequest) Validate() error {
	if !r.normalized {
		return dErrors.New(dErrors.CodeInternal, "validated before normalize")
	}
	if r.TitleNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "title_number is required")
	}
	if r.Price == 0 {
		return dErrors.New(dErrors.CodeValidation, "price must be positive")
	}
	return nil
}

func prepare(body string) (*listingRequest, bool, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/transactions", strings.NewReader(body))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	req, ok := DecodeAndPrepare[listingRequest](w, r, logger, context.Background(), "req-1")
	return req, ok, w
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("normalizes before validating", func(t *testing.T) {
		req, ok, _ := prepare(`{"title_number":"  lt-0042 ","price":900}`)
		require.True(t, ok)
		assert.Equal(t, "LT-0042", req.TitleNumber)
	})
	t.Run("whitespace-only field fails after normalization", func(t *testing.T) {
		req, ok, w := prepare(`{"title_number":"   ","price":900}`)
		assert.False(t, ok)
		assert.Nil(t, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "validation_error", body["error"])
		assert.Equal(t, "title_number is required", body["error_description"])
	})
	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, ok, w := prepare(`{"title_number":"LT-1","price":900,"fee_payer":"someone"}`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeError(t, w)["error"])
	})
	t.Run("malformed json is rejected", func(t *testing.T) {
		_, ok, w := prepare(`{"title_number":`)
		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeError(t, w)["error"])
	})
	t.Run("oversized body is rejected", func(t *testing.T) {
		_, ok, w := prepare(`{"title_number":"` + strings.Repeat("x", maxBodyBytes) + `","price":1}`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
