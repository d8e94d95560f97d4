package node

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"landlocked/internal/platform/config"
	"landlocked/pkg/testutil"
)

func newMemoryNode(t *testing.T) *Node {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	n, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func TestRouterOnAnEmptyLedger(t *testing.T) {
	testutil.Given(t, "a node with nothing committed", func(t *testing.T) {
		router := newMemoryNode(t).Handler()
		serve := func(req *http.Request) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			return rec
		}

		testutil.When(t, "reading the protocol state", func(t *testing.T) {
			rec := serve(testutil.NewRequest(t, http.MethodGet, "/v1/protocol"))

			testutil.Then(t, "it is not found", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
			})
		})

		testutil.When(t, "reading an account with a malformed address", func(t *testing.T) {
			rec := serve(testutil.NewRequest(t, http.MethodGet, "/v1/accounts/not-hex"))

			testutil.Then(t, "the request is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
			})
		})

		testutil.When(t, "submitting an envelope without a signature", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/transactions", map[string]any{
				"instruction": "initialize",
				"accounts":    map[string]string{},
				"nonce":       "n-1",
				"expires_at":  time.Now().Add(time.Minute).Unix(),
			})
			rec := serve(testutil.WithRequestID(req, "req-42"))

			testutil.Then(t, "validation fails before dispatch", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "validation_error")
			})
		})

		testutil.When(t, "calling an unknown route", func(t *testing.T) {
			rec := serve(testutil.NewRequest(t, http.MethodGet, "/v1/escrows"))

			testutil.Then(t, "chi answers not found", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusNotFound)
			})
		})
	})
}
