// Package handler exposes the registry over HTTP: signed transaction
// submission and read-only queries of ledger state.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"landlocked/internal/ledger"
	"landlocked/internal/registry/models"
	"landlocked/internal/txn"
	dErrors "landlocked/pkg/domain-errors"
	"landlocked/pkg/platform/httputil"
	"landlocked/pkg/requestcontext"
)

// Dispatcher executes signed transactions.
type Dispatcher interface {
	Submit(ctx context.Context, t *txn.Transaction) (*txn.Result, error)
}

// Receipts signs proofs of committed transactions.
type Receipts interface {
	Issue(res *txn.Result) (string, error)
}

// Registry answers read-only queries.
type Registry interface {
	ProtocolState(ctx context.Context) (*models.ProtocolState, error)
	Account(ctx context.Context, addr ledger.Address) (*ledger.Account, error)
	Balance(ctx context.Context, addr ledger.Address) (uint64, error)
	ResolveRole(ctx context.Context, identity ledger.Address, idNumber string) (models.Role, error)
	TitleDeedByNumber(ctx context.Context, titleNumber string) (ledger.Address, *models.TitleDeed, error)
	OwnershipHistory(ctx context.Context, deedAddr ledger.Address) ([]models.OwnershipHistory, error)
	Head() ledger.Head
}

// Handler wires registry endpoints to the dispatcher and query service.
type Handler struct {
	dispatcher Dispatcher
	registry   Registry
	receipts   Receipts
	logger     *slog.Logger
}

// New constructs a registry handler. receipts may be nil, in which case
// responses carry no receipt.
func New(dispatcher Dispatcher, registry Registry, receipts Receipts, logger *slog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		registry:   registry,
		receipts:   receipts,
		logger:     logger,
	}
}

// Register mounts registry endpoints on the router. submit wraps only the
// transaction endpoint.
func (h *Handler) Register(r chi.Router, submit ...func(http.Handler) http.Handler) {
	r.Route("/v1", func(r chi.Router) {
		r.With(submit...).Post("/transactions", h.HandleSubmit)
		r.Get("/protocol", h.HandleProtocol)
		r.Get("/accounts/{address}", h.HandleAccount)
		r.Get("/balances/{address}", h.HandleBalance)
		r.Get("/roles/{identity}", h.HandleRole)
		r.Get("/title-deeds/by-number/{titleNumber}", h.HandleTitleDeedByNumber)
		r.Get("/title-deeds/{address}/history", h.HandleOwnershipHistory)
	})
}

// HandleSubmit handles POST /v1/transactions.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.dispatcher.Submit(ctx, req.Transaction())
	if err != nil {
		level := slog.LevelInfo
		if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "transaction rejected",
			"request_id", requestID,
			"instruction", req.Instruction,
			"code", string(dErrors.CodeOf(err)),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := FromResult(res)
	if h.receipts != nil {
		receipt, err := h.receipts.Issue(res)
		if err != nil {
			// The transaction is committed; a missing receipt does not undo it.
			h.logger.ErrorContext(ctx, "failed to issue receipt",
				"request_id", requestID,
				"tx_hash", res.Hash,
				"error", err,
			)
		}
		resp.Receipt = receipt
	}

	h.logger.InfoContext(ctx, "transaction accepted",
		"request_id", requestID,
		"tx_hash", res.Hash,
		"instruction", string(res.Instruction),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleProtocol handles GET /v1/protocol.
func (h *Handler) HandleProtocol(w http.ResponseWriter, r *http.Request) {
	state, err := h.registry.ProtocolState(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ProtocolResponse{
		ProtocolState: state,
		Head:          h.registry.Head(),
	})
}

// HandleAccount handles GET /v1/accounts/{address}.
func (h *Handler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r, "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	acct, err := h.registry.Account(r.Context(), addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp, err := FromAccount(addr, acct)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to decode account",
			"request_id", requestcontext.RequestID(r.Context()),
			"address", addr.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleBalance handles GET /v1/balances/{address}.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r, "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balance, err := h.registry.Balance(r.Context(), addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Address: addr, Lamports: balance})
}

// HandleRole handles GET /v1/roles/{identity}?id_number=.
func (h *Handler) HandleRole(w http.ResponseWriter, r *http.Request) {
	identity, err := addressParam(r, "identity")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := h.registry.ResolveRole(r.Context(), identity, r.URL.Query().Get("id_number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RoleResponse{Identity: identity, Role: role})
}

// HandleTitleDeedByNumber handles GET /v1/title-deeds/by-number/{titleNumber}.
// Title numbers contain slashes, so clients path-escape them.
func (h *Handler) HandleTitleDeedByNumber(w http.ResponseWriter, r *http.Request) {
	titleNumber, err := url.PathUnescape(chi.URLParam(r, "titleNumber"))
	if err != nil || titleNumber == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid title number"))
		return
	}
	addr, deed, err := h.registry.TitleDeedByNumber(r.Context(), titleNumber)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TitleDeedResponse{Address: addr, TitleDeed: deed})
}

// HandleOwnershipHistory handles GET /v1/title-deeds/{address}/history.
func (h *Handler) HandleOwnershipHistory(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r, "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := h.registry.OwnershipHistory(r.Context(), addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{TitleDeed: addr, Entries: history})
}

func addressParam(r *http.Request, name string) (ledger.Address, error) {
	addr, err := ledger.ParseAddress(chi.URLParam(r, name))
	if err != nil {
		return ledger.ZeroAddress, dErrors.Wrap(err, dErrors.CodeBadRequest, name+" must be a hex address")
	}
	return addr, nil
}
