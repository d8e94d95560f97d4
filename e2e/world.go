// Package e2e drives a registry node through its HTTP API with Gherkin
// scenarios.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"landlocked/internal/ledger"
	"landlocked/internal/ledger/keys"
	"landlocked/internal/node"
	"landlocked/internal/platform/config"
	"landlocked/internal/registry/client"
	"landlocked/internal/txn"
)

const startingBalance = 1_000_000_000

// actor is a named key holder in a scenario.
type actor struct {
	key   *keys.PrivateKey
	party client.Party
}

// World is the per-scenario state shared by step definitions.
type World struct {
	node     *node.Node
	server   *httptest.Server
	http     *http.Client
	accounts client.Accounts

	actors   map[string]*actor
	sale     client.Sale
	balances map[string]uint64

	lastTx     *txn.Transaction
	lastStatus int
	lastBody   []byte
	expectFail string
}

func (w *World) start(ctx context.Context, names []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	cfg.RateLimit.Enabled = false
	cfg.Ledger.Genesis = map[string]uint64{}

	w.actors = make(map[string]*actor, len(names))
	w.balances = map[string]uint64{}
	for _, name := range names {
		key, err := keys.Generate()
		if err != nil {
			return err
		}
		w.actors[name] = &actor{key: key, party: client.Party{Identity: key.Identity()}}
		cfg.Ledger.Genesis[key.Identity().String()] = startingBalance
	}

	w.node, err = node.New(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	w.server = httptest.NewServer(w.node.Handler())
	w.http = w.server.Client()
	w.accounts = client.New(ledger.ProgramIDFromName(cfg.Ledger.ProgramName))
	return nil
}

func (w *World) stop() {
	if w.server != nil {
		w.server.Close()
	}
	if w.node != nil {
		_ = w.node.Close()
	}
}

func (w *World) actor(name string) (*actor, error) {
	a, ok := w.actors[name]
	if !ok {
		return nil, fmt.Errorf("unknown actor %q", name)
	}
	return a, nil
}

// submit signs and posts a transaction. Unless a failure was announced with
// expectFail, any non-200 answer fails the step.
func (w *World) submit(ctx context.Context, signer string, instruction txn.Instruction, accounts, args any) error {
	a, err := w.actor(signer)
	if err != nil {
		return err
	}
	tx, err := client.Sign(a.key, instruction, accounts, args)
	if err != nil {
		return err
	}
	return w.post(ctx, tx)
}

func (w *World) post(ctx context.Context, tx *txn.Transaction) error {
	w.lastTx = tx
	if err := w.do(ctx, http.MethodPost, "/v1/transactions", tx); err != nil {
		return err
	}

	expected := w.expectFail
	w.expectFail = ""
	if expected == "" {
		if w.lastStatus != http.StatusOK {
			return fmt.Errorf("%s: status %d: %s", tx.Instruction, w.lastStatus, w.lastBody)
		}
		return nil
	}
	if w.lastStatus == http.StatusOK {
		return fmt.Errorf("%s succeeded, expected %s", tx.Instruction, expected)
	}
	code, err := w.errorCode()
	if err != nil {
		return err
	}
	if code != expected {
		return fmt.Errorf("%s failed with %s, expected %s", tx.Instruction, code, expected)
	}
	return nil
}

func (w *World) do(ctx context.Context, method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, w.server.URL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	w.lastStatus = resp.StatusCode
	w.lastBody, err = io.ReadAll(resp.Body)
	return err
}

// get fetches path and decodes a 200 answer into out.
func (w *World) get(ctx context.Context, path string, out any) error {
	if err := w.do(ctx, http.MethodGet, path, nil); err != nil {
		return err
	}
	if w.lastStatus != http.StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", path, w.lastStatus, w.lastBody)
	}
	return json.Unmarshal(w.lastBody, out)
}

func (w *World) errorCode() (string, error) {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.lastBody, &body); err != nil {
		return "", fmt.Errorf("decode error body %q: %w", w.lastBody, err)
	}
	return body.Error, nil
}

type deedView struct {
	Owner struct {
		Authority ledger.Address `json:"authority"`
		IDNumber  string         `json:"id_number"`
	} `json:"owner"`
	IsForSale      bool   `json:"is_for_sale"`
	TotalTransfers uint64 `json:"total_transfers"`
}

func (w *World) deed(ctx context.Context, titleNumber string) (*deedView, error) {
	var deed deedView
	err := w.get(ctx, "/v1/title-deeds/by-number/"+url.PathEscape(titleNumber), &deed)
	return &deed, err
}

func (w *World) balance(ctx context.Context, name string) (uint64, error) {
	a, err := w.actor(name)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Lamports uint64 `json:"lamports"`
	}
	err = w.get(ctx, "/v1/balances/"+a.party.Identity.String(), &resp)
	return resp.Lamports, err
}

func splitNames(list string) []string {
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.Trim(strings.TrimSpace(n), `"`); n != "" {
			names = append(names, n)
		}
	}
	return names
}
