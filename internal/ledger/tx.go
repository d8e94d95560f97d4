package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"landlocked/pkg/platform/sentinel"
	"landlocked/pkg/requestcontext"
)

// Tx stages reads and writes for one transaction. It is only valid inside the
// function passed to Ledger.Execute.
type Tx struct {
	ctx    context.Context
	ledger *Ledger
	staged map[Address]*Account
	now    time.Time
}

func newTx(ctx context.Context, l *Ledger) *Tx {
	return &Tx{
		ctx:    ctx,
		ledger: l,
		staged: make(map[Address]*Account),
		now:    requestcontext.Now(ctx).UTC(),
	}
}

func (t *Tx) Context() context.Context {
	return t.ctx
}

// Now is the transaction timestamp, fixed for the whole transaction.
func (t *Tx) Now() time.Time {
	return t.now
}

func (t *Tx) ProgramID() Address {
	return t.ledger.params.ProgramID
}

// Derive returns the address for seeds under this ledger's program.
func (t *Tx) Derive(seeds ...[]byte) Address {
	return Derive(t.ledger.params.ProgramID, seeds...)
}

// account returns the staged view of addr, reading through to the store.
// Missing accounts return sentinel.ErrNotFound.
func (t *Tx) account(addr Address) (*Account, error) {
	if acct, ok := t.staged[addr]; ok {
		return acct, nil
	}
	acct, err := t.ledger.Account(t.ctx, addr)
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (t *Tx) stage(addr Address, acct *Account) {
	t.staged[addr] = acct
}

// Exists reports whether a live record occupies addr.
func (t *Tx) Exists(addr Address) (bool, error) {
	acct, err := t.account(addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return acct.Live(), nil
}

// Load decodes the record at addr into v. It returns sentinel.ErrNotFound when
// nothing was ever created there, sentinel.ErrClosed for a tombstone and
// sentinel.ErrKindMismatch when addr holds another record type.
func (t *Tx) Load(addr Address, kind Kind, v any) error {
	acct, err := t.account(addr)
	if err != nil {
		return err
	}
	return decodeRecord(acct, kind, v)
}

// Create writes a new record at addr, debiting payer the storage deposit.
// A live record at addr fails with sentinel.ErrAlreadyUsed; a tombstone or a
// plain value account is reused.
func (t *Tx) Create(payer, addr Address, kind Kind, v any) error {
	if kind == KindSystem {
		return fmt.Errorf("create: %s is not a record kind", kind)
	}
	if payer == addr {
		return fmt.Errorf("create: record %s cannot pay for itself", addr)
	}
	existing, err := t.account(addr)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		existing = &Account{}
	case err != nil:
		return err
	case existing.Live():
		return fmt.Errorf("%w: %s", sentinel.ErrAlreadyUsed, addr)
	default:
		existing = existing.clone()
	}

	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", kind, err)
	}
	cost := t.ledger.params.StorageCost(len(data))
	if err := t.debit(payer, cost); err != nil {
		return err
	}

	existing.Kind = kind
	existing.Data = data
	existing.Closed = false
	if existing.Lamports > math.MaxUint64-cost {
		return fmt.Errorf("create: balance overflow at %s", addr)
	}
	existing.Lamports += cost
	t.stage(addr, existing)
	return nil
}

// Put overwrites the live record at addr.
func (t *Tx) Put(addr Address, kind Kind, v any) error {
	acct, err := t.account(addr)
	if err != nil {
		return err
	}
	if acct.Closed {
		return sentinel.ErrClosed
	}
	if acct.Kind != kind {
		return fmt.Errorf("%w: want %s, have %s", sentinel.ErrKindMismatch, kind, acct.Kind)
	}
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", kind, err)
	}
	next := acct.clone()
	next.Data = data
	t.stage(addr, next)
	return nil
}

// Close tombstones the record at addr and moves everything it holds,
// including its storage deposit, to refundTo.
func (t *Tx) Close(addr, refundTo Address) error {
	acct, err := t.account(addr)
	if err != nil {
		return err
	}
	if !acct.Live() {
		return sentinel.ErrClosed
	}
	amount := acct.Lamports
	closed := acct.clone()
	closed.Closed = true
	closed.Data = nil
	closed.Lamports = 0
	t.stage(addr, closed)
	return t.credit(refundTo, amount)
}

// Transfer moves amount lamports from one account to another.
func (t *Tx) Transfer(from, to Address, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	if err := t.debit(from, amount); err != nil {
		return err
	}
	return t.credit(to, amount)
}

// Balance returns the staged lamports at addr.
func (t *Tx) Balance(addr Address) (uint64, error) {
	acct, err := t.account(addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Lamports, nil
}

// Mint credits amount out of thin air. Only genesis allocation uses it.
func (t *Tx) Mint(addr Address, amount uint64) error {
	return t.credit(addr, amount)
}

func (t *Tx) debit(addr Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acct, err := t.account(addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("%w: %s holds 0, needs %d", sentinel.ErrInsufficientFunds, addr, amount)
	}
	if err != nil {
		return err
	}
	if acct.Lamports < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", sentinel.ErrInsufficientFunds, addr, acct.Lamports, amount)
	}
	next := acct.clone()
	next.Lamports -= amount
	t.stage(addr, next)
	return nil
}

func (t *Tx) credit(addr Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acct, err := t.account(addr)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		acct = &Account{Kind: KindSystem}
	case err != nil:
		return err
	default:
		acct = acct.clone()
	}
	if acct.Lamports > math.MaxUint64-amount {
		return fmt.Errorf("credit: balance overflow at %s", addr)
	}
	acct.Lamports += amount
	t.stage(addr, acct)
	return nil
}
