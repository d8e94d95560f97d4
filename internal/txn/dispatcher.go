package txn

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"landlocked/internal/ledger"
	"landlocked/internal/txn/replay"
	dErrors "landlocked/pkg/domain-errors"
	"landlocked/pkg/requestcontext"
)

const defaultReplayTTL = 24 * time.Hour

// Result describes an executed transaction.
type Result struct {
	Hash        string
	Signer      ledger.Address
	Instruction Instruction
	Commit      *ledger.Commit
}

// Dispatcher verifies signed transactions and routes them to the registry.
type Dispatcher struct {
	registry  Registry
	guard     replay.Guard
	replayTTL time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClock replaces the clock expiry is checked against.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithReplayTTL sets how long the guard remembers an executed hash. It is
// also the longest validity a transaction may claim.
func WithReplayTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) {
		d.replayTTL = ttl
	}
}

func NewDispatcher(registry Registry, guard replay.Guard, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		guard:     guard,
		replayTTL: defaultReplayTTL,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit verifies t, claims its hash and executes it. A transaction that
// fails releases its hash so the sender can resubmit it once the cause is
// fixed. The ledger records committed hashes, so a guard that has forgotten
// one still cannot execute it twice.
func (d *Dispatcher) Submit(ctx context.Context, t *Transaction) (*Result, error) {
	handle, ok := handlers[t.Instruction]
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown instruction "+string(t.Instruction))
	}
	signer, err := t.Verify()
	if err != nil {
		return nil, err
	}
	if err := d.checkExpiry(t); err != nil {
		return nil, err
	}
	hash, err := t.Hash()
	if err != nil {
		return nil, err
	}

	if err := d.guard.Claim(ctx, hash, d.replayTTL); err != nil {
		if errors.Is(err, replay.ErrReplayed) {
			return nil, dErrors.Wrap(err, dErrors.CodeReplayedTransaction, "transaction already submitted")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "replay guard unavailable")
	}

	ctx = requestcontext.WithTxHash(ctx, hash)
	commit, err := handle(ctx, d.registry, signer, t)
	if err != nil {
		if relErr := d.guard.Release(context.WithoutCancel(ctx), hash); relErr != nil {
			d.logger.WarnContext(ctx, "failed to release transaction hash",
				"tx_hash", hash,
				"error", relErr,
			)
		}
		return nil, err
	}

	d.logger.InfoContext(ctx, "transaction committed",
		"tx_hash", hash,
		"instruction", string(t.Instruction),
		"signer", signer.String(),
		"height", commit.Height,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &Result{Hash: hash, Signer: signer, Instruction: t.Instruction, Commit: commit}, nil
}

// checkExpiry bounds the validity window to the replay TTL so the guard
// outlives every transaction it has seen.
func (d *Dispatcher) checkExpiry(t *Transaction) error {
	now := d.now()
	expiresAt := time.Unix(t.ExpiresAt, 0)
	if !now.Before(expiresAt) {
		return dErrors.New(dErrors.CodeTransactionExpired, "transaction expired at "+expiresAt.UTC().Format(time.RFC3339))
	}
	if expiresAt.Sub(now) > d.replayTTL {
		return dErrors.New(dErrors.CodeValidation, "expires_at is further ahead than "+d.replayTTL.String())
	}
	return nil
}

// Instructions lists the supported instruction names in sorted order.
func Instructions() []Instruction {
	out := make([]Instruction, 0, len(handlers))
	for name := range handlers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
