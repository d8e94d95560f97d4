// Package ledger is the execution substrate the registry runs on: addressable
// typed records, atomic multi-record transactions, value balances, and
// deterministic address derivation.
//
// Transactions execute one at a time. Each reads committed state, stages
// writes in memory, and commits them to the backing store as a single batch.
// A transaction whose function returns an error leaves no trace. When the
// context carries a transaction hash (requestcontext.WithTxHash) the hash is
// committed in the same batch, and a second execution under it is refused.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"landlocked/internal/ledger/store"
	"landlocked/internal/platform/metrics"
	dErrors "landlocked/pkg/domain-errors"
	"landlocked/pkg/platform/sentinel"
	"landlocked/pkg/requestcontext"
)

const defaultTxTimeout = 5 * time.Second

var (
	accountPrefix  = []byte("a/")
	headKey        = []byte("m/head")
	executedPrefix = []byte("x/")
)

// Hash is a commitment over ledger state.
type Hash [32]byte

func (h Hash) String() string {
	return Address(h).String()
}

func (h Hash) MarshalText() ([]byte, error) {
	return Address(h).MarshalText()
}

func (h *Hash) UnmarshalText(text []byte) error {
	return (*Address)(h).UnmarshalText(text)
}

// Params fixes the economic and identity parameters of a ledger.
type Params struct {
	ProgramID Address
	// BaseRecordCost plus CostPerByte times the encoded size is debited from
	// the payer when a record is created.
	BaseRecordCost uint64
	CostPerByte    uint64
	TxTimeout      time.Duration
}

// StorageCost returns the deposit for a record whose data is size bytes.
func (p Params) StorageCost(size int) uint64 {
	return p.BaseRecordCost + p.CostPerByte*uint64(size)
}

// Head is the latest committed position.
type Head struct {
	Height uint64 `cbor:"1,keyasint" json:"height"`
	Root   Hash   `cbor:"2,keyasint" json:"root"`
}

// Commit describes a committed transaction.
type Commit struct {
	Height  uint64
	Root    Hash
	Written []Address
}

// Ledger executes transactions against a KV store.
type Ledger struct {
	mu      sync.Mutex
	kv      store.KV
	params  Params
	head    Head
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(l *Ledger) {
		l.tracer = t
	}
}

// Open loads the committed head from kv and returns a ledger ready to execute.
func Open(ctx context.Context, kv store.KV, params Params, opts ...Option) (*Ledger, error) {
	if params.ProgramID.IsZero() {
		return nil, errors.New("ledger: program id is required")
	}
	l := &Ledger{
		kv:     kv,
		params: params,
		logger: slog.Default(),
		tracer: otel.Tracer("landlocked/ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}

	raw, err := kv.Get(ctx, headKey)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load ledger head: %w", err)
	default:
		if err := Unmarshal(raw, &l.head); err != nil {
			return nil, fmt.Errorf("decode ledger head: %w", err)
		}
	}
	return l, nil
}

func (l *Ledger) Params() Params {
	return l.params
}

func (l *Ledger) ProgramID() Address {
	return l.params.ProgramID
}

// Head returns the latest committed height and state root.
func (l *Ledger) Head() Head {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head
}

// Genesis credits initial balances. It only runs on an empty ledger and is a
// no-op once anything has been committed.
func (l *Ledger) Genesis(ctx context.Context, alloc map[Address]uint64) (*Commit, error) {
	if l.Head().Height > 0 || len(alloc) == 0 {
		return nil, nil
	}
	return l.Execute(ctx, func(tx *Tx) error {
		for addr, amount := range alloc {
			if err := tx.Mint(addr, amount); err != nil {
				return err
			}
		}
		return nil
	})
}

// ExecutedAt returns the height at which the transaction with hash was
// committed, or sentinel.ErrNotFound.
func (l *Ledger) ExecutedAt(ctx context.Context, hash string) (uint64, error) {
	raw, err := l.kv.Get(ctx, executedKey(hash))
	if err != nil {
		return 0, err
	}
	var height uint64
	if err := Unmarshal(raw, &height); err != nil {
		return 0, fmt.Errorf("decode executed transaction %s: %w", hash, err)
	}
	return height, nil
}

// Account reads a committed account. Missing accounts return
// sentinel.ErrNotFound.
func (l *Ledger) Account(ctx context.Context, addr Address) (*Account, error) {
	raw, err := l.kv.Get(ctx, accountKey(addr))
	if err != nil {
		return nil, err
	}
	var acct Account
	if err := Unmarshal(raw, &acct); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", addr, err)
	}
	return &acct, nil
}

// Balance returns the committed lamports held at addr; unknown addresses hold
// zero.
func (l *Ledger) Balance(ctx context.Context, addr Address) (uint64, error) {
	acct, err := l.Account(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Lamports, nil
}

// Load decodes the committed record at addr into v.
func (l *Ledger) Load(ctx context.Context, addr Address, kind Kind, v any) error {
	acct, err := l.Account(ctx, addr)
	if err != nil {
		return err
	}
	return decodeRecord(acct, kind, v)
}

// Execute runs fn in a transaction and commits its writes atomically.
func (l *Ledger) Execute(ctx context.Context, fn func(tx *Tx) error) (*Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := l.params.TxTimeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, span := l.tracer.Start(ctx, "ledger.Execute")
	defer span.End()

	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		l.aborted(span, err)
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	txHash := requestcontext.TxHash(ctx)
	if txHash != "" {
		if _, err := l.kv.Get(ctx, executedKey(txHash)); err == nil {
			err = dErrors.New(dErrors.CodeReplayedTransaction, "transaction already executed")
			l.aborted(span, err)
			return nil, err
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			l.aborted(span, err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read executed transactions")
		}
	}

	tx := newTx(ctx, l)
	if err := fn(tx); err != nil {
		l.aborted(span, err)
		return nil, err
	}

	commit, err := l.commit(ctx, tx, txHash)
	if err != nil {
		l.aborted(span, err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "commit failed")
	}

	span.SetAttributes(
		attribute.Int64("ledger.height", int64(commit.Height)),
		attribute.Int("ledger.writes", len(commit.Written)),
	)
	if l.metrics != nil {
		l.metrics.ObserveCommit(start, commit.Height)
	}
	return commit, nil
}

func (l *Ledger) aborted(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if l.metrics != nil {
		l.metrics.IncrementAborted(string(dErrors.CodeOf(err)))
	}
}

// commit folds the staged accounts and txHash, if any, into the state root
// and writes them with the new head in one batch. Caller holds l.mu.
func (l *Ledger) commit(ctx context.Context, tx *Tx, txHash string) (*Commit, error) {
	addrs := make([]Address, 0, len(tx.staged))
	for addr := range tx.staged {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })

	next := Head{Height: l.head.Height + 1}
	h := blake3.New()
	h.Write(l.head.Root[:])

	batch := make([]store.Write, 0, len(addrs)+2)
	for _, addr := range addrs {
		raw, err := Marshal(tx.staged[addr])
		if err != nil {
			return nil, fmt.Errorf("encode account %s: %w", addr, err)
		}
		h.Write(addr[:])
		h.Write(raw)
		batch = append(batch, store.Write{Key: accountKey(addr), Value: raw})
	}
	if txHash != "" {
		key := executedKey(txHash)
		height, err := Marshal(next.Height)
		if err != nil {
			return nil, fmt.Errorf("encode executed height: %w", err)
		}
		h.Write(key)
		batch = append(batch, store.Write{Key: key, Value: height})
	}
	copy(next.Root[:], h.Sum(nil))

	rawHead, err := Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("encode head: %w", err)
	}
	batch = append(batch, store.Write{Key: headKey, Value: rawHead})

	if err := l.kv.Apply(ctx, batch); err != nil {
		return nil, err
	}
	l.head = next

	l.logger.DebugContext(ctx, "ledger commit",
		"height", next.Height,
		"root", next.Root.String(),
		"writes", len(addrs),
	)
	return &Commit{Height: next.Height, Root: next.Root, Written: addrs}, nil
}

func executedKey(hash string) []byte {
	return append(append([]byte{}, executedPrefix...), hash...)
}

func accountKey(addr Address) []byte {
	key := make([]byte, 0, len(accountPrefix)+AddressLength)
	key = append(key, accountPrefix...)
	return append(key, addr[:]...)
}

func decodeRecord(acct *Account, kind Kind, v any) error {
	if acct.Closed {
		return sentinel.ErrClosed
	}
	if acct.Kind == KindSystem {
		return sentinel.ErrNotFound
	}
	if acct.Kind != kind {
		return fmt.Errorf("%w: want %s, have %s", sentinel.ErrKindMismatch, kind, acct.Kind)
	}
	if err := Unmarshal(acct.Data, v); err != nil {
		return fmt.Errorf("decode %s record: %w", kind, err)
	}
	return nil
}
