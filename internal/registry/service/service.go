// Package service implements the land registry operations on top of the
// ledger. Every mutating operation runs as one ledger transaction: it checks
// the caller-supplied record addresses against their derivations, applies the
// state transition, and either commits every write or none.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"landlocked/internal/audit"
	"landlocked/internal/ledger"
	"landlocked/internal/registry/metrics"
	"landlocked/internal/registry/models"
	"landlocked/internal/registry/seeds"
	dErrors "landlocked/pkg/domain-errors"
	"landlocked/pkg/platform/sentinel"
	"landlocked/pkg/requestcontext"
)

// Ledger is the execution substrate the registry writes to.
type Ledger interface {
	Execute(ctx context.Context, fn func(tx *ledger.Tx) error) (*ledger.Commit, error)
	Account(ctx context.Context, addr ledger.Address) (*ledger.Account, error)
	Load(ctx context.Context, addr ledger.Address, kind ledger.Kind, v any) error
	Balance(ctx context.Context, addr ledger.Address) (uint64, error)
	ProgramID() ledger.Address
	Head() ledger.Head
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service orchestrates identity, authority, title deed and sale operations.
type Service struct {
	ledger         Ledger
	seeds          seeds.Deriver
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service bound to l's program.
func New(l Ledger, opts ...Option) *Service {
	s := &Service{
		ledger: l,
		seeds:  seeds.New(l.ProgramID()),
		tracer: otel.Tracer("landlocked/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seeds exposes the address deriver the service checks accounts against.
func (s *Service) Seeds() seeds.Deriver {
	return s.seeds
}

// execute runs fn as one ledger transaction and records the outcome.
func (s *Service) execute(ctx context.Context, op string, signer ledger.Address, fn func(tx *ledger.Tx) error) (*ledger.Commit, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry."+op, trace.WithAttributes(
		attribute.String("registry.signer", signer.String()),
	))
	defer span.End()

	commit, err := s.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		return translate(fn(tx))
	})
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		if s.logger != nil {
			s.logger.InfoContext(ctx, "registry operation rejected",
				"operation", op,
				"signer", signer.String(),
				"code", string(dErrors.CodeOf(err)),
				"error", err,
			)
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int64("ledger.height", int64(commit.Height)))
	return commit, nil
}

// translate maps ledger sentinels that escaped an operation to domain codes.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeAccountAlreadyInUse, "account already in use")
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrClosed):
		return dErrors.Wrap(err, dErrors.CodeAccountNotInitialized, "account not initialized")
	case errors.Is(err, sentinel.ErrKindMismatch):
		return dErrors.Wrap(err, dErrors.CodeConstraintSeeds, "account holds a different record type")
	case errors.Is(err, sentinel.ErrInsufficientFunds):
		return dErrors.Wrap(err, dErrors.CodeInsufficientFunds, "insufficient funds")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "transaction failed")
	}
}

// expect fails with ConstraintSeeds when a supplied address is not the one
// derived for the record.
func expect(supplied, derived ledger.Address, record string) error {
	if supplied != derived {
		return dErrors.New(dErrors.CodeConstraintSeeds, record+" address does not match its seeds")
	}
	return nil
}

// activeProtocol loads the protocol state and rejects the operation while the
// protocol is paused.
func (s *Service) activeProtocol(tx *ledger.Tx, addr ledger.Address) (*models.ProtocolState, error) {
	state, err := s.protocol(tx, addr)
	if err != nil {
		return nil, err
	}
	if state.IsPaused {
		return nil, dErrors.New(dErrors.CodeProtocolPaused, "protocol is paused")
	}
	return state, nil
}

func (s *Service) protocol(tx *ledger.Tx, addr ledger.Address) (*models.ProtocolState, error) {
	if err := expect(addr, s.seeds.ProtocolState(), "protocol state"); err != nil {
		return nil, err
	}
	var state models.ProtocolState
	if err := tx.Load(addr, models.KindProtocolState, &state); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeAccountNotInitialized, "protocol has not been initialized")
		}
		return nil, err
	}
	return &state, nil
}

// user loads the User record at addr and checks it was derived for identity.
func (s *Service) user(tx *ledger.Tx, addr, identity ledger.Address, role string) (*models.User, error) {
	var u models.User
	if err := tx.Load(addr, models.KindUser, &u); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeAccountNotInitialized, role+" is not a registered user")
		}
		return nil, err
	}
	if u.Authority != identity {
		return nil, dErrors.New(dErrors.CodeUnauthorized, role+" record belongs to another identity")
	}
	if err := expect(addr, s.seeds.User(u.IDNumber, identity), role); err != nil {
		return nil, err
	}
	return &u, nil
}

// titleDeed loads the deed at addr.
func titleDeed(tx *ledger.Tx, addr ledger.Address) (*models.TitleDeed, error) {
	var deed models.TitleDeed
	if err := tx.Load(addr, models.KindTitleDeed, &deed); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeAccountNotInitialized, "title deed not found")
		}
		return nil, err
	}
	return &deed, nil
}

// agreement loads the agreement at addr. A cancelled agreement is a tombstone.
func agreement(tx *ledger.Tx, addr ledger.Address) (*models.Agreement, error) {
	var a models.Agreement
	if err := tx.Load(addr, models.KindAgreement, &a); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrClosed):
			return nil, dErrors.Wrap(err, dErrors.CodeAgreementAlreadyCancelled, "agreement was cancelled")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeAccountNotInitialized, "agreement not found")
		}
		return nil, err
	}
	return &a, nil
}

// confirmedAdmin checks that signer holds a confirmed Admin record and is
// still listed in the protocol state.
func (s *Service) confirmedAdmin(tx *ledger.Tx, state *models.ProtocolState, adminAddr, signer ledger.Address) error {
	if err := expect(adminAddr, s.seeds.Admin(signer), "admin"); err != nil {
		return err
	}
	var admin models.Admin
	if err := tx.Load(adminAddr, models.KindAdmin, &admin); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInvalidAdmin, "signer is not a confirmed admin")
		}
		return err
	}
	if admin.Authority != signer || !state.IsAdmin(signer) {
		return dErrors.New(dErrors.CodeInvalidAdmin, "signer is not an admin")
	}
	return nil
}

// activeRegistrar checks that signer holds an active Registrar record.
func (s *Service) activeRegistrar(tx *ledger.Tx, registrarAddr, signer ledger.Address) (*models.Registrar, error) {
	if err := expect(registrarAddr, s.seeds.Registrar(signer), "registrar"); err != nil {
		return nil, err
	}
	var r models.Registrar
	if err := tx.Load(registrarAddr, models.KindRegistrar, &r); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidRegistrar, "signer is not a registrar")
		}
		return nil, err
	}
	if r.Authority != signer || !r.IsActive {
		return nil, dErrors.New(dErrors.CodeInvalidRegistrar, "signer is not an active registrar")
	}
	return &r, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	event.TxHash = requestcontext.TxHash(ctx)
	if s.logger != nil {
		args := []any{
			"event", event.Action,
			"log_type", "audit",
			"actor", event.Actor,
			"subject", event.Subject,
		}
		if event.TitleDeed != "" {
			args = append(args, "title_deed", event.TitleDeed)
		}
		if event.Amount != 0 {
			args = append(args, "amount", event.Amount)
		}
		if event.RequestID != "" {
			args = append(args, "request_id", event.RequestID)
		}
		if event.TxHash != "" {
			args = append(args, "tx_hash", event.TxHash)
		}
		s.logger.InfoContext(ctx, event.Action, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit publish failed", "event", event.Action, "error", err)
	}
}

// createOrReuse creates v at addr. The same parties can settle the same
// deed at the same price more than once, so a record whose lifecycle has
// finished is overwritten instead of rejected.
func createOrReuse[T any](tx *ledger.Tx, payer, addr ledger.Address, kind ledger.Kind, v *T, finished func(*T) bool) error {
	var prior T
	err := tx.Load(addr, kind, &prior)
	switch {
	case err == nil && finished(&prior):
		return tx.Put(addr, kind, v)
	case err == nil:
		return dErrors.New(dErrors.CodeAccountAlreadyInUse, string(kind)+" already in use")
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrClosed):
		return tx.Create(payer, addr, kind, v)
	default:
		return err
	}
}

func auditEvent(name audit.EventName, actor, subject ledger.Address) audit.Event {
	return audit.Event{Action: string(name), Actor: actor.String(), Subject: subject.String()}
}
