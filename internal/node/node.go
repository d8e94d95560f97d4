// Package node assembles a registry node from configuration: ledger store,
// registry service, transaction dispatcher, HTTP API and background workers.
package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"landlocked/internal/audit"
	"landlocked/internal/ledger"
	"landlocked/internal/ledger/store"
	"landlocked/internal/ledger/store/postgres"
	"landlocked/internal/platform/config"
	"landlocked/internal/platform/httpserver"
	platformmetrics "landlocked/internal/platform/metrics"
	"landlocked/internal/platform/middleware"
	"landlocked/internal/platform/redis"
	"landlocked/internal/ratelimit"
	"landlocked/internal/receipt"
	"landlocked/internal/registry/handler"
	registrymetrics "landlocked/internal/registry/metrics"
	"landlocked/internal/registry/service"
	"landlocked/internal/txn"
	"landlocked/internal/txn/replay"
	"landlocked/pkg/platform/httputil"
)

// Node owns every long-lived component of a running registry.
type Node struct {
	cfg        *config.Config
	logger     *slog.Logger
	registry   *prometheus.Registry
	Ledger     *ledger.Ledger
	Service    *service.Service
	Dispatcher *txn.Dispatcher
	redis      *redis.Client
	worker     *audit.Worker
	router     chi.Router
	closers    []func() error
}

// New builds a node. Call Close to release its connections.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (n *Node, err error) {
	n = &Node{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = n.Close()
		}
	}()
	n.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	kv, err := n.openStore(ctx)
	if err != nil {
		return nil, err
	}
	params := ledger.Params{
		ProgramID:      ledger.ProgramIDFromName(cfg.Ledger.ProgramName),
		BaseRecordCost: cfg.Ledger.BaseRecordCost,
		CostPerByte:    cfg.Ledger.CostPerByte,
		TxTimeout:      cfg.Ledger.TxTimeout,
	}
	n.Ledger, err = ledger.Open(ctx, kv, params,
		ledger.WithLogger(logger),
		ledger.WithMetrics(platformmetrics.New(n.registry)),
	)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := n.genesis(ctx); err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(registrymetrics.New(n.registry)),
	}
	if cfg.Audit.Sink == config.AuditSinkKafka {
		publisher, err := n.kafkaAudit(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithAuditPublisher(publisher))
	}
	n.Service = service.New(n.Ledger, opts...)

	if n.redis, err = redis.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if n.redis != nil {
		n.closers = append(n.closers, n.redis.Close)
	}
	guard := replay.Guard(replay.NewMemoryGuard())
	if cfg.Replay.Backend == "redis" {
		guard = replay.NewRedisGuard(n.redis.Client)
	}
	n.Dispatcher = txn.NewDispatcher(n.Service, guard,
		txn.WithLogger(logger),
		txn.WithReplayTTL(cfg.Replay.TTL),
	)

	receipts := receipt.NewIssuer(cfg.Receipt.SigningKey, cfg.Receipt.Issuer, cfg.Receipt.TTL)
	n.router = n.newRouter(handler.New(n.Dispatcher, n.Service, receipts, logger))

	logger.InfoContext(ctx, "node ready",
		"program_id", params.ProgramID.String(),
		"ledger_backend", cfg.Ledger.Backend,
		"replay_backend", cfg.Replay.Backend,
		"audit_sink", cfg.Audit.Sink,
		"height", n.Ledger.Head().Height,
	)
	return n, nil
}

func (n *Node) openStore(ctx context.Context) (store.KV, error) {
	var (
		kv  store.KV
		err error
	)
	switch n.cfg.Ledger.Backend {
	case config.BackendLevelDB:
		kv, err = store.NewLevelDB("ledger", n.cfg.Ledger.DataDir)
	case config.BackendPostgres:
		kv, err = openPostgres(ctx, n.cfg.Postgres.DSN)
	default:
		kv = store.NewMemDB()
	}
	if err != nil {
		return nil, err
	}
	n.closers = append(n.closers, kv.Close)
	return kv, nil
}

func openPostgres(ctx context.Context, dsn string) (store.KV, error) {
	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return postgres.New(db), nil
}

func (n *Node) genesis(ctx context.Context) error {
	alloc := make(map[ledger.Address]uint64, len(n.cfg.Ledger.Genesis))
	for hexAddr, amount := range n.cfg.Ledger.Genesis {
		addr, err := ledger.ParseAddress(hexAddr)
		if err != nil {
			return fmt.Errorf("genesis address %q: %w", hexAddr, err)
		}
		alloc[addr] = amount
	}
	commit, err := n.Ledger.Genesis(ctx, alloc)
	if err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	if commit != nil {
		n.logger.InfoContext(ctx, "genesis allocated", "accounts", len(alloc), "height", commit.Height)
	}
	return nil
}

func (n *Node) kafkaAudit(ctx context.Context) (*audit.Publisher, error) {
	sink, err := audit.NewKafkaStore(n.cfg.Audit.Brokers, n.cfg.Audit.Topic)
	if err != nil {
		return nil, err
	}
	n.closers = append(n.closers, func() error {
		sink.Close()
		return nil
	})
	if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
		n.logger.WarnContext(ctx, "could not ensure audit topic", "topic", n.cfg.Audit.Topic, "error", err)
	}
	queue := audit.NewQueue(n.cfg.Audit.QueueSize)
	n.worker = audit.NewWorker(sink, queue, n.logger)
	return audit.NewPublisher(queue), nil
}

func (n *Node) rateLimit() []func(http.Handler) http.Handler {
	rl := n.cfg.RateLimit
	if !rl.Enabled {
		return nil
	}
	var limitStore ratelimit.Store = ratelimit.NewMemoryStore()
	if n.redis != nil {
		limitStore = ratelimit.NewRedisStore(n.redis.Client)
	}
	return []func(http.Handler) http.Handler{
		ratelimit.New(limitStore, rl.Requests, rl.Window, n.logger, n.registry,
			ratelimit.TrustForwardedHeaders(rl.TrustForwardedHeaders),
		).Handler,
	}
}

func (n *Node) newRouter(h *handler.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(n.logger))
	r.Use(middleware.Recovery(n.logger))
	r.Use(middleware.Timeout(n.cfg.Server.RequestTimeout))

	r.Get("/healthz", n.handleHealth)
	r.Handle("/metrics", n.MetricsHandler())
	h.Register(r, n.rateLimit()...)
	return r
}

func (n *Node) handleHealth(w http.ResponseWriter, r *http.Request) {
	if n.redis != nil {
		if err := n.redis.Health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "height": n.Ledger.Head().Height})
}

// Handler is the API router.
func (n *Node) Handler() http.Handler {
	return n.router
}

func (n *Node) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(n.registry, promhttp.HandlerOpts{Registry: n.registry})
}

// Run serves the API, the metrics endpoint and the audit worker until ctx is
// cancelled, then shuts the servers down gracefully.
func (n *Node) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	servers := []*http.Server{httpserver.New(n.cfg.Server.Addr, n.router, n.cfg.Server, n.logger)}
	if n.cfg.Server.MetricsAddr != "" {
		servers = append(servers, httpserver.New(n.cfg.Server.MetricsAddr, n.MetricsHandler(), n.cfg.Server, n.logger))
	}
	for _, srv := range servers {
		g.Go(func() error {
			n.logger.InfoContext(ctx, "listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if n.worker != nil {
		g.Go(func() error {
			if err := n.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Close releases connections in reverse order of acquisition.
func (n *Node) Close() error {
	var errs []error
	for i := len(n.closers) - 1; i >= 0; i-- {
		errs = append(errs, n.closers[i]())
	}
	n.closers = nil
	return errors.Join(errs...)
}
