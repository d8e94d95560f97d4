package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	platformmw "landlocked/internal/platform/middleware"
	dErrors "landlocked/pkg/domain-errors"
	"landlocked/pkg/platform/httputil"
	"landlocked/pkg/requestcontext"
)

// Limiter is HTTP middleware allowing limit requests per client IP in each
// window. Store failures let the request through.
type Limiter struct {
	store    Store
	limit    int
	window   time.Duration
	logger   *slog.Logger
	rejected prometheus.Counter
	now      func() time.Time

	trustForwarded bool
}

type Option func(*Limiter)

// TrustForwardedHeaders keys clients by X-Forwarded-For / X-Real-IP instead
// of the connection address.
func TrustForwardedHeaders(trust bool) Option {
	return func(l *Limiter) {
		l.trustForwarded = trust
	}
}

func New(store Store, limit int, window time.Duration, logger *slog.Logger, reg prometheus.Registerer, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
		rejected: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "landlocked_http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limit",
		}),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := platformmw.ClientIP(r, l.trustForwarded)

		res, err := l.store.Allow(ctx, ip, l.limit, l.window)
		if err != nil {
			l.logger.ErrorContext(ctx, "rate limit check failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
		if !res.Allowed {
			l.rejected.Inc()
			l.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"client_ip", ip,
			)
			w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter(l.now())))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
