package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"landlocked/internal/platform/config"
)

// writeGrace keeps the connection open past the request timeout so the
// timeout middleware can still write its 503.
const writeGrace = 5 * time.Second

// New builds a server for handler. Connection-level errors go to logger.
func New(addr string, handler http.Handler, cfg config.ServerConfig, logger *slog.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	if cfg.RequestTimeout > 0 {
		srv.ReadTimeout = cfg.RequestTimeout
		srv.WriteTimeout = cfg.RequestTimeout + writeGrace
	}
	return srv
}
