package httpserver

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"landlocked/internal/platform/config"
)

func TestNewDerivesTimeoutsFromRequestTimeout(t *testing.T) {
	srv := New(":0", http.NotFoundHandler(), config.ServerConfig{RequestTimeout: 10 * time.Second}, slog.Default())

	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	assert.NotNil(t, srv.ErrorLog)
}

func TestNewWithoutRequestTimeoutLeavesBodyUnbounded(t *testing.T) {
	srv := New(":0", http.NotFoundHandler(), config.ServerConfig{}, slog.Default())

	assert.Zero(t, srv.ReadTimeout)
	assert.Zero(t, srv.WriteTimeout)
}
