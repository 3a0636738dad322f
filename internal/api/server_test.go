package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gameroom/internal/testutil"
)

func TestServerLifecycle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ShutdownTimeout = time.Second

	hooked := make(chan struct{})
	srv := NewServer(mux, cfg, testutil.NopLogger(), func() { close(hooked) })
	require.NoError(t, srv.Listen())
	assert.NotEqual(t, "127.0.0.1:0", srv.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, <-errCh)

	select {
	case <-hooked:
	case <-time.After(time.Second):
		t.Fatal("shutdown hook did not run")
	}
}
