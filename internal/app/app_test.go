package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dionysius/pkggateway/internal/config"
)

type recordingRoundTripper struct {
	lastRequest *http.Request
}

func (r *recordingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	r.lastRequest = req
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Header: make(http.Header)}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNewBuildsServerAddr(t *testing.T) {
	cfg := testConfig(t)
	cfg.Serve.Host = "127.0.0.1"
	cfg.Serve.Port = 9090

	application, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, application)
	assert.Equal(t, "127.0.0.1:9090", application.server.Addr)
}

func TestUserAgentTransportSetsHeader(t *testing.T) {
	rt := &recordingRoundTripper{}
	transport := &userAgentTransport{userAgent: "pkggateway/1.0", base: rt}

	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	require.NoError(t, err)
	require.NotNil(t, rt.lastRequest)
	assert.Equal(t, "pkggateway/1.0", rt.lastRequest.Header.Get("User-Agent"))
}

func TestShutdownDoesNotPanic(t *testing.T) {
	cfg := testConfig(t)
	application, err := New(context.Background(), cfg)
	require.NoError(t, err)

	application.Shutdown()
}
