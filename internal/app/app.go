// Package app wires the gateway's components into a running HTTP
// server: configuration, upstream feed client, signer, cache, decode
// coordinator, and the request handler that ties them to the router.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dionysius/pkggateway/internal/cache"
	"github.com/dionysius/pkggateway/internal/config"
	"github.com/dionysius/pkggateway/internal/coordinator"
	"github.com/dionysius/pkggateway/internal/feed"
	"github.com/dionysius/pkggateway/internal/sign"
)

// Application holds every long-lived dependency the gateway needs to
// answer requests, constructed once at startup.
type Application struct {
	cfg         *config.Config
	coordinator *coordinator.Coordinator
	server      *http.Server
}

// userAgentTransport sets a fixed User-Agent on every outbound
// request, since GitHub's API and CDN both use it for abuse detection
// and attribution.
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// New builds an Application from a loaded configuration: the HTTP
// client used for upstream range-fetches, the feed client (which makes
// its GitHub API calls through its own go-github client), the signer,
// the two-tier cache, and the
// coordinator that ties them together.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	userAgent := cfg.HTTP.UserAgent
	if userAgent == "" {
		userAgent = "pkggateway/1.0"
	}

	transport := &http.Transport{
		MaxIdleConns:    cfg.HTTP.MaxIdleConns,
		MaxConnsPerHost: cfg.HTTP.MaxConnsPerHost,
	}
	timeout := time.Duration(cfg.HTTP.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{
		Transport: &userAgentTransport{userAgent: userAgent, base: transport},
		Timeout:   timeout,
	}

	feedClient := feed.New(cfg.GitHub.Token)
	signer := sign.New(cfg.Signing.PrivateKey, cfg.Signing.Passphrase, cfg.Signing.PublicKey)
	store := cache.New(
		time.Duration(cfg.Cache.FingerprintTTL)*time.Second,
		time.Duration(cfg.Cache.ContentTTL)*time.Second,
	)

	decodeConcurrency := int(cfg.Workers.Decode)
	if decodeConcurrency <= 0 {
		decodeConcurrency = 4
	}

	coord := coordinator.New(feedClient, httpClient, decodeConcurrency, signer, store, time.Duration(cfg.Cache.ContentTTL)*time.Second)

	application := &Application{cfg: cfg, coordinator: coord}

	mux := http.NewServeMux()
	mux.Handle("/", &handler{coordinator: coord})

	application.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Serve.Host, cfg.Serve.Port),
		Handler: mux,
	}

	return application, nil
}

// Shutdown releases the coordinator's decode pools. It does not close
// the HTTP server; callers should have already returned from Serve.
func (a *Application) Shutdown() {
	a.coordinator.Shutdown()
}
