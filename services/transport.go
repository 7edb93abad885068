// ABOUTME: HTTP client construction for upstream API calls
// ABOUTME: Applies timeout, TLS policy, and an optional SSH+SOCKS5 jump host dialer

package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cloudfoundry/socks5-proxy"
	"github.com/communityforum/bff/config"
)

// NewUpstreamClient builds the HTTP client shared by the auth client and the
// gateway. The client is safe for concurrent use and holds no per-user state.
func NewUpstreamClient(cfg *config.Config) *http.Client {
	timeout := 30 * time.Second
	skipVerify := false
	allProxy := ""
	if cfg != nil {
		if cfg.UpstreamTimeout > 0 {
			timeout = cfg.UpstreamTimeout
		}
		skipVerify = cfg.UpstreamSkipSSLValidation
		allProxy = cfg.UpstreamAllProxy
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: skipVerify}
	transport.TLSHandshakeTimeout = 10 * time.Second

	if allProxy != "" {
		if dialContextFunc := createSOCKS5DialContextFunc(allProxy); dialContextFunc != nil {
			transport.DialContext = dialContextFunc
			transport.Proxy = nil
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// createSOCKS5DialContextFunc creates a dial function for SSH+SOCKS5 proxy connections.
// Supports format: ssh+socks5://user@host:port?private-key=/path/to/key
// Returns nil (direct dialing) when the URL cannot be used.
func createSOCKS5DialContextFunc(allProxy string) func(ctx context.Context, network, address string) (net.Conn, error) {
	allProxy = strings.TrimPrefix(allProxy, "ssh+")

	proxyURL, err := url.Parse(allProxy)
	if err != nil {
		slog.Error("Failed to parse UPSTREAM_ALL_PROXY URL", "error", err)
		return nil
	}

	if proxyURL.Scheme != "socks5" {
		slog.Error("UPSTREAM_ALL_PROXY must use the socks5 scheme", "scheme", proxyURL.Scheme)
		return nil
	}

	username := ""
	if proxyURL.User != nil {
		username = proxyURL.User.Username()
	}

	keyPath := proxyURL.Query().Get("private-key")
	if keyPath == "" {
		slog.Error("UPSTREAM_ALL_PROXY missing required 'private-key' query param")
		return nil
	}

	key, err := os.ReadFile(keyPath)
	if err != nil {
		slog.Error("Failed to read SSH private key", "path", keyPath, "error", err)
		return nil
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.Mutex
	)

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mut.Lock()
		if dialer == nil {
			proxyDialer, err := socks5Proxy.Dialer(username, string(key), proxyURL.Host)
			if err != nil {
				mut.Unlock()
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = proxyDialer
		}
		d := dialer
		mut.Unlock()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return d(network, address)
	}
}
