package network

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

// newHTTPClient builds the outbound client, optionally dialing through a
// SOCKS5 proxy for onion seed hosts.
func newHTTPClient(torSocks string, timeout time.Duration) (*http.Client, error) {
	tr := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 8 * time.Second,
	}
	if torSocks != "" {
		dialer, err := proxy.SOCKS5("tcp", torSocks, nil, proxy.Direct)
		if err != nil {
			return nil, err
		}
		tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return &http.Client{Transport: tr, Timeout: timeout}, nil
}
