package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/proxy"
)

// Prober answers whether a peer accepts connections right now. The check is
// a plain TCP dial with its own short timeout, deliberately independent of
// the API request timeout.
type Prober interface {
	IsReachable(ctx context.Context, host string, port int) bool
}

type TCPProber struct {
	Timeout time.Duration
	Logger  *zap.Logger

	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// New builds a prober that dials directly, or through the given SOCKS5 proxy
// address when torSocks is non-empty. The dialer is constructed once; every
// probe runs under Timeout regardless of the path taken.
func New(timeout time.Duration, torSocks string, logger *zap.Logger) *TCPProber {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	p := &TCPProber{Timeout: timeout, Logger: logger}

	direct := &net.Dialer{}
	p.dial = direct.DialContext

	if torSocks != "" {
		socks, err := proxy.SOCKS5("tcp", torSocks, nil, direct)
		if err == nil {
			if cd, ok := socks.(proxy.ContextDialer); ok {
				p.dial = cd.DialContext
				return p
			}
			err = errors.New("socks5 dialer does not support context")
		}
		// Never dial around the proxy: a broken SOCKS5 setup fails every
		// probe instead of leaking direct connections.
		logger.Warn("probe_socks5_dialer_error", zap.Error(err))
		p.dial = func(context.Context, string, string) (net.Conn, error) {
			return nil, err
		}
	}
	return p
}

func (p *TCPProber) IsReachable(ctx context.Context, host string, port int) bool {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	dctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	conn, err := p.dial(dctx, "tcp", addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
