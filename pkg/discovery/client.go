package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/netconfig"
)

const fetchTimeout = 5 * time.Second

// Client wraps a network's peer-list endpoints and produces candidate peers
// filtered by advertised plugin and reported latency.
type Client struct {
	endpoint   string // peer-list URL or published seed list
	seeds      []Peer
	apiPort    int   // API port used when querying a seed's peer list
	maxLatency int64 // ms; 0 disables the ceiling
	http       *http.Client
	cache      *Store
	logger     *zap.Logger
}

// New configures discovery against either a named network or an explicit
// peer-list URL. The initial fetch is mandatory: a network we cannot discover
// peers for is unusable, so any failure here aborts startup.
func New(ctx context.Context, networkOrHost string, logger *zap.Logger) (*Client, error) {
	c := &Client{
		http:   &http.Client{Timeout: fetchTimeout},
		cache:  NewStore(),
		logger: logger,
	}

	if strings.Contains(networkOrHost, "://") {
		c.endpoint = networkOrHost
	} else {
		net, ok := netconfig.ByName(networkOrHost)
		if !ok {
			return nil, fmt.Errorf("unknown network %q", networkOrHost)
		}
		c.endpoint = net.SeedList
		c.apiPort = net.APIPort
	}

	peers, err := c.fetch(ctx, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("discovery init: %w", err)
	}
	if len(peers) == 0 {
		return nil, fmt.Errorf("discovery init: %s returned no peers", c.endpoint)
	}
	c.seeds = peers
	c.cache.Replace(peers)
	logger.Info("discovery_initialized",
		zap.String("source", c.endpoint),
		zap.Int("seeds", len(peers)))
	return c, nil
}

// WithLatency narrows future candidate sets to peers whose reported latency
// is within max milliseconds.
func (c *Client) WithLatency(max int64) *Client {
	c.maxLatency = max
	return c
}

// FindPeersWithPlugin returns peers advertising the named plugin, with Port
// rewritten to the plugin's port. An empty result is not an error: it means
// no peer currently serves that plugin.
func (c *Client) FindPeersWithPlugin(ctx context.Context, plugin string) ([]Peer, error) {
	peers, err := c.refresh(ctx)
	if err != nil {
		// Fall back to the last known peer set; a transient seed outage
		// should not take down every outbound call.
		cached := c.cache.List()
		if len(cached) == 0 {
			return nil, fmt.Errorf("find peers: %w", err)
		}
		c.logger.Warn("discovery_refresh_failed_using_cache",
			zap.Int("cached", len(cached)),
			zap.Error(err))
		peers = cached
	}

	out := make([]Peer, 0, len(peers))
	for _, p := range peers {
		if c.maxLatency > 0 && p.Latency > c.maxLatency {
			continue
		}
		port, ok := pluginPort(p, plugin)
		if !ok {
			continue
		}
		p.Port = port
		out = append(out, p)
	}
	return out, nil
}

// Refresh forces a refetch of the peer list and replaces the cache.
func (c *Client) Refresh(ctx context.Context) (int, error) {
	peers, err := c.refresh(ctx)
	if err != nil {
		return 0, err
	}
	return len(peers), nil
}

// ReportUnreachable evicts a peer that failed a reachability probe from the
// cache. It will reappear on the next successful refresh if the network
// still advertises it.
func (c *Client) ReportUnreachable(p Peer) {
	c.cache.RemoveIP(p.IP)
}

// CachedPeers returns the number of peers in the last known peer set.
func (c *Client) CachedPeers() int {
	return c.cache.Len()
}

func (c *Client) refresh(ctx context.Context) ([]Peer, error) {
	url := c.endpoint
	// Published seed lists carry plain peer records without latency or
	// plugin data; query a random seed's own peer API for live records.
	// Seeds advertise their p2p port, so the API port comes from the
	// network definition.
	if isSeedList(c.endpoint) && len(c.seeds) > 0 {
		seed := c.seeds[rand.Intn(len(c.seeds))]
		port := c.apiPort
		if port == 0 {
			port = seed.Port
		}
		url = fmt.Sprintf("http://%s:%d/api/peers", seed.IP, port)
	}
	peers, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(peers) > 0 {
		c.cache.Replace(peers)
	}
	return peers, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]Peer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	// Peer-list endpoints respond with {"data": [...]}; published seed
	// lists are a bare array.
	var wrapped peerListResponse
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}
	var bare []Peer
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("fetch %s: decode peer list: %w", url, err)
	}
	return bare, nil
}

func pluginPort(p Peer, plugin string) (int, bool) {
	for name, port := range p.Plugins {
		if !strings.Contains(name, plugin) {
			continue
		}
		if port < 1 || port > 65535 {
			continue
		}
		return port, true
	}
	return 0, false
}

func isSeedList(url string) bool {
	return strings.HasSuffix(url, ".json")
}
