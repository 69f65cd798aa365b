package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const peerList = `{"data":[
	{"ip":"10.0.0.1","port":4001,"latency":120,"ports":{"@arkecosystem/core-api":4003}},
	{"ip":"10.0.0.2","port":4001,"latency":900,"ports":{"@arkecosystem/core-api":4003}},
	{"ip":"10.0.0.3","port":4001,"latency":80,"ports":{"@arkecosystem/core-wallet-api":4005}}
]}`

func newPeerListServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(peerList))
	}))
}

func TestNew_FailsWhenEndpointUnreachable(t *testing.T) {
	srv := newPeerListServer(t)
	url := srv.URL
	srv.Close()

	_, err := New(context.Background(), url, zap.NewNop())
	require.Error(t, err)
}

func TestNew_FailsOnUnknownNetwork(t *testing.T) {
	_, err := New(context.Background(), "no-such-network", zap.NewNop())
	require.Error(t, err)
}

func TestFindPeersWithPlugin_FiltersAndRewritesPort(t *testing.T) {
	srv := newPeerListServer(t)
	defer srv.Close()

	c, err := New(context.Background(), srv.URL, zap.NewNop())
	require.NoError(t, err)
	c.WithLatency(300)

	peers, err := c.FindPeersWithPlugin(context.Background(), "core-api")
	require.NoError(t, err)
	// 10.0.0.2 is over the latency ceiling, 10.0.0.3 lacks the plugin
	require.Len(t, peers, 1)
	require.Equal(t, "10.0.0.1", peers[0].IP)
	require.Equal(t, 4003, peers[0].Port, "port should be the plugin port")
}

func TestFindPeersWithPlugin_EmptyResultIsNotError(t *testing.T) {
	srv := newPeerListServer(t)
	defer srv.Close()

	c, err := New(context.Background(), srv.URL, zap.NewNop())
	require.NoError(t, err)

	peers, err := c.FindPeersWithPlugin(context.Background(), "core-webhooks")
	require.NoError(t, err)
	require.Empty(t, peers)
}

func TestFindPeersWithPlugin_FallsBackToCache(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(peerList))
	}))
	defer srv.Close()

	c, err := New(context.Background(), srv.URL, zap.NewNop())
	require.NoError(t, err)

	fail.Store(true)
	peers, err := c.FindPeersWithPlugin(context.Background(), "core-api")
	require.NoError(t, err, "cached peers should cover a refresh failure")
	require.NotEmpty(t, peers)
}

func TestReportUnreachable_EvictsFromCache(t *testing.T) {
	srv := newPeerListServer(t)

	c, err := New(context.Background(), srv.URL, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 3, c.CachedPeers())

	srv.Close()
	c.ReportUnreachable(Peer{IP: "10.0.0.1", Port: 4001})
	require.Equal(t, 2, c.CachedPeers())
}

func TestFetch_AcceptsBareSeedList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"ip":"10.0.0.9","port":4001}]`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), srv.URL, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 1, c.CachedPeers())
}
