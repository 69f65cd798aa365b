package network

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/discovery"
)

type fakePicker struct {
	peers []discovery.Peer
	calls int
	err   error
}

func (f *fakePicker) Pick(context.Context) (discovery.Peer, error) {
	if f.err != nil {
		return discovery.Peer{}, f.err
	}
	p := f.peers[f.calls%len(f.peers)]
	f.calls++
	return p, nil
}

func peerFor(t *testing.T, srv *httptest.Server) discovery.Peer {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return discovery.Peer{IP: u.Hostname(), Port: port}
}

func newTestDispatcher(picker peerPicker) *Dispatcher {
	return &Dispatcher{sel: picker, http: &http.Client{}, logger: zap.NewNop()}
}

func TestSend_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/blockchain", r.URL.Path)
		require.Equal(t, "application/vnd.core-api.v2+json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"data":{"block":{"height":42}}}`))
	}))
	defer srv.Close()

	d := newTestDispatcher(&fakePicker{peers: []discovery.Peer{peerFor(t, srv)}})
	out, err := d.SendGET(context.Background(), "blockchain", nil)
	require.NoError(t, err)
	require.Contains(t, string(out), `"height":42`)
}

func TestSend_QueryEncoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	d := newTestDispatcher(&fakePicker{peers: []discovery.Peer{peerFor(t, srv)}})
	_, err := d.SendGET(context.Background(), "blocks", url.Values{"limit": []string{"1"}})
	require.NoError(t, err)
}

func TestSend_AllAttemptsFail(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := newTestDispatcher(&fakePicker{peers: []discovery.Peer{peerFor(t, srv)}})
	out, err := d.SendGET(context.Background(), "blocks", nil)
	require.Nil(t, out)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, 3, derr.Attempts)
	require.Equal(t, ReasonBadStatus, derr.Reason)
	require.Equal(t, int32(3), hits.Load(), "exactly one request per attempt")
}

func TestSend_FailoverToSecondPeer(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":"ok"}`))
	}))
	defer good.Close()

	picker := &fakePicker{peers: []discovery.Peer{peerFor(t, bad), peerFor(t, good)}}
	d := newTestDispatcher(picker)

	out, err := d.SendGET(context.Background(), "blocks", nil)
	require.NoError(t, err, "second attempt should land on the healthy peer")
	require.JSONEq(t, `{"data":"ok"}`, string(out))
	require.Equal(t, 2, picker.calls)
}

func TestSend_ParseFailureRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	d := newTestDispatcher(&fakePicker{peers: []discovery.Peer{peerFor(t, srv)}})
	_, err := d.SendGET(context.Background(), "blocks", nil)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, ReasonParse, derr.Reason)
}

func TestSend_NoPeerReason(t *testing.T) {
	d := newTestDispatcher(&fakePicker{err: ErrNoPeersAvailable})
	_, err := d.SendGET(context.Background(), "blocks", nil)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, ReasonNoPeer, derr.Reason)
	require.ErrorIs(t, err, ErrNoPeersAvailable)
}

func TestSendPOST_BodyRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(mustReadAll(r)); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	d := newTestDispatcher(&fakePicker{peers: []discovery.Peer{peerFor(t, srv)}})

	body := map[string]any{"transactions": []any{map[string]any{"id": "abc", "amount": "100"}}}
	out, err := d.SendPOST(context.Background(), "transactions", body)
	require.NoError(t, err)

	var echoed map[string]any
	require.NoError(t, json.Unmarshal(out, &echoed))
	require.Equal(t, body, echoed)
}

func TestSendPOST_StringBodyPassedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := mustReadAll(r)
		require.Equal(t, `{"raw":true}`, string(b))
		_, _ = w.Write(b)
	}))
	defer srv.Close()

	d := newTestDispatcher(&fakePicker{peers: []discovery.Peer{peerFor(t, srv)}})
	_, err := d.SendPOST(context.Background(), "transactions", `{"raw":true}`)
	require.NoError(t, err)
}

func mustReadAll(r *http.Request) []byte {
	b, _ := io.ReadAll(r.Body)
	return b
}
