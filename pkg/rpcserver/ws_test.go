package rpcserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/netconfig"
)

func TestServeHeight_StreamsSnapshots(t *testing.T) {
	netconfig.Register(netconfig.Network{
		Name:     "wstest",
		SeedList: "https://example.com/peers.json",
		APIPort:  4003,
		Milestones: []netconfig.Milestone{
			{Height: 1, BlockTime: 8},
		},
	})
	mgr := netconfig.NewManager()
	require.NoError(t, mgr.SetFromPreset("wstest"))

	ws := NewWS(mgr, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(ws.ServeHeight))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var initial netconfig.Snapshot
	require.NoError(t, conn.ReadJSON(&initial))
	require.Zero(t, initial.Height)

	mgr.SetHeight(77)

	var update netconfig.Snapshot
	require.NoError(t, conn.ReadJSON(&update))
	require.Equal(t, uint64(77), update.Height)
	require.Equal(t, 8, update.Milestone.BlockTime)
}
