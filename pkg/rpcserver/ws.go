package rpcserver

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/metrics"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/netconfig"
)

type WS struct {
	Cfg    *netconfig.Manager
	Logger *zap.Logger
}

func NewWS(cfg *netconfig.Manager, logger *zap.Logger) *WS {
	return &WS{Cfg: cfg, Logger: logger}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHeight streams height/milestone snapshots to the client as the
// watcher observes new heights.
func (s *WS) ServeHeight(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		s.Logger.Warn("ws_upgrade_failed", zap.Error(err))
		metrics.WSError.Inc()
		return
	}
	defer conn.Close()

	metrics.WSConnected.Inc()
	s.Logger.Info("ws_height_connected", zap.String("remote", r.RemoteAddr))

	updates, cancel := s.Cfg.Subscribe()
	defer cancel()

	// Drain inbound frames so we notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.Cfg.Current()); err != nil {
		metrics.WSError.Inc()
		return
	}
	for {
		select {
		case snap := <-updates:
			if err := conn.WriteJSON(snap); err != nil {
				s.Logger.Debug("ws_height_write_error", zap.Error(err))
				metrics.WSError.Inc()
				return
			}
		case <-closed:
			return
		}
	}
}
