package rpcserver

import (
	"encoding/json"
	"net/http"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/discovery"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/netconfig"
)

type Status struct {
	Cfg  *netconfig.Manager
	Disc *discovery.Client
}

func NewStatus(cfg *netconfig.Manager, disc *discovery.Client) *Status {
	return &Status{Cfg: cfg, Disc: disc}
}

func (s *Status) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	snap := s.Cfg.Current()
	out := map[string]any{
		"network":   s.Cfg.Network().Name,
		"height":    snap.Height,
		"milestone": snap.Milestone,
	}
	if s.Disc != nil {
		out["knownPeers"] = s.Disc.CachedPeers()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
