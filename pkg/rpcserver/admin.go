package rpcserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/discovery"
)

type Admin struct {
	Disc     *discovery.Client
	AdminKey string
	Logger   *zap.Logger
}

func NewAdmin(disc *discovery.Client, key string, logger *zap.Logger) *Admin {
	return &Admin{Disc: disc, AdminKey: key, Logger: logger}
}

func (a *Admin) auth(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("x-admin-key") != a.AdminKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// POST /admin/refresh-peers
func (a *Admin) RefreshPeers(w http.ResponseWriter, r *http.Request) {
	if !a.auth(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	count, err := a.Disc.Refresh(r.Context())
	if err != nil {
		a.Logger.Warn("admin_refresh_peers_error", zap.Error(err))
		http.Error(w, "refresh failed", http.StatusBadGateway)
		return
	}
	a.Logger.Info("admin_refresh_peers", zap.Int("peers", count))
	writeJSON(w, http.StatusOK, map[string]any{"status": "refreshed", "peers": count})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
