package main

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/discovery"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/docs"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/metrics"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/netconfig"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/network"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/rpcserver"
)

func registerRoutes(
	dispatcher *network.Dispatcher,
	disc *discovery.Client,
	cfgMgr *netconfig.Manager,
	cfg config,
	logger *zap.Logger,
) {
	rpc := rpcserver.New(dispatcher, cfgMgr, logger)
	wsAPI := rpcserver.NewWS(cfgMgr, logger)
	adminAPI := rpcserver.NewAdmin(disc, cfg.AdminKey, logger)
	status := rpcserver.NewStatus(cfgMgr, disc)

	// JSON-RPC endpoint
	http.Handle("/", rpc)

	// Control endpoints
	http.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	http.Handle("/status", status)
	http.HandleFunc("/admin/refresh-peers", adminAPI.RefreshPeers)

	// Height event stream
	http.HandleFunc("/ws/height", wsAPI.ServeHeight)

	// Swagger
	http.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/swagger.json"),
		httpSwagger.InstanceName("swagger"),
	))
	http.HandleFunc("/swagger/swagger.json", docs.JSONHandler)

	// Metrics
	metrics.Init()
	http.Handle("/metrics", metrics.Handler())

	logger.Info("routes_registered")
}
