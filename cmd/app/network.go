package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/discovery"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/netconfig"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/network"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/probe"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/watcher"
)

func initNetwork(cfg config, logger *zap.Logger) (*discovery.Client, *network.Dispatcher, *netconfig.Manager) {
	nodeID := uuid.NewString()
	logger.Info("Node started",
		zap.String("nodeID", nodeID),
		zap.String("network", cfg.Network),
	)

	if cfg.NetworksDir != "" {
		loaded, err := netconfig.LoadCustom(cfg.NetworksDir, logger)
		if err != nil {
			logger.Fatal("networks_load_error", zap.Error(err))
		}
		logger.Info("custom_networks_loaded", zap.Int("count", len(loaded)))
	}

	cfgMgr := netconfig.NewManager()
	if err := cfgMgr.SetFromPreset(cfg.Network); err != nil {
		logger.Fatal("network_preset_error", zap.Error(err))
	}

	// An explicit seed peer doubles as the discovery source: its own
	// peer-list endpoint replaces the published seed list.
	networkOrHost := cfg.Network
	if cfg.Peer != "" {
		networkOrHost = fmt.Sprintf("http://%s:%d/api/peers", cfg.Peer, cfg.PeerPort)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	disc, err := discovery.New(ctx, networkOrHost, logger)
	if err != nil {
		logger.Fatal("discovery_init_error", zap.Error(err))
	}
	disc.WithLatency(cfg.MaxLatency)

	prober := probe.New(2*time.Second, cfg.TorSocks, logger)
	opts := network.Options{
		Network:    cfg.Network,
		Peer:       cfg.Peer,
		PeerPort:   cfg.PeerPort,
		MaxLatency: cfg.MaxLatency,
	}
	dispatcher, err := network.NewDispatcher(opts, disc, prober, cfg.TorSocks, logger)
	if err != nil {
		logger.Fatal("dispatcher_init_error", zap.Error(err))
	}
	return disc, dispatcher, cfgMgr
}

func startMilestoneWatcher(dispatcher *network.Dispatcher, cfgMgr *netconfig.Manager, logger *zap.Logger) *watcher.Watcher {
	w := watcher.New(dispatcher, cfgMgr, logger)
	w.Start()
	return w
}
