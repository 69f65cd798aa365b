package main

func main() {
	PrintVersion()

	cfg := loadConfig()
	logger := initLogger()
	defer logger.Sync()

	disc, dispatcher, cfgMgr := initNetwork(cfg, logger)
	w := startMilestoneWatcher(dispatcher, cfgMgr, logger)
	defer w.Stop()

	registerRoutes(dispatcher, disc, cfgMgr, cfg, logger)

	startServer(cfg.Host, cfg.Port, logger)
}
