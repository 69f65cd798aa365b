package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type config struct {
	Network     string
	Peer        string // explicit seed peer host; bypasses discovery
	PeerPort    int
	MaxLatency  int64 // ms
	NetworksDir string
	TorSocks    string
	AdminKey    string
	Host        string
	Port        string
}

func loadConfig() config {
	_ = godotenv.Load()

	return config{
		Network:     getEnv("NETWORK", "mainnet"),
		Peer:        getEnv("PEER", ""),
		PeerPort:    getEnvInt("PEER_PORT", 4003),
		MaxLatency:  int64(getEnvInt("MAX_LATENCY_MS", 300)),
		NetworksDir: getEnv("NETWORKS_DIR", ""),
		TorSocks:    getEnv("TOR_SOCKS5", ""),
		AdminKey:    getEnv("ADMIN_API_KEY", "changeme"),
		Host:        getEnv("SERVER_HOST", "0.0.0.0"),
		Port:        getEnv("SERVER_PORT", "8080"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
