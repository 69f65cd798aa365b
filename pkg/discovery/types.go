package discovery

import "sync"

// Peer is a network-addressable node as advertised by a peer-list endpoint.
// Plugins maps a plugin name (e.g. "@arkecosystem/core-api") to the port it
// listens on.
type Peer struct {
	IP      string         `json:"ip"`
	Port    int            `json:"port"`
	Latency int64          `json:"latency"` // ms, as reported by the peer list
	Plugins map[string]int `json:"ports"`
}

type peerListResponse struct {
	Data []Peer `json:"data"`
}

// Store keeps the last successfully fetched peer set so a transient fetch
// failure does not leave callers without candidates.
type Store struct {
	mu    sync.RWMutex
	peers map[string]Peer // key: ip:port
}
