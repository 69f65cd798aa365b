package network

// Options configures peer selection for the lifetime of the process.
type Options struct {
	// Network is the named network to discover peers on (mainnet, devnet,
	// testnet or a custom-registered one).
	Network string
	// Peer, when set, pins every request to this host. Discovery and
	// reachability probing are bypassed entirely.
	Peer string
	// PeerPort is the API port used for the pinned peer.
	PeerPort int
	// MaxLatency is the latency ceiling (ms) applied to discovered peers.
	MaxLatency int64
}
