package netconfig

import "sync"

// Milestone is a read-only configuration snapshot that applies from Height
// onward, until the next milestone activates.
type Milestone struct {
	Height    uint64 `yaml:"height" json:"height"`
	BlockTime int    `yaml:"blockTime" json:"blockTime"` // seconds
	AIP11     bool   `yaml:"aip11" json:"aip11"`
}

// Network describes a blockchain network: where its published seed list
// lives, which port core-api nodes default to, and its milestone table.
type Network struct {
	Name       string      `yaml:"name" json:"name"`
	SeedList   string      `yaml:"seedList" json:"seedList"`
	APIPort    int         `yaml:"apiPort" json:"apiPort"`
	Milestones []Milestone `yaml:"milestones" json:"milestones"`
}

var (
	NetworkMainnet = Network{
		Name:     "mainnet",
		SeedList: "https://raw.githubusercontent.com/ArkEcosystem/peers/master/mainnet.json",
		APIPort:  4003,
		Milestones: []Milestone{
			{Height: 1, BlockTime: 8},
			{Height: 11273000, BlockTime: 8, AIP11: true},
		},
	}
	NetworkDevnet = Network{
		Name:     "devnet",
		SeedList: "https://raw.githubusercontent.com/ArkEcosystem/peers/master/devnet.json",
		APIPort:  4003,
		Milestones: []Milestone{
			{Height: 1, BlockTime: 8},
			{Height: 4006000, BlockTime: 8, AIP11: true},
		},
	}
	NetworkTestnet = Network{
		Name:     "testnet",
		SeedList: "https://raw.githubusercontent.com/ArkEcosystem/peers/master/testnet.json",
		APIPort:  4003,
		Milestones: []Milestone{
			{Height: 1, BlockTime: 8, AIP11: true},
		},
	}
)

var (
	presetsMu sync.RWMutex
	presets   = map[string]Network{
		NetworkMainnet.Name: NetworkMainnet,
		NetworkDevnet.Name:  NetworkDevnet,
		NetworkTestnet.Name: NetworkTestnet,
	}
)

// ByName returns a registered network by name.
func ByName(name string) (Network, bool) {
	presetsMu.RLock()
	defer presetsMu.RUnlock()
	n, ok := presets[name]
	return n, ok
}

// Register adds or replaces a network definition, typically one loaded from
// a custom config directory.
func Register(n Network) {
	presetsMu.Lock()
	defer presetsMu.Unlock()
	presets[n.Name] = n
}
