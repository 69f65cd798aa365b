package netconfig

import (
	"fmt"
	"sync"
)

// Snapshot is what subscribers receive whenever the observed chain height
// changes.
type Snapshot struct {
	Height    uint64    `json:"height"`
	Milestone Milestone `json:"milestone"`
}

// Manager owns the mutable network configuration state for the process.
// All mutation goes through it; readers get value copies.
type Manager struct {
	mu      sync.RWMutex
	network Network
	height  uint64
	subs    map[int]chan Snapshot
	nextSub int
}

func NewManager() *Manager {
	return &Manager{subs: make(map[int]chan Snapshot)}
}

// SetFromPreset selects the active network by name.
func (m *Manager) SetFromPreset(name string) error {
	net, ok := ByName(name)
	if !ok {
		return fmt.Errorf("unknown network %q", name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.network = net
	return nil
}

func (m *Manager) Network() Network {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.network
}

// SetHeight records the latest observed chain height and notifies
// subscribers. Heights arrive from a single writer (the milestone watcher);
// a lower height than the current one is ignored.
func (m *Manager) SetHeight(h uint64) {
	m.mu.Lock()
	if h < m.height {
		m.mu.Unlock()
		return
	}
	m.height = h
	snap := Snapshot{Height: h, Milestone: m.milestoneAt(h)}
	subs := make([]chan Snapshot, 0, len(m.subs))
	for _, ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default: // slow subscriber, drop rather than block the watcher
		}
	}
}

func (m *Manager) Height() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.height
}

// MilestoneAt resolves the milestone applicable to the given height: the
// last milestone whose activation height is at or below it.
func (m *Manager) MilestoneAt(h uint64) Milestone {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.milestoneAt(h)
}

func (m *Manager) milestoneAt(h uint64) Milestone {
	var active Milestone
	var found bool
	for _, ms := range m.network.Milestones {
		if ms.Height <= h && (!found || ms.Height >= active.Height) {
			active = ms
			found = true
		}
	}
	return active
}

// Current returns the height and milestone as a single consistent snapshot.
func (m *Manager) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Height: m.height, Milestone: m.milestoneAt(m.height)}
}

// Subscribe registers for height change notifications. The returned cancel
// function must be called when the subscriber goes away.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan Snapshot, 8)
	m.subs[id] = ch
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}
