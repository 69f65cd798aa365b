package netconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	Register(Network{
		Name:     "unittest",
		SeedList: "https://example.com/peers.json",
		APIPort:  4003,
		Milestones: []Milestone{
			{Height: 1, BlockTime: 8},
			{Height: 100, BlockTime: 4},
			{Height: 200, BlockTime: 4, AIP11: true},
		},
	})
	m := NewManager()
	require.NoError(t, m.SetFromPreset("unittest"))
	return m
}

func TestSetFromPreset_Unknown(t *testing.T) {
	m := NewManager()
	require.Error(t, m.SetFromPreset("no-such-network"))
}

func TestMilestoneAt(t *testing.T) {
	m := newTestManager(t)

	require.Equal(t, uint64(1), m.MilestoneAt(1).Height)
	require.Equal(t, uint64(1), m.MilestoneAt(99).Height)
	require.Equal(t, uint64(100), m.MilestoneAt(100).Height)
	require.False(t, m.MilestoneAt(199).AIP11)
	require.True(t, m.MilestoneAt(200).AIP11)
	require.True(t, m.MilestoneAt(1_000_000).AIP11)
}

func TestSetHeight_MonotonicAndCurrent(t *testing.T) {
	m := newTestManager(t)

	m.SetHeight(150)
	require.Equal(t, uint64(150), m.Height())

	// lower heights are ignored
	m.SetHeight(120)
	require.Equal(t, uint64(150), m.Height())

	snap := m.Current()
	require.Equal(t, uint64(150), snap.Height)
	require.Equal(t, uint64(100), snap.Milestone.Height)
}

func TestSubscribe_NotifiesOnHeightChange(t *testing.T) {
	m := newTestManager(t)

	updates, cancel := m.Subscribe()
	defer cancel()

	m.SetHeight(250)

	select {
	case snap := <-updates:
		require.Equal(t, uint64(250), snap.Height)
		require.True(t, snap.Milestone.AIP11)
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
	}
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	m := newTestManager(t)

	updates, cancel := m.Subscribe()
	cancel()

	m.SetHeight(300)
	select {
	case <-updates:
		t.Fatal("unexpected snapshot after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}
