package network

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/discovery"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/metrics"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/probe"
)

// PluginCoreAPI is the plugin a peer must advertise to serve API requests.
const PluginCoreAPI = "core-api"

const (
	defaultSelectRounds = 10
	defaultBaseBackoff  = 100 * time.Millisecond
	defaultMaxBackoff   = 2 * time.Second
)

var (
	// ErrNoPeersAvailable means discovery produced an empty candidate set
	// for the required plugin.
	ErrNoPeersAvailable = errors.New("no peers available")
	// ErrNoReachablePeer means candidates existed but none passed the
	// reachability probe within the attempt budget.
	ErrNoReachablePeer = errors.New("no reachable peer")
)

// Selector picks the peer used for the next request: either the pinned seed
// peer, or a reachable peer sampled from discovery results.
type Selector struct {
	opts   Options
	disc   *discovery.Client
	prober probe.Prober
	logger *zap.Logger

	maxRounds   int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func NewSelector(opts Options, disc *discovery.Client, prober probe.Prober, logger *zap.Logger) *Selector {
	return &Selector{
		opts:        opts,
		disc:        disc,
		prober:      prober,
		logger:      logger,
		maxRounds:   defaultSelectRounds,
		baseBackoff: defaultBaseBackoff,
		maxBackoff:  defaultMaxBackoff,
	}
}

// Pick returns a peer that passed a reachability probe at selection time.
// The peer may still go offline before the request executes; the request
// timeout is the safeguard for that window.
//
// Selection is bounded: each round fetches fresh candidates and samples
// without replacement, rounds are separated by jittered exponential backoff,
// and exhaustion surfaces as ErrNoReachablePeer instead of looping forever.
func (s *Selector) Pick(ctx context.Context) (discovery.Peer, error) {
	if s.opts.Peer != "" {
		return discovery.Peer{IP: s.opts.Peer, Port: s.opts.PeerPort}, nil
	}

	for round := 0; round < s.maxRounds; round++ {
		if round > 0 {
			if err := s.sleepWithJitter(ctx, round); err != nil {
				return discovery.Peer{}, err
			}
		}

		candidates, err := s.disc.FindPeersWithPlugin(ctx, PluginCoreAPI)
		if err != nil {
			return discovery.Peer{}, fmt.Errorf("select peer: %w", err)
		}
		if len(candidates) == 0 {
			return discovery.Peer{}, ErrNoPeersAvailable
		}

		// Sample without replacement so one round never probes the same
		// peer twice.
		order := rand.Perm(len(candidates))
		for _, i := range order {
			peer := candidates[i]
			if s.prober.IsReachable(ctx, peer.IP, peer.Port) {
				return peer, nil
			}
			metrics.PeerRejected.Inc()
			s.disc.ReportUnreachable(peer)
			s.logger.Warn("peer_unresponsive_choosing_new",
				zap.String("peer", fmt.Sprintf("%s:%d", peer.IP, peer.Port)),
				zap.Int("round", round+1))
		}
	}
	return discovery.Peer{}, ErrNoReachablePeer
}

func (s *Selector) sleepWithJitter(ctx context.Context, round int) error {
	backoff := s.baseBackoff << (round - 1)
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	backoff += time.Duration(rand.Int63n(int64(backoff)))
	select {
	case <-time.After(backoff):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
