package watcher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/metrics"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/netconfig"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/network"
)

const defaultBlockTime = 8 // seconds, used until a milestone is known

// Watcher polls the active peer's reported chain height through the
// dispatcher, records it in the config manager, and reschedules itself every
// block interval until the AIP11 milestone is active or Stop is called.
type Watcher struct {
	client network.Client
	cfg    *netconfig.Manager
	logger *zap.Logger

	// scale is the duration of one block-time unit. Tests shrink it.
	scale time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	done    chan struct{}
}

func New(client network.Client, cfg *netconfig.Manager, logger *zap.Logger) *Watcher {
	return &Watcher{
		client: client,
		cfg:    cfg,
		logger: logger,
		scale:  time.Second,
		done:   make(chan struct{}),
	}
}

// Start schedules the first poll and returns immediately.
func (w *Watcher) Start() {
	go w.poll()
}

// Stop halts any pending reschedule. Safe to call more than once and after
// the watcher retired on its own.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.finishLocked()
}

// Done closes when the watcher will not poll again, either because the
// milestone activated or because Stop was called.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := w.client.SendGET(ctx, "blockchain", nil)
	if err != nil {
		w.logger.Warn("milestone_watch_height_error", zap.Error(err))
		w.reschedule(w.interval(w.cfg.Height()))
		return
	}

	var parsed struct {
		Data struct {
			Block struct {
				Height uint64 `json:"height"`
			} `json:"block"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp, &parsed); err != nil || parsed.Data.Block.Height == 0 {
		w.logger.Warn("milestone_watch_bad_height_response", zap.Error(err))
		w.reschedule(w.interval(w.cfg.Height()))
		return
	}

	height := parsed.Data.Block.Height
	w.cfg.SetHeight(height)
	metrics.ChainHeight.Set(float64(height))

	milestone := w.cfg.MilestoneAt(height)
	if milestone.AIP11 {
		w.logger.Info("milestone_watch_complete",
			zap.Uint64("height", height),
			zap.Uint64("milestone_height", milestone.Height))
		w.mu.Lock()
		w.finishLocked()
		w.mu.Unlock()
		return
	}

	w.logger.Debug("milestone_watch_rescheduled",
		zap.Uint64("height", height),
		zap.Int("block_time", milestone.BlockTime))
	w.reschedule(w.interval(height))
}

func (w *Watcher) interval(height uint64) time.Duration {
	blockTime := w.cfg.MilestoneAt(height).BlockTime
	if blockTime <= 0 {
		blockTime = defaultBlockTime
	}
	return time.Duration(blockTime) * w.scale
}

func (w *Watcher) reschedule(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.timer = time.AfterFunc(d, w.poll)
}

func (w *Watcher) finishLocked() {
	if w.stopped {
		return
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
}
