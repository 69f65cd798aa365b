package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/discovery"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/metrics"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/probe"
)

const (
	requestTimeout = 3000 * time.Millisecond
	maxAttempts    = 3

	headerAccept      = "application/vnd.core-api.v2+json"
	headerContentType = "application/json"
)

// FailReason names why a dispatch gave up.
type FailReason string

const (
	ReasonNoPeer    FailReason = "no_peer"
	ReasonConnect   FailReason = "connect"
	ReasonTimeout   FailReason = "timeout"
	ReasonBadStatus FailReason = "bad_status"
	ReasonParse     FailReason = "parse"
)

// DispatchError reports an exhausted dispatch with the reason of the last
// failed attempt, so callers can tell "all peers failed" apart from "peer
// returned no data".
type DispatchError struct {
	Reason   FailReason
	Attempts int
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed after %d attempts (%s): %v", e.Attempts, e.Reason, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Client is the outbound API surface consumed by the watcher and the
// JSON-RPC layer.
type Client interface {
	SendGET(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	SendPOST(ctx context.Context, path string, body any) (json.RawMessage, error)
}

type peerPicker interface {
	Pick(ctx context.Context) (discovery.Peer, error)
}

// Dispatcher sends versioned API requests to a selected peer, retrying
// across peer selections so a transient single-peer failure becomes a
// failover instead of a caller-visible error.
type Dispatcher struct {
	sel    peerPicker
	http   *http.Client
	logger *zap.Logger
}

func NewDispatcher(opts Options, disc *discovery.Client, prober probe.Prober, torSocks string, logger *zap.Logger) (*Dispatcher, error) {
	client, err := newHTTPClient(torSocks, requestTimeout)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	return &Dispatcher{
		sel:    NewSelector(opts, disc, prober, logger),
		http:   client,
		logger: logger,
	}, nil
}

func (d *Dispatcher) SendGET(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return d.send(ctx, http.MethodGet, path, query, nil)
}

func (d *Dispatcher) SendPOST(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return d.send(ctx, http.MethodPost, path, nil, body)
}

// send performs up to maxAttempts attempts, reselecting the peer before each
// one. No exclusion set is kept across attempts: a retry may land on the
// same peer or on a different one.
func (d *Dispatcher) send(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	var lastErr *DispatchError
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, derr := d.attempt(ctx, method, path, query, payload)
		if derr == nil {
			metrics.DispatchSuccess.WithLabelValues(method).Inc()
			return out, nil
		}
		derr.Attempts = attempt
		lastErr = derr
		metrics.DispatchFail.WithLabelValues(method, string(derr.Reason)).Inc()
		d.logger.Error("dispatch_attempt_failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.String("reason", string(derr.Reason)),
			zap.Error(derr.Err))
		if ctx.Err() != nil {
			break
		}
	}

	d.logger.Error("dispatch_no_responsive_peer",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("attempts", lastErr.Attempts))
	return nil, lastErr
}

func (d *Dispatcher) attempt(ctx context.Context, method, path string, query url.Values, payload []byte) (json.RawMessage, *DispatchError) {
	peer, err := d.sel.Pick(ctx)
	if err != nil {
		return nil, &DispatchError{Reason: ReasonNoPeer, Err: err}
	}

	uri := fmt.Sprintf("http://%s:%d/api/%s", peer.IP, peer.Port, strings.TrimPrefix(path, "/"))
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(rctx, method, uri, reader)
	if err != nil {
		return nil, &DispatchError{Reason: ReasonConnect, Err: err}
	}
	req.Header.Set("Accept", headerAccept)
	req.Header.Set("Content-Type", headerContentType)

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, &DispatchError{Reason: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DispatchError{Reason: classifyTransportError(err), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &DispatchError{
			Reason: ReasonBadStatus,
			Err:    fmt.Errorf("%s responded with status %d", uri, resp.StatusCode),
		}
	}

	var out json.RawMessage
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &DispatchError{Reason: ReasonParse, Err: err}
	}
	return out, nil
}

// encodeBody JSON-serializes the body unless it is already a string or raw
// bytes.
func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

func classifyTransportError(err error) FailReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ReasonTimeout
	}
	return ReasonConnect
}
