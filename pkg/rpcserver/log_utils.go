package rpcserver

import (
	"time"

	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/secrets"
)

const LogBodyLimit = 4096

func LogSafe(b []byte) []byte {
	b = secrets.RedactJSONBody(b)
	if len(b) > LogBodyLimit {
		return append(b[:LogBodyLimit], []byte("... [truncated]")...)
	}
	return b
}

func LogRequest(logger *zap.Logger, tag string, method, path string, body []byte) time.Time {
	logger.Info(tag+"_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.ByteString("body", LogSafe(body)),
	)
	return time.Now()
}

func LogResponse(logger *zap.Logger, tag string, status int, body []byte, started time.Time) {
	logger.Info(tag+"_response",
		zap.Int("status", status),
		zap.Int64("latency_ms", time.Since(started).Milliseconds()),
		zap.ByteString("body", LogSafe(body)),
	)
}
