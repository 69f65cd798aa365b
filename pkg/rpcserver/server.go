package rpcserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/tycoon69-labs/exchange-json-rpc/pkg/metrics"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/netconfig"
	"github.com/tycoon69-labs/exchange-json-rpc/pkg/network"
)

// Server exposes the peer dispatcher to local consumers as a JSON-RPC 2.0
// endpoint.
type Server struct {
	Client network.Client
	Cfg    *netconfig.Manager
	Logger *zap.Logger
}

func New(client network.Client, cfg *netconfig.Manager, logger *zap.Logger) *Server {
	return &Server{Client: client, Cfg: cfg, Logger: logger}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		writeRPC(w, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidRequest, Message: "could not read request body"}})
		return
	}

	started := LogRequest(s.Logger, "rpc", r.Method, r.URL.Path, body)

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeRPC(w, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "parse error"}})
		return
	}
	if req.Method == "" {
		writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeInvalidRequest, Message: "invalid request"}})
		return
	}

	metrics.RPCRequests.WithLabelValues(req.Method).Inc()
	result, rerr := s.handle(r, req)

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if rerr != nil {
		resp.Error = rerr
	} else {
		resp.Result = result
	}

	out, _ := json.Marshal(resp)
	LogResponse(s.Logger, "rpc", http.StatusOK, out, started)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

func (s *Server) handle(r *http.Request, req rpcRequest) (any, *rpcError) {
	h, ok := s.methods()[req.Method]
	if !ok {
		return nil, &rpcError{Code: codeMethodNotFound, Message: "method not found"}
	}
	result, err := h(r.Context(), req.Params)
	if err == nil {
		return result, nil
	}

	var rerr *rpcError
	if errors.As(err, &rerr) {
		return nil, rerr
	}
	var derr *network.DispatchError
	if errors.As(err, &derr) {
		s.Logger.Warn("rpc_dispatch_failed",
			zap.String("method", req.Method),
			zap.String("reason", string(derr.Reason)),
			zap.Int("attempts", derr.Attempts))
		return nil, &rpcError{Code: codeInternalError, Message: derr.Error()}
	}
	s.Logger.Warn("rpc_method_error", zap.String("method", req.Method), zap.Error(err))
	return nil, &rpcError{Code: codeInternalError, Message: err.Error()}
}

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (e *rpcError) Error() string { return e.Message }
