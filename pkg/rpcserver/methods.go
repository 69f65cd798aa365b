package rpcserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

type methodFunc func(ctx context.Context, params json.RawMessage) (any, error)

func (s *Server) methods() map[string]methodFunc {
	return map[string]methodFunc{
		"blocks.latest":          s.blocksLatest,
		"blocks.info":            s.blocksInfo,
		"blocks.transactions":    s.blocksTransactions,
		"transactions.info":      s.transactionsInfo,
		"transactions.broadcast": s.transactionsBroadcast,
		"wallets.info":           s.walletsInfo,
		"node.status":            s.nodeStatus,
	}
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type listEnvelope struct {
	Data []json.RawMessage `json:"data"`
}

func (s *Server) blocksLatest(ctx context.Context, _ json.RawMessage) (any, error) {
	resp, err := s.Client.SendGET(ctx, "blocks", url.Values{
		"limit":   []string{"1"},
		"orderBy": []string{"height:desc"},
	})
	if err != nil {
		return nil, err
	}
	var env listEnvelope
	if err := json.Unmarshal(resp, &env); err != nil {
		return nil, fmt.Errorf("decode blocks: %w", err)
	}
	if len(env.Data) == 0 {
		return nil, &rpcError{Code: codeNotFound, Message: "no blocks found"}
	}
	return env.Data[0], nil
}

func (s *Server) blocksInfo(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.ID == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "id is required"}
	}
	resp, err := s.Client.SendGET(ctx, "blocks/"+p.ID, nil)
	if err != nil {
		return nil, err
	}
	return unwrapData(resp)
}

func (s *Server) blocksTransactions(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		ID     string `json:"id"`
		Offset int    `json:"offset"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.ID == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "id is required"}
	}
	query := url.Values{}
	if p.Offset > 0 {
		query.Set("offset", fmt.Sprintf("%d", p.Offset))
	}
	resp, err := s.Client.SendGET(ctx, "blocks/"+p.ID+"/transactions", query)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp), nil
}

func (s *Server) transactionsInfo(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.ID == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "id is required"}
	}
	resp, err := s.Client.SendGET(ctx, "transactions/"+p.ID, nil)
	if err != nil {
		return nil, err
	}
	return unwrapData(resp)
}

func (s *Server) transactionsBroadcast(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Transactions []json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(params, &p); err != nil || len(p.Transactions) == 0 {
		return nil, &rpcError{Code: codeInvalidParams, Message: "transactions are required"}
	}
	resp, err := s.Client.SendPOST(ctx, "transactions", map[string]any{
		"transactions": p.Transactions,
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp), nil
}

func (s *Server) walletsInfo(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.Address == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "address is required"}
	}
	resp, err := s.Client.SendGET(ctx, "wallets/"+p.Address, nil)
	if err != nil {
		return nil, err
	}
	return unwrapData(resp)
}

// nodeStatus reports the gateway's own view of the chain, maintained by the
// milestone watcher, without touching a peer.
func (s *Server) nodeStatus(context.Context, json.RawMessage) (any, error) {
	snap := s.Cfg.Current()
	return map[string]any{
		"network":   s.Cfg.Network().Name,
		"height":    snap.Height,
		"milestone": snap.Milestone,
	}, nil
}

func unwrapData(resp json.RawMessage) (any, error) {
	var env dataEnvelope
	if err := json.Unmarshal(resp, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil, &rpcError{Code: codeNotFound, Message: "not found"}
	}
	return env.Data, nil
}
