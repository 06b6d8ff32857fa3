// Package rpc talks to a NEAR JSON-RPC endpoint.
package rpc

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks github.com/ggonzalez94/neartx/internal/rpc Client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mr-tron/base58"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/httpx"
)

// Client is the subset of the NEAR RPC surface the executor needs.
type Client interface {
	// AccessKeyNonce returns the current nonce of publicKey on accountID. An
	// empty publicKey returns the highest nonce across all of the account's keys.
	AccessKeyNonce(ctx context.Context, accountID, publicKey string) (uint64, error)
	AccessKeyList(ctx context.Context, accountID string) ([]AccessKeyInfo, error)
	LatestBlockHash(ctx context.Context) ([32]byte, error)
	// BroadcastTxCommit submits a base64 signed transaction once and waits
	// for its final outcome.
	BroadcastTxCommit(ctx context.Context, signedTxBase64 string) (Receipt, error)
}

type AccessKeyInfo struct {
	PublicKey  string          `json:"public_key"`
	Nonce      uint64          `json:"nonce"`
	Permission json.RawMessage `json:"permission"`
}

// Receipt is the final execution outcome of a broadcast transaction.
type Receipt struct {
	TransactionHash string          `json:"transaction_hash"`
	Status          json.RawMessage `json:"status"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

// Succeeded reports whether the status is SuccessValue or SuccessReceiptId.
func (r Receipt) Succeeded() bool {
	var status map[string]json.RawMessage
	if err := json.Unmarshal(r.Status, &status); err != nil {
		return false
	}
	_, value := status["SuccessValue"]
	_, receipt := status["SuccessReceiptId"]
	return value || receipt
}

// Failure returns the Failure payload of the status, if any.
func (r Receipt) Failure() json.RawMessage {
	var status map[string]json.RawMessage
	if err := json.Unmarshal(r.Status, &status); err != nil {
		return nil
	}
	return status["Failure"]
}

// HTTPClient implements Client over JSON-RPC 2.0. Reads and the broadcast use
// separate transports so reads can retry while submissions never do.
type HTTPClient struct {
	url    string
	query  *httpx.Client
	submit *httpx.Client
	seq    atomic.Uint64
}

func NewHTTPClient(url string, query, submit *httpx.Client) *HTTPClient {
	return &HTTPClient{url: strings.TrimSpace(url), query: query, submit: submit}
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// CarriesError lets the transport hand back error envelopes sent with a
// non-2xx status.
func (r *response) CarriesError() bool { return r.Error != nil }

// Error is a JSON-RPC error object.
type Error struct {
	Name    string          `json:"name"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Cause   *struct {
		Name string          `json:"name"`
		Info json.RawMessage `json:"info"`
	} `json:"cause"`
}

func (e *Error) Error() string {
	parts := []string{}
	if e.Name != "" {
		parts = append(parts, e.Name)
	}
	if e.Cause != nil && e.Cause.Name != "" {
		parts = append(parts, e.Cause.Name)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if len(e.Data) > 0 && string(e.Data) != "null" {
		parts = append(parts, string(e.Data))
	}
	return strings.Join(parts, ": ")
}

func (e *Error) causeName() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Name
}

func (c *HTTPClient) call(ctx context.Context, transport *httpx.Client, method string, params any, out any) error {
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      fmt.Sprintf("neartx-%d", c.seq.Add(1)),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return clierr.Wrap(clierr.CodeSerialization, "encode rpc request", err)
	}
	log.Debug("Sending RPC request", "method", method, "url", c.url)

	var resp response
	if err := transport.PostJSON(ctx, c.url, body, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	// Older nodes report query failures inside result.
	var inline struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Result, &inline); err == nil && inline.Error != "" {
		return &Error{Name: "HANDLER_ERROR", Message: inline.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return clierr.Wrap(clierr.CodeSerialization, fmt.Sprintf("decode %s result", method), err)
	}
	return nil
}

func (c *HTTPClient) AccessKeyNonce(ctx context.Context, accountID, publicKey string) (uint64, error) {
	if strings.TrimSpace(publicKey) == "" {
		list, err := c.AccessKeyList(ctx, accountID)
		if err != nil {
			return 0, err
		}
		if len(list) == 0 {
			return 0, clierr.New(clierr.CodeInputValidation, fmt.Sprintf("account %s has no access keys", accountID))
		}
		var highest uint64
		for _, k := range list {
			if k.Nonce > highest {
				highest = k.Nonce
			}
		}
		return highest, nil
	}

	var out struct {
		Nonce     uint64 `json:"nonce"`
		BlockHash string `json:"block_hash"`
	}
	err := c.call(ctx, c.query, "query", map[string]any{
		"request_type": "view_access_key",
		"finality":     "final",
		"account_id":   accountID,
		"public_key":   publicKey,
	}, &out)
	if err != nil {
		return 0, mapQueryError(fmt.Sprintf("fetch access key %s for %s", publicKey, accountID), err)
	}
	return out.Nonce, nil
}

func (c *HTTPClient) AccessKeyList(ctx context.Context, accountID string) ([]AccessKeyInfo, error) {
	var out struct {
		Keys []struct {
			PublicKey string `json:"public_key"`
			AccessKey struct {
				Nonce      uint64          `json:"nonce"`
				Permission json.RawMessage `json:"permission"`
			} `json:"access_key"`
		} `json:"keys"`
	}
	err := c.call(ctx, c.query, "query", map[string]any{
		"request_type": "view_access_key_list",
		"finality":     "final",
		"account_id":   accountID,
	}, &out)
	if err != nil {
		return nil, mapQueryError(fmt.Sprintf("list access keys for %s", accountID), err)
	}
	keys := make([]AccessKeyInfo, 0, len(out.Keys))
	for _, k := range out.Keys {
		keys = append(keys, AccessKeyInfo{PublicKey: k.PublicKey, Nonce: k.AccessKey.Nonce, Permission: k.AccessKey.Permission})
	}
	return keys, nil
}

func (c *HTTPClient) LatestBlockHash(ctx context.Context) ([32]byte, error) {
	var out struct {
		Header struct {
			Hash string `json:"hash"`
		} `json:"header"`
	}
	if err := c.call(ctx, c.query, "block", map[string]any{"finality": "final"}, &out); err != nil {
		return [32]byte{}, mapQueryError("fetch latest block", err)
	}
	raw, err := base58.Decode(out.Header.Hash)
	if err != nil || len(raw) != 32 {
		return [32]byte{}, clierr.New(clierr.CodeSerialization, fmt.Sprintf("rpc returned malformed block hash %q", out.Header.Hash))
	}
	var hash [32]byte
	copy(hash[:], raw)
	return hash, nil
}

func (c *HTTPClient) BroadcastTxCommit(ctx context.Context, signedTxBase64 string) (Receipt, error) {
	var raw json.RawMessage
	if err := c.call(ctx, c.submit, "broadcast_tx_commit", []string{signedTxBase64}, &raw); err != nil {
		var rpcErr *Error
		if asRPCError(err, &rpcErr) {
			if isTimeout(rpcErr) {
				return Receipt{}, clierr.Wrap(clierr.CodeNetworkTimeout, "broadcast transaction", err)
			}
			if rpcErr.Name == "INTERNAL_ERROR" {
				return Receipt{}, clierr.Wrap(clierr.CodeNetworkTransport, "broadcast transaction", err)
			}
			return Receipt{}, clierr.Wrap(clierr.CodeRejected, "transaction rejected", err)
		}
		return Receipt{}, err
	}
	var out struct {
		Status      json.RawMessage `json:"status"`
		Transaction struct {
			Hash string `json:"hash"`
		} `json:"transaction"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Receipt{}, clierr.Wrap(clierr.CodeSerialization, "decode broadcast result", err)
	}
	return Receipt{TransactionHash: out.Transaction.Hash, Status: out.Status, Raw: raw}, nil
}

func asRPCError(err error, target **Error) bool {
	if e, ok := err.(*Error); ok {
		*target = e
		return true
	}
	return false
}

func isTimeout(e *Error) bool {
	return e.Name == "TIMEOUT_ERROR" || e.causeName() == "TIMEOUT_ERROR"
}

func mapQueryError(message string, err error) error {
	var rpcErr *Error
	if !asRPCError(err, &rpcErr) {
		return err
	}
	switch {
	case isTimeout(rpcErr):
		return clierr.Wrap(clierr.CodeNetworkTimeout, message, err)
	case rpcErr.Name == "INTERNAL_ERROR":
		return clierr.Wrap(clierr.CodeNetworkTransport, message, err)
	default:
		return clierr.Wrap(clierr.CodeInputValidation, message, err)
	}
}
