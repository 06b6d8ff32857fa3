package model

import (
	"encoding/json"
	"time"
)

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
	Command   string      `json:"command"`
	Network   string      `json:"network,omitempty"`
	RPCURL    string      `json:"rpc_url,omitempty"`
	Cache     CacheStatus `json:"cache"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
	Stale  bool   `json:"stale"`
}

// AccessKey is one row of `keys list`.
type AccessKey struct {
	AccountID  string          `json:"account_id"`
	PublicKey  string          `json:"public_key"`
	Nonce      uint64          `json:"nonce"`
	Permission json.RawMessage `json:"permission"`
	FullAccess bool            `json:"full_access"`
}

type AccessKeyList struct {
	AccountID string      `json:"account_id"`
	Network   string      `json:"network"`
	Keys      []AccessKey `json:"keys"`
}
