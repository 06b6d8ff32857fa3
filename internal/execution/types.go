package execution

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ggonzalez94/neartx/internal/rpc"
	"github.com/ggonzalez94/neartx/internal/txn"
)

type OutcomeKind string

const (
	OutcomeSubmitted      OutcomeKind = "submitted"
	OutcomeSignedExport   OutcomeKind = "signed_export"
	OutcomeUnsignedExport OutcomeKind = "unsigned_export"
)

// Outcome is what a session produced. On a failed broadcast it is returned
// alongside the error so the signed payload is not lost.
type Outcome struct {
	Kind        OutcomeKind  `json:"kind"`
	Network     string       `json:"network,omitempty"`
	RPCURL      string       `json:"rpc_url,omitempty"`
	Transaction txn.View     `json:"transaction"`
	Hash        string       `json:"transaction_hash"`
	Payload     string       `json:"payload_base64"`
	Signature   string       `json:"signature,omitempty"`
	Receipt     *rpc.Receipt `json:"receipt,omitempty"`
	ExplorerURL string       `json:"explorer_url,omitempty"`
	RecordID    string       `json:"record_id,omitempty"`
	Warnings    []string     `json:"-"`
}

type RecordKind string

type RecordStatus string

const (
	RecordSigned   RecordKind = "signed"
	RecordUnsigned RecordKind = "unsigned"
)

const (
	RecordStatusExported  RecordStatus = "exported"
	RecordStatusSubmitted RecordStatus = "submitted"
	RecordStatusSucceeded RecordStatus = "succeeded"
	RecordStatusFailed    RecordStatus = "failed"
)

// Record is a persisted transaction artifact.
type Record struct {
	RecordID    string       `json:"record_id"`
	Kind        RecordKind   `json:"kind"`
	Status      RecordStatus `json:"status"`
	Network     string       `json:"network,omitempty"`
	RPCURL      string       `json:"rpc_url,omitempty"`
	SignerID    string       `json:"signer_id"`
	ReceiverID  string       `json:"receiver_id"`
	Hash        string       `json:"transaction_hash"`
	Payload     string       `json:"payload_base64"`
	Transaction txn.View     `json:"transaction"`
	Receipt     *rpc.Receipt `json:"receipt,omitempty"`
	Error       string       `json:"error,omitempty"`
	Attempts    int          `json:"attempts"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
}

func NewRecord(kind RecordKind, outcome Outcome) Record {
	now := time.Now().UTC().Format(time.RFC3339)
	return Record{
		RecordID:    NewRecordID(),
		Kind:        kind,
		Status:      RecordStatusExported,
		Network:     outcome.Network,
		RPCURL:      outcome.RPCURL,
		SignerID:    outcome.Transaction.SignerID,
		ReceiverID:  outcome.Transaction.ReceiverID,
		Hash:        outcome.Hash,
		Payload:     outcome.Payload,
		Transaction: outcome.Transaction,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (r *Record) Touch() {
	r.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

func NewRecordID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "tx-unknown"
	}
	return fmt.Sprintf("tx_%s", hex.EncodeToString(b))
}
