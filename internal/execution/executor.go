package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mr-tron/base58"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/execution/signer"
	"github.com/ggonzalez94/neartx/internal/keys"
	"github.com/ggonzalez94/neartx/internal/registry"
	"github.com/ggonzalez94/neartx/internal/resolve"
	"github.com/ggonzalez94/neartx/internal/rpc"
	"github.com/ggonzalez94/neartx/internal/txn"
)

// ClientFactory returns an RPC client for an endpoint. It is only called for
// online plans.
type ClientFactory func(rpcURL string) rpc.Client

type Executor struct {
	clients ClientFactory
	store   *Store
	timeout time.Duration
}

// NewExecutor builds an executor. store may be nil to skip persistence and a
// zero timeout leaves network calls bounded only by ctx.
func NewExecutor(clients ClientFactory, store *Store, timeout time.Duration) *Executor {
	return &Executor{clients: clients, store: store, timeout: timeout}
}

// Execute walks a resolved plan once: fetch (or take) nonce and block hash,
// append every action in order, then sign and submit, sign and export, or
// export unsigned.
func (e *Executor) Execute(ctx context.Context, plan resolve.Plan) (Outcome, error) {
	var (
		sg       signer.Signer
		pubKey   *keys.PublicKey
		warnings []string
	)
	switch plan.Signing.Kind {
	case resolve.SigningEmbedded:
		s, err := signer.NewLocalSigner(plan.Signing.PublicKey, plan.Signing.SecretKey)
		if err != nil {
			return Outcome{}, err
		}
		sg = s
		pk := s.PublicKey()
		pubKey = &pk
	case resolve.SigningExternal:
		if pk, err := keys.ParsePublicKey(plan.Signing.Reference); err == nil {
			pubKey = &pk
		} else {
			warnings = append(warnings, "external signing reference is not a public key; the transaction carries the placeholder key")
		}
	default:
		return Outcome{}, clierr.New(clierr.CodeInternal, fmt.Sprintf("unsupported signing strategy %q", plan.Signing.Kind))
	}

	var client rpc.Client
	nonce, blockHash := plan.Mode.Nonce, plan.Mode.BlockHash
	if plan.Mode.Kind == resolve.ModeOnline {
		if e.clients == nil {
			return Outcome{}, clierr.New(clierr.CodeInternal, "no rpc client configured")
		}
		client = e.clients(plan.Mode.RPCURL)
		hint := ""
		if pubKey != nil {
			hint = pubKey.String()
		}
		var err error
		nonce, blockHash, err = e.fetchReferences(ctx, client, plan.SignerID, hint)
		if err != nil {
			return Outcome{}, err
		}
	}

	tx := txn.New(plan.SignerID, plan.ReceiverID, nonce, blockHash)
	for _, action := range plan.Actions {
		tx = tx.WithAction(action)
	}
	if pubKey != nil {
		tx = tx.WithPublicKey(*pubKey)
	}

	outcome := Outcome{
		Network:  plan.Mode.Network,
		RPCURL:   plan.Mode.RPCURL,
		Warnings: warnings,
	}
	if sg == nil {
		return e.exportUnsigned(tx, outcome)
	}

	signed, digest, err := sg.SignTx(tx)
	if err != nil {
		return Outcome{}, err
	}
	payload, err := txn.EncodeSigned(signed)
	if err != nil {
		return Outcome{}, err
	}
	outcome.Transaction = tx.View()
	outcome.Hash = base58.Encode(digest[:])
	outcome.Payload = txn.Base64(payload)
	outcome.Signature = signed.Signature.String()

	record := NewRecord(RecordSigned, outcome)
	if client == nil {
		outcome.Kind = OutcomeSignedExport
		e.persist(&outcome, &record)
		log.Info("Signed transaction exported", "hash", outcome.Hash)
		return outcome, nil
	}

	outcome.Kind = OutcomeSubmitted
	record.Status = RecordStatusSubmitted
	e.persist(&outcome, &record)
	return e.broadcast(ctx, client, outcome, record)
}

// Resubmit sends a stored signed transaction once more.
func (e *Executor) Resubmit(ctx context.Context, record Record, rpcURL string) (Outcome, error) {
	if record.Kind != RecordSigned {
		return Outcome{}, clierr.New(clierr.CodeInputValidation, fmt.Sprintf("record %s holds an unsigned transaction; sign it before submitting", record.RecordID))
	}
	if record.Status == RecordStatusSucceeded {
		return Outcome{}, clierr.New(clierr.CodeInputValidation, fmt.Sprintf("record %s already succeeded", record.RecordID))
	}
	if strings.TrimSpace(rpcURL) == "" {
		rpcURL = record.RPCURL
	}
	if strings.TrimSpace(rpcURL) == "" {
		return Outcome{}, clierr.New(clierr.CodeUsage, "record has no rpc endpoint; pass --network or --rpc-url")
	}
	if e.clients == nil {
		return Outcome{}, clierr.New(clierr.CodeInternal, "no rpc client configured")
	}
	record.RPCURL = rpcURL
	record.Status = RecordStatusSubmitted
	record.Error = ""
	outcome := Outcome{
		Kind:        OutcomeSubmitted,
		Network:     record.Network,
		RPCURL:      rpcURL,
		Transaction: record.Transaction,
		Hash:        record.Hash,
		Payload:     record.Payload,
		RecordID:    record.RecordID,
	}
	e.persist(&outcome, &record)
	return e.broadcast(ctx, e.clients(rpcURL), outcome, record)
}

func (e *Executor) fetchReferences(ctx context.Context, client rpc.Client, signerID, publicKey string) (uint64, [32]byte, error) {
	callCtx, cancel := e.callContext(ctx)
	current, err := client.AccessKeyNonce(callCtx, signerID, publicKey)
	cancel()
	if err != nil {
		return 0, [32]byte{}, networkError("fetch access key nonce", err)
	}

	callCtx, cancel = e.callContext(ctx)
	hash, err := client.LatestBlockHash(callCtx)
	cancel()
	if err != nil {
		return 0, [32]byte{}, networkError("fetch latest block hash", err)
	}
	log.Debug("Fetched transaction references", "signer", signerID, "nonce", current, "block", base58.Encode(hash[:]))
	return current + 1, hash, nil
}

func (e *Executor) broadcast(ctx context.Context, client rpc.Client, outcome Outcome, record Record) (Outcome, error) {
	log.Info("Broadcasting transaction", "hash", outcome.Hash, "rpc", outcome.RPCURL)
	callCtx, cancel := e.callContext(ctx)
	receipt, err := client.BroadcastTxCommit(callCtx, outcome.Payload)
	cancel()
	record.Attempts++
	if err != nil {
		err = networkError("broadcast transaction", err)
		record.Status = RecordStatusFailed
		record.Error = err.Error()
		e.persist(&outcome, &record)
		log.Warn("Broadcast failed", "hash", outcome.Hash, "err", err)
		return outcome, err
	}

	outcome.Receipt = &receipt
	outcome.ExplorerURL = registry.ExplorerTxURL(outcome.Network, outcome.Hash)
	record.Receipt = &receipt
	if !receipt.Succeeded() {
		record.Status = RecordStatusFailed
		record.Error = "transaction failed on chain"
		e.persist(&outcome, &record)
		return outcome, clierr.New(clierr.CodeRejected, fmt.Sprintf("transaction %s failed: %s", outcome.Hash, string(receipt.Failure())))
	}
	record.Status = RecordStatusSucceeded
	e.persist(&outcome, &record)
	log.Info("Transaction succeeded", "hash", outcome.Hash)
	return outcome, nil
}

func (e *Executor) exportUnsigned(tx txn.Transaction, outcome Outcome) (Outcome, error) {
	digest, encoded, err := txn.Hash(tx)
	if err != nil {
		return Outcome{}, err
	}
	outcome.Kind = OutcomeUnsignedExport
	outcome.Transaction = tx.View()
	outcome.Hash = base58.Encode(digest[:])
	outcome.Payload = txn.Base64(encoded)
	record := NewRecord(RecordUnsigned, outcome)
	e.persist(&outcome, &record)
	log.Info("Unsigned transaction exported", "hash", outcome.Hash)
	return outcome, nil
}

// persist saves the record when a store is configured. Store failures are
// reported as warnings: the artifact is still in the outcome.
func (e *Executor) persist(outcome *Outcome, record *Record) {
	if e.store == nil {
		return
	}
	record.Touch()
	if err := e.store.Save(*record); err != nil {
		log.Warn("Failed to persist transaction record", "err", err)
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("transaction record not saved: %v", err))
		return
	}
	outcome.RecordID = record.RecordID
}

func (e *Executor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

func networkError(message string, err error) error {
	if _, ok := clierr.As(err); ok {
		return err
	}
	return clierr.Network(message, err)
}
