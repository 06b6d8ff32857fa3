package app

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/golang/mock/gomock"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/execution"
	"github.com/ggonzalez94/neartx/internal/resolve"
	"github.com/ggonzalez94/neartx/internal/rpc"
	"github.com/ggonzalez94/neartx/internal/rpc/mocks"
)

type outcomeData struct {
	Kind        string `json:"kind"`
	Hash        string `json:"transaction_hash"`
	Payload     string `json:"payload_base64"`
	Signature   string `json:"signature"`
	RecordID    string `json:"record_id"`
	ExplorerURL string `json:"explorer_url"`
	Transaction struct {
		SignerID   string `json:"signer_id"`
		ReceiverID string `json:"receiver_id"`
		PublicKey  string `json:"public_key"`
		Nonce      uint64 `json:"nonce"`
		BlockHash  string `json:"block_hash"`
		Actions    []struct {
			Type    string `json:"type"`
			Deposit string `json:"deposit"`
		} `json:"actions"`
	} `json:"transaction"`
}

func testBlockHash() string {
	return base58.Encode(bytes.Repeat([]byte{7}, 32))
}

func testSecretKey() (public, secret string) {
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 9
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return "ed25519:" + base58.Encode(pub), "ed25519:" + base58.Encode(priv)
}

func decodeOutcome(t *testing.T, raw []byte) outcomeData {
	t.Helper()
	var out outcomeData
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestConstructOfflineExternalExportsWithoutNetwork(t *testing.T) {
	isolateEnv(t)
	public, _ := testSecretKey()
	r, stdout, stderr := newTestRunner(offlineClients(t))
	code := r.Run([]string{
		"construct", "--mode", "offline", "--nonce", "42", "--block-hash", testBlockHash(),
		"--signer", "alice.test", "--receiver", "bob.test",
		"--action", "create-account", "--action", "delete-access-key:" + public,
		"--sign-with", "external", "--external-reference", "hardware-wallet",
		"--results-only", "--log-level", "error",
	})
	require.Equal(t, 0, code, stderr.String())

	out := decodeOutcome(t, stdout.Bytes())
	assert.Equal(t, string(execution.OutcomeUnsignedExport), out.Kind)
	assert.Equal(t, uint64(42), out.Transaction.Nonce)
	assert.Equal(t, testBlockHash(), out.Transaction.BlockHash)
	require.Len(t, out.Transaction.Actions, 2)
	assert.Equal(t, "CreateAccount", out.Transaction.Actions[0].Type)
	assert.Equal(t, "DeleteKey", out.Transaction.Actions[1].Type)
	assert.Empty(t, out.Signature)
	assert.NotEmpty(t, out.Payload)
	assert.NotEmpty(t, out.RecordID)
}

func TestConstructOnlineEmbeddedSubmitsAndRecords(t *testing.T) {
	isolateEnv(t)
	public, secret := testSecretKey()
	t.Setenv("NEARTX_SECRET_KEY", secret)

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	gomock.InOrder(
		client.EXPECT().AccessKeyNonce(gomock.Any(), "alice.test", public).Return(uint64(41), nil),
		client.EXPECT().LatestBlockHash(gomock.Any()).Return([32]byte{1, 2, 3}, nil),
		client.EXPECT().BroadcastTxCommit(gomock.Any(), gomock.Any()).
			Return(rpc.Receipt{TransactionHash: "h", Status: []byte(`{"SuccessValue":""}`)}, nil).Times(1),
	)

	var requested string
	r, stdout, stderr := newTestRunner(func(url string) rpc.Client { requested = url; return client })
	code := r.Run([]string{
		"construct-transaction", "--network", "testnet",
		"--signer", "alice.test", "--receiver", "bob.test",
		"--action", "transfer:10NEAR", "--sign-with", "embedded",
		"--log-level", "error",
	})
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "https://rpc.testnet.near.org", requested)

	env := decodeEnvelope(t, stdout)
	require.True(t, env.Success)
	assert.Equal(t, "testnet", env.Meta.Network)
	assert.Equal(t, "construct-transaction", env.Meta.Command)
	out := decodeOutcome(t, env.Data)
	assert.Equal(t, string(execution.OutcomeSubmitted), out.Kind, spew.Sdump(out))
	assert.Equal(t, uint64(42), out.Transaction.Nonce)
	assert.Equal(t, public, out.Transaction.PublicKey)
	require.Len(t, out.Transaction.Actions, 1)
	assert.Equal(t, "10000000000000000000000000", out.Transaction.Actions[0].Deposit)
	assert.Contains(t, out.ExplorerURL, "/transactions/"+out.Hash)

	r2, stdout2, stderr2 := newTestRunner(nil)
	code = r2.Run([]string{"tx", "list", "--status", "succeeded", "--results-only"})
	require.Equal(t, 0, code, stderr2.String())
	var records []execution.Record
	require.NoError(t, json.Unmarshal(stdout2.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, out.Hash, records[0].Hash)
	assert.Equal(t, 1, records[0].Attempts)
}

func TestConstructBroadcastFailureCarriesArtifactThenResubmits(t *testing.T) {
	isolateEnv(t)
	public, secret := testSecretKey()

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().AccessKeyNonce(gomock.Any(), "alice.test", public).Return(uint64(1), nil)
	client.EXPECT().LatestBlockHash(gomock.Any()).Return([32]byte{4}, nil)
	var first string
	gomock.InOrder(
		client.EXPECT().BroadcastTxCommit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, payload string) (rpc.Receipt, error) {
				first = payload
				return rpc.Receipt{}, clierr.New(clierr.CodeNetworkTransport, "connection reset")
			}),
		client.EXPECT().BroadcastTxCommit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, payload string) (rpc.Receipt, error) {
				assert.Equal(t, first, payload)
				return rpc.Receipt{TransactionHash: "h", Status: []byte(`{"SuccessValue":""}`)}, nil
			}),
	)
	clients := func(string) rpc.Client { return client }

	r, stdout, stderr := newTestRunner(clients)
	code := r.Run([]string{
		"construct", "--network", "testnet", "--signer", "alice.test", "--receiver", "bob.test",
		"--action", "transfer:1", "--public-key", public, "--secret-key", secret,
		"--log-level", "error",
	})
	require.Equal(t, int(clierr.CodeNetworkTransport), code)
	require.Empty(t, stdout.String())

	env := decodeEnvelope(t, stderr)
	require.False(t, env.Success)
	assert.Equal(t, "network_transport_error", env.Error.Type)
	out := decodeOutcome(t, env.Data)
	assert.NotEmpty(t, out.Payload)
	assert.NotEmpty(t, out.Signature)
	require.NotEmpty(t, out.RecordID)

	r2, stdout2, stderr2 := newTestRunner(clients)
	code = r2.Run([]string{"tx", "resubmit", out.RecordID, "--results-only", "--log-level", "error"})
	require.Equal(t, 0, code, stderr2.String())
	resubmitted := decodeOutcome(t, stdout2.Bytes())
	assert.Equal(t, out.Hash, resubmitted.Hash)
	assert.Equal(t, string(execution.OutcomeSubmitted), resubmitted.Kind)
}

func TestConstructMissingValueWithoutTerminalIsUsageError(t *testing.T) {
	isolateEnv(t)
	r, _, stderr := newTestRunner(offlineClients(t))
	code := r.Run([]string{"construct", "--mode", "offline", "--nonce", "1", "--log-level", "error"})
	require.Equal(t, int(clierr.CodeUsage), code)
	env := decodeEnvelope(t, stderr)
	assert.Contains(t, env.Error.Message, "missing required input")
}

func TestConstructBadKeyFailsWithKeyFormat(t *testing.T) {
	isolateEnv(t)
	r, _, stderr := newTestRunner(offlineClients(t))
	code := r.Run([]string{
		"construct", "--mode", "offline", "--nonce", "1", "--block-hash", testBlockHash(),
		"--signer", "alice.test", "--receiver", "bob.test", "--action", "create-account",
		"--secret-key", "ed25519:not-base58!", "--log-level", "error",
	})
	require.Equal(t, int(clierr.CodeKeyFormat), code, stderr.String())
}

func TestConstructPlanFileWithFlagOverride(t *testing.T) {
	dir := isolateEnv(t)
	plan := `
mode: offline
nonce: "7"
block_hash: ` + testBlockHash() + `
signer: alice.test
receiver: carol.test
actions:
  - kind: transfer
    amount: 2NEAR
  - kind: delete-account
    beneficiary: alice.test
signing:
  strategy: external
  reference: air-gapped
`
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(plan), 0o600))

	r, stdout, stderr := newTestRunner(offlineClients(t))
	code := r.Run([]string{"construct", "--plan-file", path, "--receiver", "bob.test", "--no-store", "--results-only", "--log-level", "error"})
	require.Equal(t, 0, code, stderr.String())

	out := decodeOutcome(t, stdout.Bytes())
	assert.Equal(t, "bob.test", out.Transaction.ReceiverID)
	assert.Equal(t, uint64(7), out.Transaction.Nonce)
	require.Len(t, out.Transaction.Actions, 2)
	assert.Equal(t, "2000000000000000000000000", out.Transaction.Actions[0].Deposit)
	assert.Empty(t, out.RecordID)
}

func TestConstructNoStoreSkipsOpeningTheStore(t *testing.T) {
	dir := isolateEnv(t)
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	t.Setenv("NEARTX_STORE_PATH", filepath.Join(blocker, "transactions.db"))
	t.Setenv("NEARTX_STORE_LOCK_PATH", filepath.Join(blocker, "transactions.lock"))

	args := []string{
		"construct", "--mode", "offline", "--nonce", "3", "--block-hash", testBlockHash(),
		"--signer", "alice.test", "--receiver", "bob.test", "--action", "create-account",
		"--sign-with", "external", "--external-reference", "ledger",
		"--results-only", "--log-level", "error",
	}
	r, _, stderr := newTestRunner(offlineClients(t))
	code := r.Run(args)
	require.Equal(t, int(clierr.CodeInternal), code, stderr.String())
	assert.Contains(t, stderr.String(), "open transaction store")

	r2, stdout2, stderr2 := newTestRunner(offlineClients(t))
	code = r2.Run(append(args, "--no-store"))
	require.Equal(t, 0, code, stderr2.String())
	out := decodeOutcome(t, stdout2.Bytes())
	assert.Equal(t, string(execution.OutcomeUnsignedExport), out.Kind)
	assert.Empty(t, out.RecordID)
}

func TestRootMenuDrivesConstructFromPrompts(t *testing.T) {
	isolateEnv(t)
	script := resolve.NewScript(
		"construct-transaction",
		"offline", "5", testBlockHash(),
		"alice.test", "bob.test",
		"transfer", "abc",
		"finalize",
		"external", "ledger",
	)
	r, stdout, stderr := newTestRunner(offlineClients(t))
	r.prompter = func() resolve.ValueSource { return script }

	code := r.Run([]string{"--log-level", "error"})
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, 0, script.Remaining())
	assert.Equal(t, "Choose your action", script.Prompts[0])

	env := decodeEnvelope(t, stdout)
	require.True(t, env.Success)
	require.Len(t, env.Warnings, 2, spew.Sdump(env.Warnings))
	assert.Contains(t, env.Warnings[0], "using 0")
	out := decodeOutcome(t, env.Data)
	require.Len(t, out.Transaction.Actions, 1)
	assert.Equal(t, "0", out.Transaction.Actions[0].Deposit)
}
