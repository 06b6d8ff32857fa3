package resolve

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/keys"
	"github.com/ggonzalez94/neartx/internal/txn"
)

var (
	testPublicKey = "ed25519:" + base58.Encode(make([]byte, 32))
	testBlockHash = base58.Encode([]byte("0123456789abcdef0123456789abcdef"))
)

func tenNEAR() *big.Int {
	v, _ := new(big.Int).SetString("10000000000000000000000000", 10)
	return v
}

func TestResolveInteractiveOnlineTransfer(t *testing.T) {
	src := NewScript(
		"online", "testnet",
		"alice.test", "bob.test",
		"transfer", "10NEAR",
		"finalize", "embedded", "ed25519:pub", "ed25519:secret",
	)
	plan, err := NewResolver(src, Networks{}, false).Resolve(Input{})
	require.NoError(t, err)

	assert.Equal(t, ModeOnline, plan.Mode.Kind)
	assert.Equal(t, "testnet", plan.Mode.Network)
	assert.Equal(t, "https://rpc.testnet.near.org", plan.Mode.RPCURL)
	assert.Equal(t, "alice.test", plan.SignerID)
	assert.Equal(t, "bob.test", plan.ReceiverID)
	require.Len(t, plan.Actions, 1, spew.Sdump(plan.Actions))
	assert.Equal(t, 0, plan.Actions[0].(txn.Transfer).Deposit.Cmp(tenNEAR()))
	assert.Equal(t, SigningStrategy{Kind: SigningEmbedded, PublicKey: "ed25519:pub", SecretKey: "ed25519:secret"}, plan.Signing)
	assert.Equal(t, 0, src.Remaining())
	assert.Equal(t, "What is the account ID of the sender?", src.Prompts[2])
}

func TestResolveInteractiveOfflineExternal(t *testing.T) {
	src := NewScript(
		"offline", "42", testBlockHash,
		"alice.test", "alice.test",
		"create-account",
		"delete-access-key", testPublicKey,
		"finalize", "external", "ledger://0",
	)
	plan, err := NewResolver(src, Networks{}, false).Resolve(Input{})
	require.NoError(t, err)

	assert.Equal(t, ModeOffline, plan.Mode.Kind)
	assert.Equal(t, uint64(42), plan.Mode.Nonce)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", string(plan.Mode.BlockHash[:]))
	assert.Empty(t, plan.Mode.RPCURL)
	require.Len(t, plan.Actions, 2)
	assert.Equal(t, txn.KindCreateAccount, plan.Actions[0].Kind())
	assert.Equal(t, txn.KindDeleteKey, plan.Actions[1].Kind())
	assert.Equal(t, SigningStrategy{Kind: SigningExternal, Reference: "ledger://0"}, plan.Signing)
}

func TestResolveFullyPrefilledMakesNoElicitation(t *testing.T) {
	src := NewScript()
	in := Input{
		Mode:       strPtr("offline"),
		Nonce:      strPtr("7"),
		BlockHash:  strPtr(testBlockHash),
		SignerID:   strPtr("alice.test"),
		ReceiverID: strPtr("bob.test"),
		Actions: []ActionInput{
			{Kind: "transfer", Amount: strPtr("500")},
			{Kind: "add-access-key", PublicKey: strPtr(testPublicKey), Nonce: strPtr("0"), Permission: &PermissionInput{
				Kind:        strPtr("function-call"),
				Allowance:   strPtr("unlimited"),
				ReceiverID:  strPtr("app.test"),
				MethodNames: strPtr("a,b"),
			}},
			{Kind: "delete-account", BeneficiaryID: strPtr("carol.test")},
		},
		Signing: &SigningInput{Reference: strPtr("hw")},
	}
	plan, err := NewResolver(src, Networks{}, false).Resolve(in)
	require.NoError(t, err)
	assert.Empty(t, src.Prompts)

	require.Len(t, plan.Actions, 3)
	assert.Equal(t, int64(500), plan.Actions[0].(txn.Transfer).Deposit.Int64())
	add := plan.Actions[1].(txn.AddKey)
	fc := add.AccessKey.Permission.(txn.FunctionCall)
	assert.Nil(t, fc.Allowance)
	assert.Equal(t, []string{"a", "b"}, fc.MethodNames)
	assert.Equal(t, txn.DeleteAccount{BeneficiaryID: "carol.test"}, plan.Actions[2])
	assert.Equal(t, SigningExternal, plan.Signing.Kind)
}

func TestResolveActionsPreservesOrder(t *testing.T) {
	kinds := []string{"create-account", "transfer", "delete-access-key", "transfer", "delete-account", "create-account"}
	in := Input{Signing: &SigningInput{Strategy: strPtr("external"), Reference: strPtr("r")}}
	for _, kind := range kinds {
		entry := ActionInput{Kind: kind}
		switch kind {
		case "transfer":
			entry.Amount = strPtr("1NEAR")
		case "delete-access-key":
			entry.PublicKey = strPtr(testPublicKey)
		case "delete-account":
			entry.BeneficiaryID = strPtr("z.test")
		}
		in.Actions = append(in.Actions, entry)
	}
	actions, _, err := NewResolver(NewScript(), Networks{}, false).ResolveActions(in)
	require.NoError(t, err)
	require.Len(t, actions, len(kinds))
	want := []txn.ActionKind{txn.KindCreateAccount, txn.KindTransfer, txn.KindDeleteKey, txn.KindTransfer, txn.KindDeleteAccount, txn.KindCreateAccount}
	for i, a := range actions {
		assert.Equal(t, want[i], a.Kind(), "action %d", i)
	}
}

func TestResolveActionsElicitsAfterPrefilledWithoutSigning(t *testing.T) {
	src := NewScript("finalize", "external", "ref")
	actions, signing, err := NewResolver(src, Networks{}, false).ResolveActions(Input{
		Actions: []ActionInput{{Kind: "create-account"}},
	})
	require.NoError(t, err)
	assert.Len(t, actions, 1)
	assert.Equal(t, SigningExternal, signing.Kind)
	assert.Equal(t, "Select an action that you want to add to the action:", src.Prompts[0])
}

func TestResolveAmountFallbackWarnsOrFailsStrict(t *testing.T) {
	in := Input{
		Actions: []ActionInput{{Kind: "transfer", Amount: strPtr("lots")}},
		Signing: &SigningInput{Reference: strPtr("r")},
	}
	r := NewResolver(NewScript(), Networks{}, false)
	actions, _, err := r.ResolveActions(in)
	require.NoError(t, err)
	assert.Equal(t, 0, actions[0].(txn.Transfer).Deposit.Sign())
	require.Len(t, r.warnings, 1)
	assert.Contains(t, r.warnings[0], "using 0")

	_, _, err = NewResolver(NewScript(), Networks{}, true).ResolveActions(in)
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeInputValidation))
}

func TestResolveRejectsInvalidMenuSelection(t *testing.T) {
	_, err := NewResolver(NewScript(), Networks{}, false).ResolveMode(Input{Mode: strPtr("sideways")})
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeInputValidation))
	assert.Contains(t, err.Error(), "invalid menu selection")
}

func TestResolveRejectsBadBlockHash(t *testing.T) {
	_, err := NewResolver(NewScript(), Networks{}, false).ResolveMode(Input{
		Mode: strPtr("offline"), Nonce: strPtr("1"), BlockHash: strPtr(base58.Encode([]byte("short"))),
	})
	assert.True(t, clierr.Is(err, clierr.CodeInputValidation), "%v", err)

	_, err = NewResolver(NewScript(), Networks{}, false).ResolveMode(Input{
		Mode: strPtr("offline"), Nonce: strPtr("-1"), BlockHash: strPtr(testBlockHash),
	})
	assert.True(t, clierr.Is(err, clierr.CodeInputValidation), "%v", err)
}

func TestResolveBadPublicKeyIsKeyFormatError(t *testing.T) {
	_, _, err := NewResolver(NewScript(), Networks{}, false).ResolveActions(Input{
		Actions: []ActionInput{{Kind: "delete-access-key", PublicKey: strPtr("ed25519:nope")}},
		Signing: &SigningInput{Reference: strPtr("r")},
	})
	assert.True(t, clierr.Is(err, clierr.CodeKeyFormat), "%v", err)
}

func TestResolveModeInfersOnlineAndHonoursAllowlist(t *testing.T) {
	mode, err := NewResolver(NewScript(), Networks{RPCURLs: map[string]string{"mainnet": "https://near.example.test"}}, false).
		ResolveMode(Input{Network: strPtr("mainnet")})
	require.NoError(t, err)
	assert.Equal(t, "https://near.example.test", mode.RPCURL)

	_, err = NewResolver(NewScript(), Networks{Allowed: []string{"testnet"}}, false).
		ResolveMode(Input{Network: strPtr("mainnet")})
	assert.True(t, clierr.Is(err, clierr.CodeBlocked), "%v", err)

	src := NewScript("online", "testnet")
	_, err = NewResolver(src, Networks{Allowed: []string{"testnet"}}, false).ResolveMode(Input{})
	require.NoError(t, err)
}

func TestResolveModeNamedNetworkWithForeignURLNeedsCustom(t *testing.T) {
	testnetOnly := Networks{Allowed: []string{"testnet"}}
	in := Input{Network: strPtr("testnet"), RPCURL: strPtr("https://attacker.example/rpc")}
	_, err := NewResolver(NoInputSource{}, testnetOnly, false).ResolveMode(in)
	assert.True(t, clierr.Is(err, clierr.CodeBlocked), "%v", err)

	own := Input{Network: strPtr("testnet"), RPCURL: strPtr("https://rpc.testnet.near.org/")}
	mode, err := NewResolver(NoInputSource{}, testnetOnly, false).ResolveMode(own)
	require.NoError(t, err)
	assert.Equal(t, "testnet", mode.Network)

	withCustom := Networks{Allowed: []string{"testnet", "custom"}}
	mode, err = NewResolver(NoInputSource{}, withCustom, false).ResolveMode(in)
	require.NoError(t, err)
	assert.Equal(t, "https://attacker.example/rpc", mode.RPCURL)
}

func TestResolveModeCustomEndpoint(t *testing.T) {
	src := NewScript("http://rpc.example.test")
	r := NewResolver(src, Networks{}, false)
	mode, err := r.ResolveMode(Input{Mode: strPtr("online"), Network: strPtr("custom")})
	require.NoError(t, err)
	assert.Equal(t, "custom", mode.Network)
	assert.Equal(t, "http://rpc.example.test", mode.RPCURL)
	assert.Equal(t, []string{"What is the RPC endpoint?"}, src.Prompts)
	assert.Len(t, r.warnings, 1)
}

func TestResolvePermissionFunctionCallElicited(t *testing.T) {
	src := NewScript("function-call", "2NEAR", "app.test", "")
	perm, err := NewResolver(src, Networks{}, false).ResolvePermission(nil)
	require.NoError(t, err)
	fc := perm.(txn.FunctionCall)
	assert.Equal(t, "2000000000000000000000000", fc.Allowance.String())
	assert.Equal(t, "app.test", fc.ReceiverID)
	assert.Empty(t, fc.MethodNames)
}

func TestNoInputSourceFailsWithUsage(t *testing.T) {
	_, err := NewResolver(NoInputSource{}, Networks{}, false).ResolveSigner(Input{})
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeUsage))
	assert.Contains(t, err.Error(), "account ID of the sender")
}

func TestScriptValidatorRejectsBadAnswer(t *testing.T) {
	_, err := NewResolver(NewScript("ed25519:bad"), Networks{}, false).resolveAction(ActionDeleteAccessKey, ActionInput{})
	assert.True(t, clierr.Is(err, clierr.CodeKeyFormat), "%v", err)

	_, err = keys.ParsePublicKey(testPublicKey)
	require.NoError(t, err)
}
