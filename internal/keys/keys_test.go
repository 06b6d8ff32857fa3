package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
)

func testED25519Pair(t *testing.T) (PublicKey, SecretKey) {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	sk, err := ParseSecretKey("ed25519:" + base58.Encode(ed25519.NewKeyFromSeed(seed)))
	require.NoError(t, err)
	pk, err := sk.PublicKey()
	require.NoError(t, err)
	return pk, sk
}

func TestParsePublicKeyRoundTrip(t *testing.T) {
	pk, _ := testED25519Pair(t)
	parsed, err := ParsePublicKey(pk.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(pk))

	unprefixed, err := ParsePublicKey(base58.Encode(pk.Data))
	require.NoError(t, err)
	assert.Equal(t, ED25519, unprefixed.Type)
}

func TestParsePublicKeyRejectsBadInput(t *testing.T) {
	cases := []string{
		"",
		"ed25519:0OIl",
		"ed25519:" + base58.Encode([]byte{1, 2, 3}),
		"rsa:" + base58.Encode(make([]byte, 32)),
		"secp256k1:" + base58.Encode(make([]byte, 32)),
	}
	for _, input := range cases {
		_, err := ParsePublicKey(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, clierr.Is(err, clierr.CodeKeyFormat), "input %q: %v", input, err)
	}
}

func TestParseSecretKeyAcceptsSeed(t *testing.T) {
	pk, sk := testED25519Pair(t)
	fromSeed, err := ParseSecretKey("ed25519:" + base58.Encode(sk.Data[:ed25519.SeedSize]))
	require.NoError(t, err)
	derived, err := fromSeed.PublicKey()
	require.NoError(t, err)
	assert.True(t, derived.Equal(pk))
}

func TestED25519SignVerify(t *testing.T) {
	pk, sk := testED25519Pair(t)
	digest := sha256.Sum256([]byte("transfer"))
	sig, err := sk.Sign(digest[:])
	require.NoError(t, err)
	assert.Len(t, sig.Data, 64)
	assert.True(t, pk.Verify(digest[:], sig))

	other := sha256.Sum256([]byte("other"))
	assert.False(t, pk.Verify(other[:], sig))
}

func TestSECP256K1SignVerify(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	sk, err := ParseSecretKey("secp256k1:" + base58.Encode(crypto.FromECDSA(priv)))
	require.NoError(t, err)
	pk, err := sk.PublicKey()
	require.NoError(t, err)
	assert.Len(t, pk.Data, 64)

	parsed, err := ParsePublicKey(pk.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(pk))

	digest := sha256.Sum256([]byte("delete key"))
	sig, err := sk.Sign(digest[:])
	require.NoError(t, err)
	assert.Len(t, sig.Data, 65)
	assert.True(t, pk.Verify(digest[:], sig))
}

func TestEmptyPublicKey(t *testing.T) {
	empty := EmptyPublicKey()
	assert.Equal(t, "ed25519:11111111111111111111111111111111", empty.String())
}
