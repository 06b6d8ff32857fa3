// Package keys parses NEAR key text ("ed25519:<base58>", "secp256k1:<base58>")
// and signs and verifies message digests with either curve.
package keys

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
)

// KeyType is the Borsh discriminant of a key or signature.
type KeyType uint8

const (
	ED25519   KeyType = 0
	SECP256K1 KeyType = 1
)

const (
	ed25519PublicKeyLen   = ed25519.PublicKeySize
	ed25519SecretKeyLen   = ed25519.PrivateKeySize
	ed25519SeedLen        = ed25519.SeedSize
	ed25519SignatureLen   = ed25519.SignatureSize
	secp256k1PublicKeyLen = 64
	secp256k1SecretKeyLen = 32
	secp256k1SignatureLen = 65
)

func (t KeyType) String() string {
	switch t {
	case ED25519:
		return "ed25519"
	case SECP256K1:
		return "secp256k1"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

func parseKeyType(v string) (KeyType, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "ed25519":
		return ED25519, nil
	case "secp256k1":
		return SECP256K1, nil
	default:
		return 0, fmt.Errorf("unsupported key type %q", v)
	}
}

// splitKeyText separates "type:base58". Text without a prefix is read as ed25519.
func splitKeyText(input string) (KeyType, []byte, error) {
	v := strings.TrimSpace(input)
	if v == "" {
		return 0, nil, fmt.Errorf("empty key")
	}
	keyType := ED25519
	data := v
	if idx := strings.Index(v, ":"); idx >= 0 {
		t, err := parseKeyType(v[:idx])
		if err != nil {
			return 0, nil, err
		}
		keyType = t
		data = v[idx+1:]
	}
	raw, err := base58.Decode(data)
	if err != nil {
		return 0, nil, fmt.Errorf("decode base58: %w", err)
	}
	return keyType, raw, nil
}

// PublicKey is a typed public key.
type PublicKey struct {
	Type KeyType
	Data []byte
}

// EmptyPublicKey is the all-zero ed25519 placeholder used before signing.
func EmptyPublicKey() PublicKey {
	return PublicKey{Type: ED25519, Data: make([]byte, ed25519PublicKeyLen)}
}

func ParsePublicKey(input string) (PublicKey, error) {
	keyType, raw, err := splitKeyText(input)
	if err != nil {
		return PublicKey{}, clierr.Wrap(clierr.CodeKeyFormat, fmt.Sprintf("parse public key %q", input), err)
	}
	want := ed25519PublicKeyLen
	if keyType == SECP256K1 {
		want = secp256k1PublicKeyLen
	}
	if len(raw) != want {
		return PublicKey{}, clierr.New(clierr.CodeKeyFormat, fmt.Sprintf("%s public key must be %d bytes, got %d", keyType, want, len(raw)))
	}
	return PublicKey{Type: keyType, Data: raw}, nil
}

func (k PublicKey) String() string {
	return k.Type.String() + ":" + base58.Encode(k.Data)
}

func (k PublicKey) Equal(other PublicKey) bool {
	return k.Type == other.Type && string(k.Data) == string(other.Data)
}

// Verify checks a signature over a message digest.
func (k PublicKey) Verify(digest []byte, sig Signature) bool {
	if sig.Type != k.Type {
		return false
	}
	switch k.Type {
	case ED25519:
		return len(k.Data) == ed25519PublicKeyLen && ed25519.Verify(ed25519.PublicKey(k.Data), digest, sig.Data)
	case SECP256K1:
		if len(sig.Data) != secp256k1SignatureLen {
			return false
		}
		uncompressed := append([]byte{0x04}, k.Data...)
		return crypto.VerifySignature(uncompressed, digest, sig.Data[:64])
	default:
		return false
	}
}

// Signature is a typed signature.
type Signature struct {
	Type KeyType
	Data []byte
}

func (s Signature) String() string {
	return s.Type.String() + ":" + base58.Encode(s.Data)
}

// SecretKey is a typed secret key.
type SecretKey struct {
	Type KeyType
	Data []byte
}

// ParseSecretKey accepts a 64-byte ed25519 key (or its 32-byte seed) or a
// 32-byte secp256k1 scalar.
func ParseSecretKey(input string) (SecretKey, error) {
	keyType, raw, err := splitKeyText(input)
	if err != nil {
		return SecretKey{}, clierr.Wrap(clierr.CodeKeyFormat, "parse secret key", err)
	}
	switch keyType {
	case ED25519:
		switch len(raw) {
		case ed25519SecretKeyLen:
			return SecretKey{Type: ED25519, Data: raw}, nil
		case ed25519SeedLen:
			return SecretKey{Type: ED25519, Data: ed25519.NewKeyFromSeed(raw)}, nil
		}
		return SecretKey{}, clierr.New(clierr.CodeKeyFormat, fmt.Sprintf("ed25519 secret key must be %d or %d bytes, got %d", ed25519SecretKeyLen, ed25519SeedLen, len(raw)))
	case SECP256K1:
		if len(raw) != secp256k1SecretKeyLen {
			return SecretKey{}, clierr.New(clierr.CodeKeyFormat, fmt.Sprintf("secp256k1 secret key must be %d bytes, got %d", secp256k1SecretKeyLen, len(raw)))
		}
		if _, err := crypto.ToECDSA(raw); err != nil {
			return SecretKey{}, clierr.Wrap(clierr.CodeKeyFormat, "parse secp256k1 secret key", err)
		}
		return SecretKey{Type: SECP256K1, Data: raw}, nil
	}
	return SecretKey{}, clierr.New(clierr.CodeKeyFormat, fmt.Sprintf("unsupported key type %s", keyType))
}

func (k SecretKey) String() string {
	return k.Type.String() + ":" + base58.Encode(k.Data)
}

func (k SecretKey) PublicKey() (PublicKey, error) {
	switch k.Type {
	case ED25519:
		pub := ed25519.PrivateKey(k.Data).Public().(ed25519.PublicKey)
		return PublicKey{Type: ED25519, Data: []byte(pub)}, nil
	case SECP256K1:
		priv, err := crypto.ToECDSA(k.Data)
		if err != nil {
			return PublicKey{}, clierr.Wrap(clierr.CodeKeyFormat, "derive secp256k1 public key", err)
		}
		return PublicKey{Type: SECP256K1, Data: crypto.FromECDSAPub(&priv.PublicKey)[1:]}, nil
	}
	return PublicKey{}, clierr.New(clierr.CodeKeyFormat, fmt.Sprintf("unsupported key type %s", k.Type))
}

// Sign signs a 32-byte message digest.
func (k SecretKey) Sign(digest []byte) (Signature, error) {
	switch k.Type {
	case ED25519:
		return Signature{Type: ED25519, Data: ed25519.Sign(ed25519.PrivateKey(k.Data), digest)}, nil
	case SECP256K1:
		priv, err := crypto.ToECDSA(k.Data)
		if err != nil {
			return Signature{}, clierr.Wrap(clierr.CodeKeyFormat, "load secp256k1 secret key", err)
		}
		sig, err := crypto.Sign(digest, priv)
		if err != nil {
			return Signature{}, clierr.Wrap(clierr.CodeSerialization, "sign digest", err)
		}
		return Signature{Type: SECP256K1, Data: sig}, nil
	}
	return Signature{}, clierr.New(clierr.CodeKeyFormat, fmt.Sprintf("unsupported key type %s", k.Type))
}
