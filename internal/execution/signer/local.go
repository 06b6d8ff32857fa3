package signer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/keys"
	"github.com/ggonzalez94/neartx/internal/txn"
)

const (
	EnvSecretKey       = "NEARTX_SECRET_KEY"
	EnvCredentialsFile = "NEARTX_CREDENTIALS_FILE"

	defaultCredentialsDir = ".near-credentials"
)

type LocalSigner struct {
	secret keys.SecretKey
	public keys.PublicKey
}

func (s *LocalSigner) PublicKey() keys.PublicKey {
	return s.public
}

func (s *LocalSigner) SignTx(tx txn.Transaction) (txn.SignedTransaction, [32]byte, error) {
	if s == nil || len(s.secret.Data) == 0 {
		return txn.SignedTransaction{}, [32]byte{}, clierr.New(clierr.CodeInternal, "local signer is not initialized")
	}
	if !tx.PublicKey.Equal(s.public) {
		return txn.SignedTransaction{}, [32]byte{}, clierr.New(clierr.CodeKeyFormat, fmt.Sprintf("transaction public key %s does not belong to this signer", tx.PublicKey))
	}
	return txn.Sign(tx, s.secret)
}

// NewLocalSigner parses a key pair from text. An empty publicKey is derived
// from the secret; a non-empty one must match it.
func NewLocalSigner(publicKey, secretKey string) (*LocalSigner, error) {
	secret, err := keys.ParseSecretKey(secretKey)
	if err != nil {
		return nil, err
	}
	derived, err := secret.PublicKey()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(publicKey) != "" {
		pub, err := keys.ParsePublicKey(publicKey)
		if err != nil {
			return nil, err
		}
		if !pub.Equal(derived) {
			return nil, clierr.New(clierr.CodeKeyFormat, fmt.Sprintf("public key %s does not match the secret key (derived %s)", pub, derived))
		}
	}
	return &LocalSigner{secret: secret, public: derived}, nil
}

// Credentials is the JSON key file written by NEAR tooling under
// ~/.near-credentials/<network>/<account>.json.
type Credentials struct {
	AccountID  string `json:"account_id"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
	SecretKey  string `json:"secret_key"`
}

func (c Credentials) Secret() string {
	if strings.TrimSpace(c.PrivateKey) != "" {
		return strings.TrimSpace(c.PrivateKey)
	}
	return strings.TrimSpace(c.SecretKey)
}

func LoadCredentialsFile(path string) (Credentials, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, clierr.Wrap(clierr.CodeKeyFormat, "read credentials file", err)
	}
	var creds Credentials
	if err := json.Unmarshal(buf, &creds); err != nil {
		return Credentials{}, clierr.Wrap(clierr.CodeKeyFormat, "decode credentials file", err)
	}
	if creds.Secret() == "" {
		return Credentials{}, clierr.New(clierr.CodeKeyFormat, fmt.Sprintf("credentials file %s has no private_key", path))
	}
	return creds, nil
}

// DefaultCredentialsPath returns ~/.near-credentials/<network>/<account>.json.
func DefaultCredentialsPath(network, accountID string) string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(network) == "" || strings.TrimSpace(accountID) == "" {
		return ""
	}
	return filepath.Join(home, defaultCredentialsDir, network, accountID+".json")
}

// KeySources lists where embedded key material may come from, in precedence
// order: explicit secret, credentials file, NEARTX_SECRET_KEY, then the
// default credentials file for Network and AccountID.
type KeySources struct {
	PublicKey       string
	SecretKey       string
	CredentialsFile string
	Network         string
	AccountID       string
}

type KeyMaterial struct {
	PublicKey string
	SecretKey string
	Source    string
}

// LoadKeyMaterial returns the first configured key pair. ok is false when no
// source supplies a secret key.
func LoadKeyMaterial(src KeySources) (KeyMaterial, bool, error) {
	material := KeyMaterial{PublicKey: strings.TrimSpace(src.PublicKey)}
	credentialsFile := strings.TrimSpace(src.CredentialsFile)
	if credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv(EnvCredentialsFile))
	}

	switch {
	case strings.TrimSpace(src.SecretKey) != "":
		material.SecretKey = strings.TrimSpace(src.SecretKey)
		material.Source = "flag"
	case credentialsFile != "":
		creds, err := LoadCredentialsFile(credentialsFile)
		if err != nil {
			return KeyMaterial{}, false, err
		}
		material.SecretKey = creds.Secret()
		if material.PublicKey == "" {
			material.PublicKey = creds.PublicKey
		}
		material.Source = "credentials_file"
	case strings.TrimSpace(os.Getenv(EnvSecretKey)) != "":
		material.SecretKey = strings.TrimSpace(os.Getenv(EnvSecretKey))
		material.Source = "env"
	default:
		path := DefaultCredentialsPath(src.Network, src.AccountID)
		if path == "" {
			return KeyMaterial{}, false, nil
		}
		creds, err := LoadCredentialsFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return KeyMaterial{}, false, nil
			}
			return KeyMaterial{}, false, err
		}
		material.SecretKey = creds.Secret()
		if material.PublicKey == "" {
			material.PublicKey = creds.PublicKey
		}
		material.Source = "credentials_dir"
	}

	if material.PublicKey == "" {
		secret, err := keys.ParseSecretKey(material.SecretKey)
		if err != nil {
			return KeyMaterial{}, false, err
		}
		pub, err := secret.PublicKey()
		if err != nil {
			return KeyMaterial{}, false, err
		}
		material.PublicKey = pub.String()
	}
	return material, true, nil
}
