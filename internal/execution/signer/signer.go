package signer

import (
	"github.com/ggonzalez94/neartx/internal/keys"
	"github.com/ggonzalez94/neartx/internal/txn"
)

// Signer signs transactions for a single access key.
type Signer interface {
	PublicKey() keys.PublicKey
	// SignTx returns the signed transaction and the digest that was signed.
	SignTx(tx txn.Transaction) (txn.SignedTransaction, [32]byte, error)
}
