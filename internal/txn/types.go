package txn

import (
	"math/big"

	"github.com/ggonzalez94/neartx/internal/keys"
)

type ActionKind string

const (
	KindCreateAccount ActionKind = "CreateAccount"
	KindTransfer      ActionKind = "Transfer"
	KindAddKey        ActionKind = "AddKey"
	KindDeleteKey     ActionKind = "DeleteKey"
	KindDeleteAccount ActionKind = "DeleteAccount"
)

// Action is one step of a transaction. Implementations are the structs below.
type Action interface {
	Kind() ActionKind
	encode(*encoder)
	view() ActionView
}

type CreateAccount struct{}

type Transfer struct {
	Deposit *big.Int
}

type AddKey struct {
	PublicKey keys.PublicKey
	AccessKey AccessKey
}

type DeleteKey struct {
	PublicKey keys.PublicKey
}

type DeleteAccount struct {
	BeneficiaryID string
}

func (CreateAccount) Kind() ActionKind { return KindCreateAccount }
func (Transfer) Kind() ActionKind      { return KindTransfer }
func (AddKey) Kind() ActionKind        { return KindAddKey }
func (DeleteKey) Kind() ActionKind     { return KindDeleteKey }
func (DeleteAccount) Kind() ActionKind { return KindDeleteAccount }

type AccessKey struct {
	Nonce      uint64
	Permission Permission
}

// Permission is FullAccess or FunctionCall.
type Permission interface {
	isPermission()
}

type FullAccess struct{}

// FunctionCall limits a key to calls on ReceiverID. A nil Allowance is
// unlimited and an empty MethodNames allows any method.
type FunctionCall struct {
	Allowance   *big.Int
	ReceiverID  string
	MethodNames []string
}

func (FullAccess) isPermission()   {}
func (FunctionCall) isPermission() {}

// Transaction is the unsigned transaction accumulated by the executor.
type Transaction struct {
	SignerID   string
	PublicKey  keys.PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []Action
}

// New returns an empty transaction carrying the placeholder public key.
func New(signerID, receiverID string, nonce uint64, blockHash [32]byte) Transaction {
	return Transaction{
		SignerID:   signerID,
		PublicKey:  keys.EmptyPublicKey(),
		Nonce:      nonce,
		ReceiverID: receiverID,
		BlockHash:  blockHash,
	}
}

// WithAction returns a copy of t with a appended. t is not modified.
func (t Transaction) WithAction(a Action) Transaction {
	next := t
	next.Actions = make([]Action, len(t.Actions), len(t.Actions)+1)
	copy(next.Actions, t.Actions)
	next.Actions = append(next.Actions, a)
	return next
}

// WithPublicKey returns a copy of t signed for pk.
func (t Transaction) WithPublicKey(pk keys.PublicKey) Transaction {
	next := t
	next.PublicKey = pk
	return next
}

type SignedTransaction struct {
	Transaction Transaction
	Signature   keys.Signature
}
