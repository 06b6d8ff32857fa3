package resolve

import "github.com/ggonzalez94/neartx/internal/txn"

type ModeKind string

const (
	ModeOnline  ModeKind = "online"
	ModeOffline ModeKind = "offline"
)

// Mode says where the nonce and block hash come from. Online fetches them
// from RPCURL at execution; Offline carries them and makes no network calls.
type Mode struct {
	Kind      ModeKind
	Network   string
	RPCURL    string
	Nonce     uint64
	BlockHash [32]byte
}

type SigningKind string

const (
	SigningEmbedded SigningKind = "embedded"
	SigningExternal SigningKind = "external"
)

// SigningStrategy is the terminal choice of the action chain. Key text is
// parsed only at execution.
type SigningStrategy struct {
	Kind      SigningKind
	PublicKey string
	SecretKey string
	Reference string
}

// Plan is a fully resolved transaction description.
type Plan struct {
	Mode       Mode
	SignerID   string
	ReceiverID string
	Actions    []txn.Action
	Signing    SigningStrategy
	Warnings   []string
}
