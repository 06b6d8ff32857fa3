package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/policy"
	"github.com/ggonzalez94/neartx/internal/registry"
)

const modePrompt = "To construct a transaction you will need to provide information about sender (signer) and receiver accounts, and actions that needs to be performed. Do you want to derive some information required for transaction construction automatically querying it online?"

var modeOptions = []Option{
	{Key: string(ModeOnline), Label: "Yes, I keep it simple"},
	{Key: string(ModeOffline), Label: "No, I want to work in no-network (air-gapped) environment"},
}

var networkLabels = map[string]string{
	"testnet": "Testnet",
	"mainnet": "Mainnet",
	"betanet": "Betanet",
}

// ResolveMode picks online (with an endpoint) or offline (with nonce and
// block hash supplied now).
func (r *Resolver) ResolveMode(in Input) (Mode, error) {
	kind, err := choose(r.src, inferMode(in), modePrompt, modeOptions)
	if err != nil {
		return Mode{}, err
	}
	if ModeKind(kind) == ModeOffline {
		return r.resolveOffline(in)
	}
	return r.resolveOnline(in)
}

// inferMode treats endpoint fields as online and nonce/block hash as offline
// when the mode itself was not given.
func inferMode(in Input) *string {
	if in.Mode != nil {
		return in.Mode
	}
	online := in.Network != nil || in.RPCURL != nil
	offline := in.Nonce != nil || in.BlockHash != nil
	switch {
	case online && !offline:
		return strPtr(string(ModeOnline))
	case offline && !online:
		return strPtr(string(ModeOffline))
	}
	return nil
}

func (r *Resolver) networkOptions() []Option {
	opts := make([]Option, 0, len(registry.NetworkOrder)+1)
	for _, name := range registry.NetworkOrder {
		if policy.NetworkAllowed(r.networks.Allowed, name) {
			opts = append(opts, Option{Key: name, Label: networkLabels[name]})
		}
	}
	if policy.NetworkAllowed(r.networks.Allowed, registry.CustomNetwork) {
		opts = append(opts, Option{Key: registry.CustomNetwork, Label: "Custom RPC endpoint"})
	}
	return opts
}

func (r *Resolver) resolveOnline(in Input) (Mode, error) {
	network := in.Network
	if network == nil && in.RPCURL != nil {
		network = strPtr(registry.CustomNetwork)
	}
	if network != nil {
		if err := policy.CheckNetworkAllowed(r.networks.Allowed, *network); err != nil {
			return Mode{}, err
		}
	}
	options := r.networkOptions()
	if len(options) == 0 {
		return Mode{}, clierr.New(clierr.CodeBlocked, "no network is allowed by networks.allowed policy")
	}
	name, err := choose(r.src, network, "Select NEAR protocol RPC server:", options)
	if err != nil {
		return Mode{}, err
	}

	var url string
	if name == registry.CustomNetwork || in.RPCURL != nil {
		url, err = field(r.src, in.RPCURL, "What is the RPC endpoint?", parseRPCURL)
	} else {
		url, err = registry.ResolveRPCURL("", name, r.networks.RPCURLs)
		if err != nil {
			err = clierr.Wrap(clierr.CodeInputValidation, "resolve rpc endpoint", err)
		}
	}
	if err != nil {
		return Mode{}, err
	}
	if in.RPCURL != nil {
		if err := policy.CheckEndpointAllowed(r.networks.Allowed, name, url, r.networks.RPCURLs); err != nil {
			return Mode{}, err
		}
	}
	if registry.IsInsecureRPCURL(url) {
		r.warn(fmt.Sprintf("rpc endpoint %s is not using https", url))
	}
	return Mode{Kind: ModeOnline, Network: name, RPCURL: url}, nil
}

func (r *Resolver) resolveOffline(in Input) (Mode, error) {
	nonce, err := field(r.src, in.Nonce, "Enter the nonce for this transaction (access key nonce + 1)", parseNonce)
	if err != nil {
		return Mode{}, err
	}
	hash, err := field(r.src, in.BlockHash, "Enter a recent block hash (base58)", ParseBlockHash)
	if err != nil {
		return Mode{}, err
	}
	return Mode{Kind: ModeOffline, Nonce: nonce, BlockHash: hash}, nil
}

func parseRPCURL(v string) (string, error) {
	url, err := registry.ValidateRPCURL(v)
	if err != nil {
		return "", invalid("rpc endpoint", err)
	}
	return url, nil
}

func parseNonce(v string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, invalid("nonce", fmt.Errorf("%q is not an unsigned 64-bit integer", v))
	}
	return n, nil
}

// ParseBlockHash decodes a base58 block hash of exactly 32 bytes.
func ParseBlockHash(v string) ([32]byte, error) {
	var hash [32]byte
	raw, err := base58.Decode(strings.TrimSpace(v))
	if err != nil {
		return hash, invalid("block hash", err)
	}
	if len(raw) != len(hash) {
		return hash, invalid("block hash", fmt.Errorf("decoded to %d bytes, want %d", len(raw), len(hash)))
	}
	copy(hash[:], raw)
	return hash, nil
}
