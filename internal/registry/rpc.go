package registry

import (
	"fmt"
	"sort"
	"strings"
)

// Network describes a well-known NEAR network.
type Network struct {
	Name        string
	RPCURL      string
	ExplorerURL string
}

// CustomNetwork is the name used for caller-supplied endpoints.
const CustomNetwork = "custom"

// Canonical public endpoints. These are used whenever neither config nor
// --rpc-url overrides them.
var defaultNetworks = map[string]Network{
	"testnet": {
		Name:        "testnet",
		RPCURL:      "https://rpc.testnet.near.org",
		ExplorerURL: "https://explorer.testnet.near.org",
	},
	"mainnet": {
		Name:        "mainnet",
		RPCURL:      "https://rpc.mainnet.near.org",
		ExplorerURL: "https://explorer.mainnet.near.org",
	},
	"betanet": {
		Name:        "betanet",
		RPCURL:      "https://rpc.betanet.near.org",
		ExplorerURL: "https://explorer.betanet.near.org",
	},
}

// NetworkOrder is the order networks are offered in menus.
var NetworkOrder = []string{"testnet", "mainnet", "betanet"}

func DefaultNetwork(name string) (Network, bool) {
	n, ok := defaultNetworks[strings.ToLower(strings.TrimSpace(name))]
	return n, ok
}

func NetworkNames() []string {
	names := make([]string, 0, len(defaultNetworks))
	for name := range defaultNetworks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveRPCURL picks the endpoint for a network: explicit override first,
// then configured URLs, then the built-in default.
func ResolveRPCURL(override, network string, configured map[string]string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return ValidateRPCURL(override)
	}
	name := strings.ToLower(strings.TrimSpace(network))
	if v := strings.TrimSpace(configured[name]); v != "" {
		return ValidateRPCURL(v)
	}
	if n, ok := DefaultNetwork(name); ok {
		return n.RPCURL, nil
	}
	return "", fmt.Errorf("no default rpc configured for network %q; provide --rpc-url", network)
}

// ExplorerTxURL returns the explorer link for a transaction hash, or "" for
// custom networks.
func ExplorerTxURL(network, hash string) string {
	n, ok := DefaultNetwork(network)
	if !ok || strings.TrimSpace(hash) == "" {
		return ""
	}
	return n.ExplorerURL + "/transactions/" + hash
}

// IsNetworkRPCURL reports whether raw is the endpoint the named network would
// use anyway (configured or built-in). Scheme and host compare case-insensitively
// and a trailing slash is ignored.
func IsNetworkRPCURL(network, raw string, configured map[string]string) bool {
	own, err := ResolveRPCURL("", network, configured)
	if err != nil {
		return false
	}
	return sameURL(own, raw)
}

func sameURL(a, b string) bool {
	norm := func(v string) string {
		return strings.ToLower(strings.TrimRight(strings.TrimSpace(v), "/"))
	}
	return norm(a) != "" && norm(a) == norm(b)
}
