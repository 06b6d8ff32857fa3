package policy

import (
	"fmt"
	"strings"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/registry"
)

func CheckCommandAllowed(allowlist []string, commandPath string) error {
	if len(allowlist) == 0 {
		return nil
	}
	normPath := normalize(commandPath)
	for _, allowed := range allowlist {
		if normalize(allowed) == normPath {
			return nil
		}
	}
	return clierr.New(clierr.CodeBlocked, "command blocked by --enable-commands policy")
}

// CheckNetworkAllowed enforces the networks.allowed config list. Caller
// supplied endpoints are matched by the name "custom".
func CheckNetworkAllowed(allowlist []string, network string) error {
	if len(allowlist) == 0 {
		return nil
	}
	name := normalize(network)
	for _, allowed := range allowlist {
		if normalize(allowed) == name {
			return nil
		}
	}
	return clierr.New(clierr.CodeBlocked, fmt.Sprintf("network %q blocked by networks.allowed policy", network))
}

// CheckEndpointAllowed checks the network name and, when rpcURL is not that
// network's own endpoint, also requires "custom" to be allowed.
func CheckEndpointAllowed(allowlist []string, network, rpcURL string, configured map[string]string) error {
	if err := CheckNetworkAllowed(allowlist, network); err != nil {
		return err
	}
	if strings.TrimSpace(rpcURL) == "" || registry.IsNetworkRPCURL(network, rpcURL, configured) {
		return nil
	}
	if !NetworkAllowed(allowlist, registry.CustomNetwork) {
		return clierr.New(clierr.CodeBlocked, fmt.Sprintf("rpc url %s is not the %s endpoint and network %q is blocked by networks.allowed policy", strings.TrimSpace(rpcURL), network, registry.CustomNetwork))
	}
	return nil
}

// NetworkAllowed is CheckNetworkAllowed as a predicate, used to filter menus.
func NetworkAllowed(allowlist []string, network string) bool {
	return CheckNetworkAllowed(allowlist, network) == nil
}

func normalize(v string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(v)))
	return strings.Join(parts, " ")
}
