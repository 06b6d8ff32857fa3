package registry

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidateRPCURL accepts absolute http(s) URLs and returns the trimmed form.
func ValidateRPCURL(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	parsed, err := url.Parse(v)
	if err != nil {
		return "", fmt.Errorf("invalid rpc url %q: %w", raw, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("rpc url %q must use http or https", raw)
	}
	if strings.TrimSpace(parsed.Hostname()) == "" {
		return "", fmt.Errorf("rpc url %q has no host", raw)
	}
	return v, nil
}

// IsInsecureRPCURL reports plain-http endpoints that are not loopback.
func IsInsecureRPCURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if !strings.EqualFold(parsed.Scheme, "http") {
		return false
	}
	return !isLoopbackHost(parsed.Hostname())
}

func isLoopbackHost(host string) bool {
	h := strings.TrimSpace(strings.ToLower(host))
	if h == "localhost" {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
