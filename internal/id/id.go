package id

import (
	"strings"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
)

// NormalizeAccountID trims an account identifier. Existence and naming rules
// are left to the network.
func NormalizeAccountID(input string) (string, error) {
	v := strings.TrimSpace(input)
	if v == "" {
		return "", clierr.New(clierr.CodeInputValidation, "account id must not be empty")
	}
	return v, nil
}

// ParseMethodNames splits a comma-separated method list into an ordered set.
// An empty list means any method.
func ParseMethodNames(input string) []string {
	return NormalizeMethodNames(strings.Split(input, ","))
}

func NormalizeMethodNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		v := strings.TrimSpace(name)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
