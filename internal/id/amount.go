package id

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
)

// NEARDecimals is the number of base-unit (yoctoNEAR) digits in one NEAR.
const NEARDecimals = 24

const nearSuffix = "NEAR"

var (
	yoctoPerNEAR = new(big.Int).Exp(big.NewInt(10), big.NewInt(NEARDecimals), nil)
	maxU128      = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// Balance is the result of parsing an amount string.
type Balance struct {
	BaseUnits *big.Int
	// Fallback is set when the input was neither an integer nor NEAR-suffixed
	// and was therefore read as zero.
	Fallback bool
}

// ParseNearBalance reads "500" as 500 base units and "10NEAR" as 10*10^24 base
// units. Text that is neither resolves to zero with Fallback set.
func ParseNearBalance(input string) (Balance, error) {
	clean := strings.TrimSpace(input)
	if n, ok := parseUnsigned(clean); ok {
		if n.Cmp(maxU128) > 0 {
			return Balance{}, clierr.New(clierr.CodeInputValidation, fmt.Sprintf("amount %q exceeds u128", input))
		}
		return Balance{BaseUnits: n}, nil
	}
	if !strings.Contains(clean, nearSuffix) {
		return Balance{BaseUnits: new(big.Int), Fallback: true}, nil
	}
	digits := strings.TrimSpace(strings.TrimFunc(clean, unicode.IsLetter))
	n, ok := parseUnsigned(digits)
	if !ok {
		return Balance{}, clierr.New(clierr.CodeInputValidation, fmt.Sprintf("amount %q must be an integer followed by NEAR (example: 10NEAR)", input))
	}
	n.Mul(n, yoctoPerNEAR)
	if n.Cmp(maxU128) > 0 {
		return Balance{}, clierr.New(clierr.CodeInputValidation, fmt.Sprintf("amount %q exceeds u128", input))
	}
	return Balance{BaseUnits: n}, nil
}

// ParseNearBalanceStrict rejects input that ParseNearBalance would read as zero.
func ParseNearBalanceStrict(input string) (*big.Int, error) {
	bal, err := ParseNearBalance(input)
	if err != nil {
		return nil, err
	}
	if bal.Fallback {
		return nil, clierr.New(clierr.CodeInputValidation, fmt.Sprintf("amount %q is neither base units nor NEAR (example: 10NEAR)", input))
	}
	return bal.BaseUnits, nil
}

// parseUnsigned accepts decimal digits with one optional leading '+'.
func parseUnsigned(v string) (*big.Int, bool) {
	v = strings.TrimPrefix(v, "+")
	if v == "" {
		return nil, false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return nil, false
		}
	}
	n, ok := new(big.Int).SetString(v, 10)
	return n, ok
}

// FormatNEAR renders base units as a decimal NEAR string.
func FormatNEAR(baseUnits *big.Int) string {
	if baseUnits == nil {
		return "0"
	}
	return formatDecimal(baseUnits.String(), NEARDecimals)
}

func formatDecimal(baseUnits string, decimals int) string {
	n := new(big.Int)
	n.SetString(baseUnits, 10)
	if decimals == 0 {
		return n.String()
	}

	s := n.String()
	if len(s) <= decimals {
		pad := strings.Repeat("0", decimals-len(s)+1)
		s = pad + s
	}
	intPart := s[:len(s)-decimals]
	fracPart := s[len(s)-decimals:]
	fracPart = strings.TrimRight(fracPart, "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}
