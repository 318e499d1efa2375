package utils

import (
	"fmt"
	"math/big"
	"strings"
)

/**
 * Scale a decimal amount to its integer base units
 * @param {string} amount - Decimal amount, e.g. "2000000000" or "1.5"
 * @param {int} decimals - Number of decimals of the unit, e.g. 18
 * @returns {*big.Int} amount * 10^decimals
 * @returns {error} Malformed amount, negative decimals or more fractional digits than decimals
 * @example
 * v, _ := ParseUnits("2000000000", 18) // 2000000000000000000000000000
 */
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("negative decimals %d", decimals)
	}
	s := strings.ReplaceAll(strings.TrimSpace(amount), "_", "")
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimals", amount, decimals)
	}
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid amount %q", amount)
		}
	}
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}
