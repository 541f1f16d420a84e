package utils

import (
	"math/big"
	"strings"
)

// FormatUnits converts a raw integer amount into a human-readable decimal string
// using the given number of fractional digits.
// Example: amount=1234500000, decimals=9 => "1.2345"
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}

	negative := amount.Sign() < 0
	digits := new(big.Int).Abs(amount).String()

	// Left-pad so there is at least one digit before the decimal point.
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}

	whole := digits[:len(digits)-decimals]
	fraction := strings.TrimRight(digits[len(digits)-decimals:], "0")

	formatted := whole
	if fraction != "" {
		formatted += "." + fraction
	}
	if negative && formatted != "0" {
		formatted = "-" + formatted
	}
	return formatted
}
