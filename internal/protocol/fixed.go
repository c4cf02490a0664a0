// internal/protocol/fixed.go
package protocol

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EncodeFixed renders the magnitude of d with the given number of implied
// decimals and no decimal point: 1.55 with 2 decimals becomes "155".
func EncodeFixed(d decimal.Decimal, decimals int32) string {
	return strings.Replace(d.Abs().StringFixed(decimals), ".", "", 1)
}

// DecodeFixed reads a digit string whose last decimals digits are implied
// decimals: "8000" with 2 decimals is 80.00.
func DecodeFixed(s string, decimals int32) (decimal.Decimal, error) {
	digits := strings.TrimSpace(s)
	if digits == "" {
		return decimal.Zero, fmt.Errorf("%w: empty number", ErrMalformedFrame)
	}
	for i, r := range digits {
		if r == '-' && i == 0 {
			continue
		}
		if r < '0' || r > '9' {
			return decimal.Zero, fmt.Errorf("%w: invalid number %q", ErrMalformedFrame, s)
		}
	}

	value, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid number %q", ErrMalformedFrame, s)
	}

	return value.Shift(-decimals), nil
}
