package utils

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision steps of the ledger: share quantities carry four fractional
// digits, cash two. Values are always truncated toward zero, never rounded,
// so the ledger can't fabricate fractions of a cent.
const (
	SharePrecision = 4
	CashPrecision  = 2
)

var ErrInvalidDecimal = errors.New("invalid decimal")

func QuantizeShares(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(SharePrecision)
}

func QuantizeCash(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(CashPrecision)
}

// ParseDecimal converts user input to a decimal without ever panicking or
// letting a parse error escape as anything but ErrInvalidDecimal.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidDecimal
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidDecimal
	}
	return d, nil
}
