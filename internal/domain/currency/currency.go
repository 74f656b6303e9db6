// Package currency defines the supported payment currencies and the fixed-rate
// conversion used for cross-currency pricing. All amounts are integer minor
// units (cents); conversion truncates toward zero.
package currency

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Currency is a lowercase ISO 4217 code.
type Currency string

const (
	USD Currency = "usd"
	EUR Currency = "eur"
)

// ErrUnsupported is returned by Parse for codes outside the supported set.
var ErrUnsupported = errors.New("unsupported currency")

// eurToUSDRate is the fixed EUR→USD exchange rate. Rates are not fetched
// live; the inverse direction divides by the same constant.
var eurToUSDRate = decimal.RequireFromString("1.1")

// Parse converts a currency code into a Currency. Matching is
// case-insensitive.
func Parse(s string) (Currency, error) {
	switch strings.ToLower(s) {
	case string(USD):
		return USD, nil
	case string(EUR):
		return EUR, nil
	default:
		return "", errors.Wrapf(ErrUnsupported, "%q", s)
	}
}

func (c Currency) String() string { return string(c) }

// Symbol returns the display symbol for the currency.
func (c Currency) Symbol() string {
	if c == EUR {
		return "€"
	}
	return "$"
}

// Format renders an amount of minor units as a display string,
// e.g. Format(5400) on USD yields "$54.00".
func (c Currency) Format(amount int64) string {
	return c.Symbol() + decimal.New(amount, -2).StringFixed(2)
}

// Convert translates an integer minor-unit amount between currencies at the
// fixed rate, truncating toward zero. Same-currency conversion is the
// identity. Unrecognized pairs fall through and return the amount unchanged
// rather than failing; callers are expected to pass validated currencies.
func Convert(amount int64, from, to Currency) int64 {
	if from == to {
		return amount
	}

	d := decimal.NewFromInt(amount)
	switch {
	case from == EUR && to == USD:
		return d.Mul(eurToUSDRate).Floor().IntPart()
	case from == USD && to == EUR:
		return d.Div(eurToUSDRate).Floor().IntPart()
	default:
		return amount
	}
}
