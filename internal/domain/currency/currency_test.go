package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Currency
		wantErr bool
	}{
		{input: "usd", want: USD},
		{input: "USD", want: USD},
		{input: "eur", want: EUR},
		{input: "EuR", want: EUR},
		{input: "gbp", wantErr: true},
		{input: "", wantErr: true},
		{input: "us", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupported)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "$", USD.Symbol())
	assert.Equal(t, "€", EUR.Symbol())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$54.00", USD.Format(5400))
	assert.Equal(t, "€0.01", EUR.Format(1))
	assert.Equal(t, "$0.00", USD.Format(0))
	assert.Equal(t, "$1234.56", USD.Format(123456))
}

func TestConvert_Identity(t *testing.T) {
	assert.Equal(t, int64(1000), Convert(1000, USD, USD))
	assert.Equal(t, int64(1000), Convert(1000, EUR, EUR))
	assert.Equal(t, int64(0), Convert(0, USD, USD))
}

func TestConvert_EURToUSD(t *testing.T) {
	// Multiplies by 1.1 and truncates.
	assert.Equal(t, int64(1100), Convert(1000, EUR, USD))
	assert.Equal(t, int64(1), Convert(1, EUR, USD))
	assert.Equal(t, int64(10), Convert(9, EUR, USD))
	assert.Equal(t, int64(0), Convert(0, EUR, USD))
}

func TestConvert_USDToEUR(t *testing.T) {
	// Divides by 1.1 and truncates.
	assert.Equal(t, int64(1000), Convert(1100, USD, EUR))
	assert.Equal(t, int64(909), Convert(1000, USD, EUR))
	assert.Equal(t, int64(0), Convert(1, USD, EUR))
}

func TestConvert_RoundTripLosesAtMostTruncation(t *testing.T) {
	for _, amount := range []int64{1, 7, 99, 1000, 123456} {
		back := Convert(Convert(amount, USD, EUR), EUR, USD)
		assert.LessOrEqual(t, back, amount, "round trip must not create money")
	}
}

func TestConvert_UnknownPairReturnsAmount(t *testing.T) {
	// Unvalidated codes fall through unchanged instead of failing.
	assert.Equal(t, int64(500), Convert(500, Currency("gbp"), USD))
	assert.Equal(t, int64(500), Convert(500, USD, Currency("gbp")))
}
