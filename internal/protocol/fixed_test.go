package protocol

import (
	"math/big"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFixed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		decimals int32
		want     string
	}{
		{in: "8000", decimals: 0, want: "8000"},
		{in: "8000", decimals: 2, want: "80"},
		{in: "8000", decimals: 3, want: "8"},
		{in: "0600", decimals: 2, want: "6"},
		{in: "0950", decimals: 2, want: "9.5"},
		{in: "000", decimals: 2, want: "0"},
		{in: "4200", decimals: 4, want: "0.42"},
	}

	for _, tt := range tests {
		got, err := DecodeFixed(tt.in, tt.decimals)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s/%d = %s", tt.in, tt.decimals, got)
	}
}

func TestDecodeFixed_ScalesBackToInteger(t *testing.T) {
	t.Parallel()

	inputs := []string{"0", "7", "10", "8000", "123456", "000123", "99999999999999999999"}
	for _, s := range inputs {
		for d := int32(0); d <= int32(len(s)); d++ {
			got, err := DecodeFixed(s, d)
			require.NoError(t, err)

			want, ok := new(big.Int).SetString(s, 10)
			require.True(t, ok)
			assert.Equal(t, 0, got.Shift(d).BigInt().Cmp(want), "%s with %d decimals", s, d)
			assert.True(t, got.Shift(d).Equal(decimal.NewFromBigInt(want, 0)))
		}
	}
}

func TestDecodeFixed_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "12a4", "1.5", "?000"} {
		_, err := DecodeFixed(in, 2)
		require.ErrorIs(t, err, ErrMalformedFrame, in)
	}
}

func TestEncodeFixed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		decimals int32
		want     string
	}{
		{in: "1.55", decimals: 2, want: "155"},
		{in: "2", decimals: 3, want: "2000"},
		{in: "2", decimals: 2, want: "200"},
		{in: "0.5", decimals: 2, want: "050"},
		{in: "0", decimals: 2, want: "000"},
		{in: "-42.00", decimals: 2, want: "4200"},
		{in: "1.005", decimals: 2, want: "101"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EncodeFixed(decimal.RequireFromString(tt.in), tt.decimals), tt.in)
	}
}

func TestFixedRoundTrip(t *testing.T) {
	t.Parallel()

	for i := 0; i < 2000; i += 37 {
		value := decimal.New(int64(i), -2)
		encoded := EncodeFixed(value, 2)
		decoded, err := DecodeFixed(encoded, 2)
		require.NoError(t, err)
		assert.True(t, value.Equal(decoded), strconv.Itoa(i))
	}
}
