package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParse(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "0"},
		{"  ", "0"},
		{"12", "12"},
		{"1,234.50", "1234.5"},
		{"１２３．５", "123.5"},
		{"abc", "0"},
		{"-5", "-5"},
		{"1e3", "1000"},
	}
	for _, tc := range cases {
		require.True(t, Parse(tc.in).Equal(dec(tc.want)), "parse %q", tc.in)
	}
	require.True(t, ParseNonNegative("-5").IsZero())
	require.True(t, IsNumeric("１０"))
	require.False(t, IsNumeric("ten"))
	require.False(t, IsNumeric(""))
}

func TestComputeLineAmount(t *testing.T) {
	require.True(t, ComputeLineAmount("1,200", "3").Equal(dec("3600")))
	require.True(t, ComputeLineAmount("0.333", "3").Equal(dec("0.999")))
	require.True(t, ComputeLineAmount("oops", "3").IsZero())
	require.True(t, ComputeLineAmount("10", "").IsZero())
	require.True(t, ComputeLineAmount("-10", "2").IsZero())
}

func TestComputeTotals(t *testing.T) {
	amounts := []decimal.Decimal{dec("1000"), dec("250.5"), dec("0.005")}
	totals := ComputeTotals(amounts, dec("10"))

	require.True(t, totals.Subtotal.Equal(dec("1250.505")))
	require.True(t, totals.TaxAmount.Equal(dec("125.0505")))
	require.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.TaxAmount)))

	empty := ComputeTotals(nil, dec("8"))
	require.True(t, empty.Total.IsZero())
}

func TestComputeConversion(t *testing.T) {
	got, ok := ComputeConversion(dec("100"), "USD", "JPY", dec("150.25"))
	require.True(t, ok)
	require.True(t, got.Equal(dec("15025")))

	_, ok = ComputeConversion(dec("100"), "JPY", "JPY", dec("1"))
	require.False(t, ok)
	_, ok = ComputeConversion(dec("100"), "jpy", "JPY", dec("1"))
	require.False(t, ok)
	_, ok = ComputeConversion(dec("100"), "USD", "JPY", decimal.Zero)
	require.False(t, ok)
	_, ok = ComputeConversion(dec("100"), "USD", "JPY", dec("-1"))
	require.False(t, ok)
	_, ok = ComputeConversion(dec("100"), "", "JPY", dec("150"))
	require.False(t, ok)
}

func TestFormat(t *testing.T) {
	require.Equal(t, "1,234,567.89", FormatAmount(dec("1234567.899")))
	require.Equal(t, "999.00", FormatAmount(dec("999")))
	require.Equal(t, "0.00", FormatAmount(decimal.Zero))
	require.Equal(t, "-1,000.50", FormatAmount(dec("-1000.5")))
	require.Equal(t, "15,025", FormatConverted(dec("15025.9")))
	require.Equal(t, "100", FormatConverted(dec("100")))
}
