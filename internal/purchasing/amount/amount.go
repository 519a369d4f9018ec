// Package amount computes line amounts, header totals and the converted total
// of a purchase order. Nothing here returns an error: malformed input is zero.
package amount

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

var hundred = decimal.NewFromInt(100)

// Totals are the derived header amounts.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

// Parse reads user or record input. Full-width digits are narrowed and
// thousands separators stripped; anything unparsable is zero.
func Parse(raw string) decimal.Decimal {
	s := strings.TrimSpace(width.Narrow.String(raw))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseNonNegative is Parse with negative values coerced to zero.
func ParseNonNegative(raw string) decimal.Decimal {
	return clamp(Parse(raw))
}

// IsNumeric reports whether raw parses as a number.
func IsNumeric(raw string) bool {
	s := strings.ReplaceAll(strings.TrimSpace(width.Narrow.String(raw)), ",", "")
	if s == "" {
		return false
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}

// LineAmount returns unitPrice x quantity at full precision.
func LineAmount(unitPrice, quantity decimal.Decimal) decimal.Decimal {
	return clamp(unitPrice).Mul(clamp(quantity))
}

// ComputeLineAmount parses both inputs and multiplies them.
func ComputeLineAmount(unitPrice, quantity string) decimal.Decimal {
	return LineAmount(Parse(unitPrice), Parse(quantity))
}

// ComputeTotals sums line amounts and applies the tax rate percentage.
func ComputeTotals(amounts []decimal.Decimal, taxRatePercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, a := range amounts {
		subtotal = subtotal.Add(a)
	}
	tax := subtotal.Mul(clamp(taxRatePercent)).Div(hundred)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}
}

// ComputeConversion converts total into the base currency. ok is false when
// currency is the base currency (or unset) or the rate is not positive; the
// caller hides the converted total in that case.
func ComputeConversion(total decimal.Decimal, currency, baseCurrency string, exchangeRate decimal.Decimal) (decimal.Decimal, bool) {
	currency = strings.TrimSpace(currency)
	if currency == "" || strings.EqualFold(currency, strings.TrimSpace(baseCurrency)) {
		return decimal.Decimal{}, false
	}
	if !exchangeRate.IsPositive() {
		return decimal.Decimal{}, false
	}
	return total.Mul(exchangeRate), true
}

// Format truncates d to places decimals and groups thousands with commas.
func Format(d decimal.Decimal, places int32) string {
	s := d.Truncate(places).StringFixed(places)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteString(frac)
	return b.String()
}

// FormatAmount renders a monetary amount with two decimals.
func FormatAmount(d decimal.Decimal) string { return Format(d, 2) }

// FormatConverted renders a converted base-currency total without decimals.
func FormatConverted(d decimal.Decimal) string { return Format(d, 0) }

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
