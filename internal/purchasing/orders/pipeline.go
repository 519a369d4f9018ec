package orders

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-po/internal/purchasing/amount"
)

// Computation is the output of one pipeline run.
type Computation struct {
	Amounts       []decimal.Decimal
	Totals        amount.Totals
	Converted     decimal.Decimal
	HasConversion bool
}

// Compute runs the full cascade: line amounts, then header totals, then the
// converted total. It depends only on its inputs.
func Compute(lines []LineDraft, header HeaderDraft, baseCurrency string) Computation {
	amounts := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		amounts[i] = amount.ComputeLineAmount(l.UnitPrice, l.Quantity)
	}
	totals := amount.ComputeTotals(amounts, amount.ParseNonNegative(header.TaxRate))
	converted, ok := amount.ComputeConversion(totals.Total, header.Currency, baseCurrency, amount.Parse(header.ExchangeRate))
	return Computation{
		Amounts:       amounts,
		Totals:        totals,
		Converted:     converted,
		HasConversion: ok,
	}
}
