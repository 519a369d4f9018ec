package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-po/internal/purchasing/allocation"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(code, price, qty string) LineDraft {
	return LineDraft{ItemCode: code, ItemName: "Item " + code, UnitPrice: price, Quantity: qty}
}

func set(pairs ...string) allocation.Set {
	out := allocation.Set{}
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, allocation.Allocation{ProjectID: pairs[i], Qty: d(pairs[i+1])})
	}
	return out
}

func TestAddLineRecomputesTotals(t *testing.T) {
	s := NewSession("s1", "JPY", 0)
	s.SetHeader(HeaderDraft{Currency: "JPY", TaxRate: "10"})

	_, err := s.AddLine(line("A", "1,000", "3"))
	require.NoError(t, err)
	_, err = s.AddLine(line("B", "250.5", "2"))
	require.NoError(t, err)

	lines := s.Lines()
	require.True(t, lines[0].Amount.Equal(d("3000")))
	require.True(t, lines[1].Amount.Equal(d("501")))

	totals := s.Totals()
	require.True(t, totals.Subtotal.Equal(d("3501")))
	require.True(t, totals.TaxAmount.Equal(d("350.1")))
	require.True(t, totals.Total.Equal(d("3851.1")))

	_, ok := s.Conversion()
	require.False(t, ok)
}

func TestUpdateLineAndHeaderRerunPipeline(t *testing.T) {
	s := NewSession("s1", "JPY", 0)
	_, err := s.AddLine(line("A", "10", "1"))
	require.NoError(t, err)

	require.NoError(t, s.UpdateLine(0, line("A", "10", "5")))
	require.True(t, s.Totals().Subtotal.Equal(d("50")))

	s.SetHeader(HeaderDraft{Currency: "USD", ExchangeRate: "150", TaxRate: "0"})
	converted, ok := s.Conversion()
	require.True(t, ok)
	require.True(t, converted.Equal(d("7500")))
	require.False(t, s.NeedsExchangeRate())

	s.SetHeader(HeaderDraft{Currency: "USD"})
	_, ok = s.Conversion()
	require.False(t, ok)
	require.True(t, s.NeedsExchangeRate())

	require.ErrorIs(t, s.UpdateLine(3, line("X", "1", "1")), shared.ErrValidation)
}

func TestAddLineLimit(t *testing.T) {
	s := NewSession("s1", "JPY", 2)
	for i := 0; i < 2; i++ {
		_, err := s.AddLine(line("A", "1", "1"))
		require.NoError(t, err)
	}
	_, err := s.AddLine(line("A", "1", "1"))
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "lines", verr.Field)
	require.False(t, s.View().CanAdd)
}

func TestRemoveLineRenumbersAndRemapsAllocations(t *testing.T) {
	s := NewSession("s1", "JPY", 0)
	for _, code := range []string{"A", "B", "C", "D"} {
		_, err := s.AddLine(line(code, "10", "5"))
		require.NoError(t, err)
	}
	require.NoError(t, s.StoreAllocations(0, set("P0", "5")))
	require.NoError(t, s.StoreAllocations(1, set("P1", "5")))
	require.NoError(t, s.StoreAllocations(3, set("P3a", "3", "P3b", "2")))

	require.NoError(t, s.RemoveLine(1))

	lines := s.Lines()
	require.Len(t, lines, 3)
	for i, l := range lines {
		require.Equal(t, i+1, l.LineNo)
	}
	require.Equal(t, []string{"A", "C", "D"}, []string{lines[0].ItemCode, lines[1].ItemCode, lines[2].ItemCode})

	m := s.AllocationMap()
	require.Len(t, m, 2)
	require.Equal(t, "P0", m[0][0].ProjectID)
	require.Equal(t, "P3a", m[2][0].ProjectID)
	require.Zero(t, s.AllocationCount(1))
	require.Equal(t, 2, s.AllocationCount(2))
	require.True(t, s.Totals().Subtotal.Equal(d("150")))
}

func TestRemoveLineOutOfRange(t *testing.T) {
	s := NewSession("s1", "JPY", 0)
	require.ErrorIs(t, s.RemoveLine(0), shared.ErrValidation)
}

func TestStoreAllocationsRejectsEmpty(t *testing.T) {
	s := NewSession("s1", "JPY", 0)
	_, err := s.AddLine(line("A", "1", "2"))
	require.NoError(t, err)
	require.ErrorIs(t, s.StoreAllocations(0, allocation.Set{}), shared.ErrValidation)
}

func TestSessionWorksWithAllocationEditor(t *testing.T) {
	s := NewSession("s1", "JPY", 0)
	_, err := s.AddLine(line("A", "100", "5"))
	require.NoError(t, err)

	editor, err := allocation.Open(s, 0)
	require.NoError(t, err)
	editor.ReplaceRows([]allocation.Row{{ProjectID: "P1", Qty: "3"}, {ProjectID: "P2", Qty: "2"}})
	_, err = editor.Save(context.Background(), shared.NewStaticInteraction(false))
	require.NoError(t, err)
	require.Equal(t, 1, len(s.View().Lines))
	require.Equal(t, 2, s.View().Lines[0].Allocated)
}

func TestSessionJSONRoundTrip(t *testing.T) {
	s := NewSession("s1", "JPY", 5)
	s.SetHeader(HeaderDraft{Supplier: "HQ", Currency: "USD", ExchangeRate: "150", TaxRate: "10"})
	_, err := s.AddLine(line("A", "10", "5"))
	require.NoError(t, err)
	_, err = s.AddLine(line("B", "2", "1"))
	require.NoError(t, err)
	require.NoError(t, s.StoreAllocations(1, set("P9", "1")))

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var restored Session
	require.NoError(t, json.Unmarshal(raw, &restored))
	require.Equal(t, "s1", restored.ID())
	require.Equal(t, 5, restored.MaxLines())
	require.Equal(t, "HQ", restored.Header().Supplier)
	require.Equal(t, 2, restored.LineCount())
	require.True(t, restored.Totals().Total.Equal(s.Totals().Total))
	converted, ok := restored.Conversion()
	require.True(t, ok)
	require.True(t, converted.Equal(d("8580")))
	require.Equal(t, "P9", restored.Allocations(1)[0].ProjectID)
}

func TestViewFormatsDisplayValues(t *testing.T) {
	s := NewSession("s1", "JPY", 0)
	s.SetHeader(HeaderDraft{Currency: "USD", ExchangeRate: "151.5", TaxRate: "10"})
	_, err := s.AddLine(line("A", "1234.567", "1"))
	require.NoError(t, err)

	v := s.View()
	require.Equal(t, "1,234.56", v.Lines[0].AmountDisplay)
	require.Equal(t, "1,234.56", v.Subtotal)
	require.NotNil(t, v.Converted)
	require.Equal(t, "205,740", *v.Converted)

	s.SetHeader(HeaderDraft{Currency: "JPY"})
	require.Nil(t, s.View().Converted)
}
