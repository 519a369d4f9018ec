package orders

import (
	"github.com/odyssey-erp/odyssey-po/internal/purchasing/allocation"
	"github.com/odyssey-erp/odyssey-po/internal/purchasing/amount"
)

// LineView is a line with display values and its allocation indicator.
type LineView struct {
	Line
	AmountDisplay string         `json:"amount_display"`
	Allocations   allocation.Set `json:"allocations,omitempty"`
	Allocated     int            `json:"allocated"`
}

// SessionView is the read model returned to clients.
type SessionView struct {
	ID        string      `json:"id"`
	Header    HeaderDraft `json:"header"`
	Lines     []LineView  `json:"lines"`
	MaxLines  int         `json:"max_lines"`
	CanAdd    bool        `json:"can_add_line"`
	Subtotal  string      `json:"subtotal"`
	TaxAmount string      `json:"tax_amount"`
	Total     string      `json:"total"`
	// Converted is omitted when the order is in the base currency or lacks a rate.
	Converted    *string `json:"converted_total,omitempty"`
	BaseCurrency string  `json:"base_currency"`
}

// View renders the session for display.
func (s *Session) View() SessionView {
	v := SessionView{
		ID:           s.id,
		Header:       s.header,
		Lines:        make([]LineView, 0, len(s.lines)),
		MaxLines:     s.maxLines,
		CanAdd:       len(s.lines) < s.maxLines,
		Subtotal:     amount.FormatAmount(s.totals.Subtotal),
		TaxAmount:    amount.FormatAmount(s.totals.TaxAmount),
		Total:        amount.FormatAmount(s.totals.Total),
		BaseCurrency: s.baseCurrency,
	}
	if s.hasConversion {
		c := amount.FormatConverted(s.converted)
		v.Converted = &c
	}
	for i, l := range s.lines {
		set := s.Allocations(i)
		v.Lines = append(v.Lines, LineView{
			Line:          l,
			AmountDisplay: amount.FormatAmount(l.Amount),
			Allocations:   set,
			Allocated:     len(set),
		})
	}
	return v
}
