// Package erpexport flattens order lines and their project allocations into
// the rows consumed by the downstream accounting system.
package erpexport

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-po/internal/purchasing/allocation"
	"github.com/odyssey-erp/odyssey-po/internal/purchasing/orders"
)

// Row is one exported (line, project) pairing. ProjectID is empty for an
// unallocated line.
type Row struct {
	LineNo    int             `json:"line_no"`
	ItemCode  string          `json:"item_code"`
	Detail    string          `json:"detail"`
	ProjectID string          `json:"project_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Build expands lines in order. A line without allocations yields one row
// carrying the line quantity. A line with allocations yields one row per
// allocation carrying the allocated quantity, whether or not the sum matches
// the line quantity.
func Build(lines []orders.Line, allocs allocation.Map) []Row {
	rows := make([]Row, 0, len(lines))
	for i, l := range lines {
		set := allocs[i]
		if len(set) == 0 {
			rows = append(rows, rowFor(l, "", l.Quantity))
			continue
		}
		for _, a := range set {
			rows = append(rows, rowFor(l, a.ProjectID, a.Qty))
		}
	}
	return rows
}

// FromSession builds rows from the session's current state.
func FromSession(s *orders.Session) []Row {
	return Build(s.Lines(), s.AllocationMap())
}

func rowFor(l orders.Line, projectID string, qty decimal.Decimal) Row {
	return Row{
		LineNo:    l.LineNo,
		ItemCode:  l.ItemCode,
		Detail:    l.Detail,
		ProjectID: projectID,
		Quantity:  qty,
		UnitPrice: l.UnitPrice,
	}
}
