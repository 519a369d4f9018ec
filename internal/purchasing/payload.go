package purchasing

import (
	"strconv"

	"github.com/odyssey-erp/odyssey-po/internal/purchasing/erpexport"
	"github.com/odyssey-erp/odyssey-po/internal/purchasing/orders"
	"github.com/odyssey-erp/odyssey-po/internal/recordstore"
)

// BuildRecord assembles the stored order document: header scalars, the
// po_items and erp_items subtables and the derived totals. The converted
// total is only present when a conversion exists.
func BuildRecord(s *orders.Session, poNumber string, status orders.Status, fields recordstore.FieldMap) recordstore.Record {
	h := s.Header()
	rec := recordstore.Record{}
	set := func(logical string, v any) {
		rec[fields.Code(logical)] = recordstore.Scalar(v)
	}

	set("poNumber", poNumber)
	set("supplier", h.Supplier)
	set("vendor", h.Vendor)
	set("poDate", h.Date)
	set("subject", h.Subject)
	set("currency", h.Currency)
	set("exchangeRate", h.ExchangeRate)
	set("taxCode", h.TaxCode)
	set("taxRate", h.TaxRate)
	set("contractTerms", h.ContractTerms)
	set("status", fields.Value(string(status)))

	lines := s.Lines()
	items := make([]recordstore.Row, 0, len(lines))
	for _, l := range lines {
		items = append(items, recordstore.Row{Value: recordstore.Record{
			fields.Code("lineNo"):        recordstore.Scalar(strconv.Itoa(l.LineNo)),
			fields.Code("itemCode"):      recordstore.Scalar(l.ItemCode),
			fields.Code("itemName"):      recordstore.Scalar(l.ItemName),
			fields.Code("itemDetail"):    recordstore.Scalar(l.Detail),
			fields.Code("unitPrice"):     recordstore.Scalar(l.UnitPrice.String()),
			fields.Code("quantity"):      recordstore.Scalar(l.Quantity.String()),
			fields.Code("unit"):          recordstore.Scalar(l.Unit),
			fields.Code("amount"):        recordstore.Scalar(l.Amount.String()),
			fields.Code("inventoryFlag"): recordstore.Scalar(fields.Value(string(l.Inventory))),
			fields.Code("remarks"):       recordstore.Scalar(l.Remarks),
		}})
	}
	rec[fields.Code("poItems")] = recordstore.Table(items)
	rec[fields.Code("erpItems")] = recordstore.Table(erpexport.Records(erpexport.FromSession(s), fields))

	totals := s.Totals()
	set("subtotal", totals.Subtotal.String())
	set("taxAmount", totals.TaxAmount.String())
	set("total", totals.Total.String())
	if converted, ok := s.Conversion(); ok {
		set("totalConverted", converted.String())
	}
	return rec
}
