package receiving

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-po/internal/recordstore"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

// codec maps receiving types to stored records.
type codec struct {
	fields recordstore.FieldMap
	logger *slog.Logger
}

type orderLine struct {
	index    int
	lineNo   int
	itemCode string
	itemName string
	quantity decimal.Decimal
	price    decimal.Decimal
	amount   decimal.Decimal
	expected *time.Time
}

type orderRecord struct {
	id         string
	poNumber   string
	fileNumber string
	vendor     string
	status     string
	lines      []orderLine
}

func (c codec) decimal(rec recordstore.Record, logical string) decimal.Decimal {
	d, err := rec.Decimal(c.fields.Code(logical))
	if err != nil {
		var shape *shared.DataShapeError
		if errors.As(err, &shape) {
			c.logger.Debug("malformed record field", slog.String("field", shape.Field), slog.Any("raw", shape.Raw))
		}
	}
	return d
}

func (c codec) order(rec recordstore.Record) orderRecord {
	o := orderRecord{
		id:         rec.ID(),
		poNumber:   rec.String(c.fields.Code("poNumber")),
		fileNumber: rec.String(c.fields.Code("fileNumber")),
		vendor:     rec.String(c.fields.Code("vendor")),
		status:     c.fields.Logical(rec.String(c.fields.Code("status"))),
	}
	for i, item := range rec.Rows(c.fields.Code("poItems")) {
		l := orderLine{
			index:    i,
			lineNo:   i + 1,
			itemCode: item.String(c.fields.Code("itemCode")),
			itemName: item.String(c.fields.Code("itemName")),
			quantity: c.decimal(item, "quantity"),
			price:    c.decimal(item, "unitPrice"),
			amount:   c.decimal(item, "amount"),
		}
		if n := c.decimal(item, "lineNo"); n.IsPositive() {
			l.lineNo = int(n.IntPart())
		}
		if t, ok := item.Date(c.fields.Code("expectedDate")); ok {
			l.expected = &t
		}
		o.lines = append(o.lines, l)
	}
	return o
}

func (o orderRecord) line(itemCode string) (orderLine, bool) {
	for _, l := range o.lines {
		if l.itemCode == itemCode {
			return l, true
		}
	}
	return orderLine{}, false
}

func (c codec) transaction(rec recordstore.Record) Transaction {
	processed := false
	processedValue := c.fields.Value("PROCESSED")
	for _, v := range rec.Strings(c.fields.Code("txProcessed")) {
		if v == processedValue {
			processed = true
		}
	}
	return Transaction{
		ID:        rec.ID(),
		Date:      rec.String(c.fields.Code("txDate")),
		Type:      c.fields.Logical(rec.String(c.fields.Code("txType"))),
		Status:    TxStatus(c.fields.Logical(rec.String(c.fields.Code("txStatus")))),
		PONumber:  rec.String(c.fields.Code("txPoNumber")),
		ItemCode:  rec.String(c.fields.Code("txItemCode")),
		Quantity:  c.decimal(rec, "txQuantity"),
		Warehouse: rec.String(c.fields.Code("txWarehouse")),
		Location:  rec.String(c.fields.Code("txLocation")),
		UnitCost:  c.decimal(rec, "txUnitCost"),
		Amount:    c.decimal(rec, "txAmount"),
		Remarks:   rec.String(c.fields.Code("txRemarks")),
		Processed: processed,
	}
}

func (c codec) transactionRecord(tx Transaction) recordstore.Record {
	set := func(rec recordstore.Record, logical string, v any) {
		rec[c.fields.Code(logical)] = recordstore.Scalar(v)
	}
	rec := recordstore.Record{}
	set(rec, "txDate", tx.Date)
	set(rec, "txType", c.fields.Value(tx.Type))
	set(rec, "txStatus", c.fields.Value(string(tx.Status)))
	set(rec, "txPoNumber", tx.PONumber)
	set(rec, "txItemCode", tx.ItemCode)
	set(rec, "txQuantity", tx.Quantity.String())
	set(rec, "txWarehouse", tx.Warehouse)
	set(rec, "txLocation", tx.Location)
	set(rec, "txUnitCost", tx.UnitCost.String())
	set(rec, "txAmount", tx.Amount.String())
	set(rec, "txRemarks", tx.Remarks)
	var flags []string
	if tx.Processed {
		flags = []string{c.fields.Value("PROCESSED")}
	}
	set(rec, "txProcessed", flags)
	return rec
}

// receiptQuery selects receipt transactions, optionally for one pair.
func (c codec) receiptQuery(poNumber, itemCode string) recordstore.Query {
	q := recordstore.Where(recordstore.In(c.fields.Code("txType"), c.fields.Value(TxTypeReceipt)))
	if poNumber != "" {
		q = q.And(recordstore.Eq(c.fields.Code("txPoNumber"), poNumber))
	}
	if itemCode != "" {
		q = q.And(recordstore.Eq(c.fields.Code("txItemCode"), itemCode))
	}
	return q.Order(c.fields.Code("txDate"), true)
}

func pairKey(poNumber, itemCode string) string {
	return poNumber + "\x00" + itemCode
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
