package receiving

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-po/internal/purchasing/amount"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

// ReceiptInput is a receiving submission as entered.
type ReceiptInput struct {
	PONumber    string
	ItemCode    string
	ReceiveDate string
	Quantity    string
	Warehouse   string
	UnitCost    string
	Remarks     string
}

// ValidateReceipt checks a submission against the remaining quantity and the
// resolved location, in entry order. The first failure is returned.
func ValidateReceipt(in ReceiptInput, remaining decimal.Decimal, location string) error {
	if strings.TrimSpace(in.ReceiveDate) == "" {
		return shared.NewValidationError("receiveDate", "receive date is required")
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(in.ReceiveDate)); err != nil {
		return shared.NewValidationError("receiveDate", fmt.Sprintf("%q is not a date (YYYY-MM-DD)", in.ReceiveDate))
	}
	qty := amount.Parse(in.Quantity)
	if strings.TrimSpace(in.Quantity) == "" || !qty.IsPositive() {
		return shared.NewValidationError("quantity", "quantity must be greater than 0")
	}
	if qty.GreaterThan(remaining) {
		return shared.NewValidationError("quantity", fmt.Sprintf("quantity %s exceeds remaining %s", qty.String(), remaining.String()))
	}
	if strings.TrimSpace(in.Warehouse) == "" {
		return shared.NewValidationError("warehouse", "warehouse is required")
	}
	if strings.TrimSpace(location) == "" {
		return shared.NewValidationError("location", "location not resolved")
	}
	if !amount.Parse(in.UnitCost).IsPositive() {
		return shared.NewValidationError("unitCost", "unit cost must be greater than 0")
	}
	return nil
}

// NewReceipt builds the confirmed, processed transaction for a validated input.
func NewReceipt(in ReceiptInput, location string) Transaction {
	qty := amount.Parse(in.Quantity)
	cost := amount.Parse(in.UnitCost)
	return Transaction{
		Date:      strings.TrimSpace(in.ReceiveDate),
		Type:      TxTypeReceipt,
		Status:    TxConfirmed,
		PONumber:  in.PONumber,
		ItemCode:  in.ItemCode,
		Quantity:  qty,
		Warehouse: strings.TrimSpace(in.Warehouse),
		Location:  location,
		UnitCost:  cost,
		Amount:    qty.Mul(cost),
		Remarks:   in.Remarks,
		Processed: true,
	}
}

// History lists the receipts of one (order, item) pair, newest first.
type History struct {
	PONumber  string          `json:"po_number"`
	ItemCode  string          `json:"item_code"`
	Entries   []Transaction   `json:"entries"`
	Confirmed decimal.Decimal `json:"confirmed_total"`
	Planned   decimal.Decimal `json:"planned_total"`
	Total     decimal.Decimal `json:"total"`
}

// NewHistory sorts txs by date descending and totals them by status.
func NewHistory(poNumber, itemCode string, txs []Transaction) History {
	entries := append([]Transaction(nil), txs...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date > entries[j].Date })
	h := History{PONumber: poNumber, ItemCode: itemCode, Entries: entries, Confirmed: decimal.Zero, Planned: decimal.Zero}
	for _, tx := range entries {
		switch tx.Status {
		case TxConfirmed:
			h.Confirmed = h.Confirmed.Add(tx.Quantity)
		case TxPlanned:
			h.Planned = h.Planned.Add(tx.Quantity)
		}
	}
	h.Total = h.Confirmed.Add(h.Planned)
	return h
}
