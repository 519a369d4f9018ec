// Package receiving reconciles purchase order lines against the inventory
// transaction log and registers new receipts.
package receiving

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryStatus classifies a line's fulfillment.
type DeliveryStatus string

const (
	NotDelivered DeliveryStatus = "NOT_DELIVERED"
	Partial      DeliveryStatus = "PARTIAL"
	Complete     DeliveryStatus = "COMPLETE"
)

// ParseDeliveryStatus accepts the canonical names case-insensitively.
func ParseDeliveryStatus(raw string) (DeliveryStatus, bool) {
	switch DeliveryStatus(upper(raw)) {
	case NotDelivered:
		return NotDelivered, true
	case Partial:
		return Partial, true
	case Complete:
		return Complete, true
	}
	return "", false
}

// TxStatus is the state of an inventory transaction.
type TxStatus string

const (
	TxConfirmed TxStatus = "CONFIRMED"
	TxPlanned   TxStatus = "PLANNED"
)

// TxTypeReceipt is the only transaction type the dashboard reads.
const TxTypeReceipt = "RECEIPT"

// Transaction is one inventory transaction. Append-only.
type Transaction struct {
	ID        string          `json:"id,omitempty"`
	Date      string          `json:"date"`
	Type      string          `json:"type"`
	Status    TxStatus        `json:"status"`
	PONumber  string          `json:"po_number"`
	ItemCode  string          `json:"item_code"`
	Quantity  decimal.Decimal `json:"quantity"`
	Warehouse string          `json:"warehouse"`
	Location  string          `json:"location"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Amount    decimal.Decimal `json:"amount"`
	Remarks   string          `json:"remarks,omitempty"`
	Processed bool            `json:"processed"`
}

// Fulfillment is the derived receiving state of one (order, item) pair.
type Fulfillment struct {
	Ordered   decimal.Decimal `json:"ordered"`
	Received  decimal.Decimal `json:"received"`
	Planned   decimal.Decimal `json:"planned"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    DeliveryStatus  `json:"status"`
	Delayed   bool            `json:"delayed"`
}

// State combines status and delay, e.g. PARTIAL_DELAYED.
func (f Fulfillment) State() string {
	if f.Delayed {
		return string(f.Status) + "_DELAYED"
	}
	return string(f.Status)
}

// Line is one order line on the dashboard.
type Line struct {
	Index        int             `json:"index"`
	LineNo       int             `json:"line_no"`
	ItemCode     string          `json:"item_code"`
	ItemName     string          `json:"item_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Amount       decimal.Decimal `json:"amount"`
	ExpectedDate *time.Time      `json:"expected_date,omitempty"`
	Fulfillment  Fulfillment     `json:"fulfillment"`
	State        string          `json:"state"`
	CanReceive   bool            `json:"can_receive"`
}

// Order is one purchase order with its reconciled lines.
type Order struct {
	RecordID   string `json:"record_id"`
	PONumber   string `json:"po_number"`
	FileNumber string `json:"file_number"`
	Vendor     string `json:"vendor"`
	Status     string `json:"status"`
	Lines      []Line `json:"lines"`
}

// Counters aggregate line states. A delayed line also counts toward its
// NotDelivered or Partial bucket.
type Counters struct {
	Lines        int `json:"lines"`
	NotDelivered int `json:"not_delivered"`
	Partial      int `json:"partial"`
	Complete     int `json:"complete"`
	Delayed      int `json:"delayed"`
}

// Snapshot is a reconciled view of every order.
type Snapshot struct {
	Orders      []Order   `json:"orders"`
	Counters    Counters  `json:"counters"`
	GeneratedAt time.Time `json:"generated_at"`
}
