// Package orders holds the purchase order editing session: header draft,
// bounded line list, allocation map and the recompute pipeline.
package orders

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMaxLines bounds the number of lines on one order.
const DefaultMaxLines = 20

// Status enumerates order header states.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusOrdered   Status = "ORDERED"
	StatusCompleted Status = "COMPLETED"
)

// InventoryFlag marks whether a line item is stock-managed.
type InventoryFlag string

const (
	Inventory    InventoryFlag = "INVENTORY"
	NonInventory InventoryFlag = "NON_INVENTORY"
)

// ParseInventoryFlag defaults anything unrecognised to NonInventory.
func ParseInventoryFlag(raw string) InventoryFlag {
	if strings.EqualFold(strings.TrimSpace(raw), string(Inventory)) {
		return Inventory
	}
	return NonInventory
}

// HeaderDraft carries raw header input.
type HeaderDraft struct {
	Supplier      string `json:"supplier"`
	Vendor        string `json:"vendor"`
	Date          string `json:"date"`
	Subject       string `json:"subject"`
	Currency      string `json:"currency"`
	ExchangeRate  string `json:"exchange_rate"`
	TaxCode       string `json:"tax_code"`
	TaxRate       string `json:"tax_rate"`
	ContractTerms string `json:"contract_terms"`
}

// LineDraft carries raw line input as entered.
type LineDraft struct {
	ItemCode  string `json:"item_code"`
	ItemName  string `json:"item_name"`
	Detail    string `json:"detail"`
	UnitPrice string `json:"unit_price"`
	Quantity  string `json:"quantity"`
	Unit      string `json:"unit"`
	Inventory string `json:"inventory"`
	Remarks   string `json:"remarks"`
}

// Line is one order line. Amount is always unitPrice x quantity.
type Line struct {
	LineNo    int             `json:"line_no"`
	ItemCode  string          `json:"item_code"`
	ItemName  string          `json:"item_name"`
	Detail    string          `json:"detail"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	Inventory InventoryFlag   `json:"inventory"`
	Remarks   string          `json:"remarks"`
	Amount    decimal.Decimal `json:"amount"`

	Draft LineDraft `json:"draft"`
}
