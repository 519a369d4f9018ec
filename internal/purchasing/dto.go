package purchasing

import (
	"github.com/odyssey-erp/odyssey-po/internal/purchasing/allocation"
	"github.com/odyssey-erp/odyssey-po/internal/purchasing/orders"
)

type headerRequest struct {
	Supplier      string `json:"supplier" validate:"max=200"`
	Vendor        string `json:"vendor" validate:"max=200"`
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Subject       string `json:"subject" validate:"max=500"`
	Currency      string `json:"currency" validate:"omitempty,alpha,len=3"`
	ExchangeRate  string `json:"exchange_rate" validate:"max=32"`
	TaxCode       string `json:"tax_code" validate:"max=32"`
	TaxRate       string `json:"tax_rate" validate:"max=16"`
	ContractTerms string `json:"contract_terms" validate:"max=2000"`
}

func (r headerRequest) draft() orders.HeaderDraft {
	return orders.HeaderDraft{
		Supplier:      r.Supplier,
		Vendor:        r.Vendor,
		Date:          r.Date,
		Subject:       r.Subject,
		Currency:      r.Currency,
		ExchangeRate:  r.ExchangeRate,
		TaxCode:       r.TaxCode,
		TaxRate:       r.TaxRate,
		ContractTerms: r.ContractTerms,
	}
}

type lineRequest struct {
	ItemCode  string `json:"item_code" validate:"max=64"`
	ItemName  string `json:"item_name" validate:"max=200"`
	Detail    string `json:"detail" validate:"max=500"`
	UnitPrice string `json:"unit_price" validate:"max=32"`
	Quantity  string `json:"quantity" validate:"max=32"`
	Unit      string `json:"unit" validate:"max=16"`
	Inventory string `json:"inventory" validate:"omitempty,oneof=INVENTORY NON_INVENTORY"`
	Remarks   string `json:"remarks" validate:"max=500"`
}

func (r lineRequest) draft() orders.LineDraft {
	return orders.LineDraft{
		ItemCode:  r.ItemCode,
		ItemName:  r.ItemName,
		Detail:    r.Detail,
		UnitPrice: r.UnitPrice,
		Quantity:  r.Quantity,
		Unit:      r.Unit,
		Inventory: r.Inventory,
		Remarks:   r.Remarks,
	}
}

type allocationRowRequest struct {
	ProjectID string `json:"project_id" validate:"max=64"`
	Qty       string `json:"qty" validate:"max=32"`
}

type allocationsRequest struct {
	Rows            []allocationRowRequest `json:"rows" validate:"required,min=1,dive"`
	ConfirmMismatch bool                   `json:"confirm_mismatch"`
}

func (r allocationsRequest) rows() []allocation.Row {
	out := make([]allocation.Row, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, allocation.Row{ProjectID: row.ProjectID, Qty: row.Qty})
	}
	return out
}

type importRequest struct {
	Text            string `json:"text" validate:"max=65536"`
	Save            bool   `json:"save"`
	ConfirmMismatch bool   `json:"confirm_mismatch"`
}

type submitRequest struct {
	Mode                string `json:"mode" validate:"omitempty,oneof=draft submit"`
	ConfirmExchangeRate bool   `json:"confirm_exchange_rate"`
}

type lineResponse struct {
	Index   int                `json:"index"`
	Session orders.SessionView `json:"session"`
}
