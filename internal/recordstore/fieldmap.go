package recordstore

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Logical collection names.
const (
	CollectionOrders       = "orders"
	CollectionTransactions = "transactions"
	CollectionWarehouses   = "warehouses"
)

// FieldMap translates logical names into physical codes for collections,
// fields and enumerated values.
type FieldMap struct {
	Collections map[string]string `yaml:"collections"`
	Fields      map[string]string `yaml:"fields"`
	Values      map[string]string `yaml:"values"`

	reverse map[string]string
}

// DefaultFieldMap returns the stock mapping used by the purchase order apps.
func DefaultFieldMap() FieldMap {
	m := FieldMap{
		Collections: map[string]string{
			CollectionOrders:       "po_management",
			CollectionTransactions: "inventory_transactions",
			CollectionWarehouses:   "warehouse_master",
		},
		Fields: map[string]string{
			"poNumber":       "po_number",
			"fileNumber":     "po_date_file",
			"supplier":       "supplier_company",
			"vendor":         "vendor",
			"poDate":         "po_date",
			"orderDate":      "order_date",
			"subject":        "subject",
			"currency":       "currency",
			"exchangeRate":   "exchange_rate",
			"taxCode":        "tax_code",
			"taxRate":        "tax_rate",
			"contractTerms":  "contract_terms",
			"status":         "status",
			"poItems":        "po_items",
			"erpItems":       "erp_items",
			"subtotal":       "subtotal",
			"taxAmount":      "tax_amount",
			"total":          "total",
			"totalConverted": "total_jpy",

			"lineNo":        "line_no",
			"itemCode":      "item_code",
			"itemName":      "item_name",
			"itemDetail":    "item_detail",
			"unitPrice":     "unit_price",
			"quantity":      "quantity",
			"unit":          "unit",
			"amount":        "amount",
			"inventoryFlag": "is_inventory",
			"remarks":       "remarks",
			"expectedDate":  "expected_received_date",

			"erpItemCode":   "erp_item_code",
			"erpItemDetail": "erp_item_detail",
			"erpProjectId":  "erp_project_id",
			"erpQuantity":   "erp_quantity",
			"erpUnitPrice":  "erp_unit_price",

			"txID":        "transaction_id",
			"txDate":      "transaction_date",
			"txType":      "transaction_type",
			"txStatus":    "status",
			"txPoNumber":  "po_number",
			"txItemCode":  "item_code",
			"txQuantity":  "quantity",
			"txWarehouse": "warehouse",
			"txLocation":  "location",
			"txUnitCost":  "unit_cost",
			"txAmount":    "amount",
			"txRemarks":   "remarks",
			"txProcessed": "processed_flag",

			"warehouseCode":     "warehouse_code",
			"warehouseName":     "warehouse_name",
			"warehouseLocation": "location",
		},
		Values: map[string]string{
			"DRAFT":         "下書き",
			"PENDING":       "承認待ち",
			"ORDERED":       "発注済み",
			"COMPLETED":     "完了",
			"INVENTORY":     "在庫品",
			"NON_INVENTORY": "非在庫品",
			"RECEIPT":       "入庫",
			"CONFIRMED":     "確定",
			"PLANNED":       "予定",
			"PROCESSED":     "処理済み",
		},
	}
	m.index()
	return m
}

// LoadFieldMap reads a YAML mapping and layers it over the defaults.
// An empty path returns the defaults.
func LoadFieldMap(path string) (FieldMap, error) {
	m := DefaultFieldMap()
	if path == "" {
		return m, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return FieldMap{}, fmt.Errorf("recordstore: read field map: %w", err)
	}
	var override FieldMap
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return FieldMap{}, fmt.Errorf("recordstore: parse field map: %w", err)
	}
	merge(m.Collections, override.Collections)
	merge(m.Fields, override.Fields)
	merge(m.Values, override.Values)
	m.index()
	return m, nil
}

// Collection returns the physical collection name.
func (m FieldMap) Collection(logical string) string {
	if code, ok := m.Collections[logical]; ok && code != "" {
		return code
	}
	return logical
}

// Code returns the physical field code.
func (m FieldMap) Code(logical string) string {
	if code, ok := m.Fields[logical]; ok && code != "" {
		return code
	}
	return logical
}

// Value returns the stored representation of an enumerated value.
func (m FieldMap) Value(logical string) string {
	if v, ok := m.Values[logical]; ok && v != "" {
		return v
	}
	return logical
}

// Logical maps a stored enumerated value back to its logical name.
// Unknown values are returned unchanged.
func (m FieldMap) Logical(stored string) string {
	if m.reverse == nil {
		m.index()
	}
	if v, ok := m.reverse[stored]; ok {
		return v
	}
	return stored
}

func (m *FieldMap) index() {
	m.reverse = make(map[string]string, len(m.Values))
	for logical, stored := range m.Values {
		m.reverse[stored] = logical
	}
}

func merge(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
