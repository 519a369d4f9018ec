// Package warehouse resolves warehouse codes to their storage locations.
package warehouse

import (
	"context"
	"sort"
	"strings"

	"github.com/odyssey-erp/odyssey-po/internal/recordstore"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

// Warehouse is one entry of the warehouse master.
type Warehouse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Directory looks up warehouses. An unknown code resolves to an empty
// location without error.
type Directory interface {
	Location(ctx context.Context, code string) (string, error)
	List(ctx context.Context) ([]Warehouse, error)
}

// RecordDirectory reads the warehouse master collection.
type RecordDirectory struct {
	store  recordstore.Store
	fields recordstore.FieldMap
}

// NewRecordDirectory constructs a RecordDirectory.
func NewRecordDirectory(store recordstore.Store, fields recordstore.FieldMap) *RecordDirectory {
	return &RecordDirectory{store: store, fields: fields}
}

// Location returns the location of the first warehouse with code.
func (d *RecordDirectory) Location(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}
	q := recordstore.Where(recordstore.Eq(d.fields.Code("warehouseCode"), code)).WithLimit(1)
	recs, err := d.store.FetchRecords(ctx, d.collection(), q)
	if err != nil {
		return "", shared.WrapExternal("fetch warehouse "+code, err)
	}
	if len(recs) == 0 {
		return "", nil
	}
	return strings.TrimSpace(recs[0].String(d.fields.Code("warehouseLocation"))), nil
}

// List returns every warehouse ordered by code.
func (d *RecordDirectory) List(ctx context.Context) ([]Warehouse, error) {
	code := d.fields.Code("warehouseCode")
	recs, err := d.store.FetchRecords(ctx, d.collection(), recordstore.Query{}.Order(code, false))
	if err != nil {
		return nil, shared.WrapExternal("fetch warehouses", err)
	}
	out := make([]Warehouse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Warehouse{
			Code:     rec.String(code),
			Name:     rec.String(d.fields.Code("warehouseName")),
			Location: rec.String(d.fields.Code("warehouseLocation")),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (d *RecordDirectory) collection() string {
	return d.fields.Collection(recordstore.CollectionWarehouses)
}
