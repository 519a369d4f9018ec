package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/odyssey-erp/odyssey-po/internal/recordstore"
	"github.com/odyssey-erp/odyssey-po/internal/warehouse"
)

// WarehouseCLI loads the warehouse master into the record store.
type WarehouseCLI struct {
	store  recordstore.Store
	fields recordstore.FieldMap
}

// NewWarehouseCLI constructs the helper.
func NewWarehouseCLI(store recordstore.Store, fields recordstore.FieldMap) *WarehouseCLI {
	return &WarehouseCLI{store: store, fields: fields}
}

// Import reads code,name,location rows and creates one master record per
// row. A first row whose first cell is "code" is treated as a header. Codes
// already present are skipped.
func (c *WarehouseCLI) Import(ctx context.Context, r io.Reader) (created int, err error) {
	existing, err := warehouse.NewRecordDirectory(c.store, c.fields).List(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, w := range existing {
		seen[w.Code] = struct{}{}
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return created, nil
		}
		if err != nil {
			return created, fmt.Errorf("warehouse cli: line %d: %w", line, err)
		}
		if line == 1 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "code") {
			continue
		}
		if len(row) < 3 {
			return created, fmt.Errorf("warehouse cli: line %d: want code,name,location", line)
		}
		code := strings.TrimSpace(row[0])
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		rec := recordstore.Record{
			c.fields.Code("warehouseCode"):     recordstore.Scalar(code),
			c.fields.Code("warehouseName"):     recordstore.Scalar(strings.TrimSpace(row[1])),
			c.fields.Code("warehouseLocation"): recordstore.Scalar(strings.TrimSpace(row[2])),
		}
		if _, err := c.store.CreateRecord(ctx, c.fields.Collection(recordstore.CollectionWarehouses), rec); err != nil {
			return created, fmt.Errorf("warehouse cli: create %s: %w", code, err)
		}
		seen[code] = struct{}{}
		created++
	}
}
