package recordstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultFieldMap(t *testing.T) {
	m := DefaultFieldMap()
	require.Equal(t, "po_number", m.Code("poNumber"))
	require.Equal(t, "total_jpy", m.Code("totalConverted"))
	require.Equal(t, "unknownField", m.Code("unknownField"))
	require.Equal(t, "入庫", m.Value("RECEIPT"))
	require.Equal(t, "CONFIRMED", m.Logical("確定"))
	require.Equal(t, "other", m.Logical("other"))
	require.Equal(t, "inventory_transactions", m.Collection(CollectionTransactions))
}

func TestLoadFieldMapOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
collections:
  orders: app_748
fields:
  poNumber: field_po_no
values:
  CONFIRMED: confirmed
`), 0o600))

	m, err := LoadFieldMap(path)
	require.NoError(t, err)
	require.Equal(t, "app_748", m.Collection(CollectionOrders))
	require.Equal(t, "field_po_no", m.Code("poNumber"))
	require.Equal(t, "vendor", m.Code("vendor"))
	require.Equal(t, "confirmed", m.Value("CONFIRMED"))
	require.Equal(t, "CONFIRMED", m.Logical("confirmed"))
}

func TestLoadFieldMapErrors(t *testing.T) {
	_, err := LoadFieldMap(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields: [1, 2"), 0o600))
	_, err = LoadFieldMap(path)
	require.Error(t, err)

	m, err := LoadFieldMap("")
	require.NoError(t, err)
	require.Equal(t, "po_number", m.Code("poNumber"))
}
