package allocation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImportFromTextTabSeparated(t *testing.T) {
	got := ImportFromText("P001\t6\nP002\t4")
	require.Len(t, got, 2)
	require.Equal(t, "P001", got[0].ProjectID)
	require.Equal(t, "6", got[0].Qty.String())
	require.Equal(t, "P002", got[1].ProjectID)
	require.Equal(t, "4", got[1].Qty.String())
}

func TestImportFromTextEmpty(t *testing.T) {
	require.Empty(t, ImportFromText(""))
	require.Empty(t, ImportFromText(" \n\t\n"))
	require.NotNil(t, ImportFromText(""))
}

func TestImportFromTextHeaderAndSpaces(t *testing.T) {
	raw := "Project ID\tAllocated Qty\r\nP001  2.5\r\nP002\t\t1,000\r\n"
	got := ImportFromText(raw)
	require.Len(t, got, 2)
	require.Equal(t, "2.5", got[0].Qty.String())
	require.Equal(t, "1000", got[1].Qty.String())
}

func TestImportFromTextJapaneseHeader(t *testing.T) {
	got := ImportFromText("案件番号\t配分数量\nA-100\t３")
	require.Len(t, got, 1)
	require.Equal(t, "A-100", got[0].ProjectID)
	require.Equal(t, "3", got[0].Qty.String())
}

func TestImportFromTextHeaderOnlyOnFirstLine(t *testing.T) {
	got := ImportFromText("P001\t1\nproject-x\t2")
	require.Len(t, got, 2)
	require.Equal(t, "project-x", got[1].ProjectID)
}

func TestImportFromTextDropsInvalidRows(t *testing.T) {
	raw := "P001\tabc\nP002\t0\nP003\t-1\nP004\nP005 7\nP006\t5"
	got := ImportFromText(raw)
	require.Len(t, got, 1)
	require.Equal(t, "P006", got[0].ProjectID)
}
