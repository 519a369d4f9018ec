package allocation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRemapAfterRemoval(t *testing.T) {
	m := Map{
		0: {{ProjectID: "A", Qty: decimal.NewFromInt(1)}},
		1: {{ProjectID: "B", Qty: decimal.NewFromInt(2)}},
		3: {{ProjectID: "D", Qty: decimal.NewFromInt(4)}},
	}

	got := RemapAfterRemoval(m, 1)
	require.Len(t, got, 2)
	require.Equal(t, "A", got[0][0].ProjectID)
	require.Equal(t, "D", got[2][0].ProjectID)
	_, ok := got[1]
	require.False(t, ok)

	// input untouched
	require.Len(t, m, 3)
	require.Equal(t, "B", m[1][0].ProjectID)

	got[0][0].ProjectID = "changed"
	require.Equal(t, "A", m[0][0].ProjectID)
}

func TestRemapAfterRemovalLastLine(t *testing.T) {
	m := Map{0: {{ProjectID: "A", Qty: decimal.NewFromInt(1)}}, 2: {{ProjectID: "C", Qty: decimal.NewFromInt(1)}}}
	got := RemapAfterRemoval(m, 2)
	require.Len(t, got, 1)
	require.Equal(t, "A", got[0][0].ProjectID)
}

func TestSummarize(t *testing.T) {
	five := decimal.NewFromInt(5)
	require.Equal(t, StateMatch, Summarize(decimal.RequireFromString("5.01"), five).State)
	require.Equal(t, StateOver, Summarize(decimal.RequireFromString("5.02"), five).State)
	require.Equal(t, StateUnder, Summarize(decimal.RequireFromString("4"), five).State)
	require.True(t, Summarize(decimal.NewFromInt(4), five).Difference.Equal(decimal.NewFromInt(-1)))
}

func TestDuplicates(t *testing.T) {
	set := Set{{ProjectID: "P1"}, {ProjectID: "P2"}, {ProjectID: "P1"}, {ProjectID: "P1"}}
	require.Equal(t, []string{"P1"}, set.Duplicates())
	require.Empty(t, Set{{ProjectID: "P1"}}.Duplicates())
}
