package allocation

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

type memoryTarget struct {
	lines  []LineRef
	stored Map
	writes int
}

func newMemoryTarget(lines ...LineRef) *memoryTarget {
	for i := range lines {
		lines[i].Index = i
		lines[i].LineNo = i + 1
	}
	return &memoryTarget{lines: lines, stored: Map{}}
}

func (m *memoryTarget) LineRef(index int) (LineRef, bool) {
	if index < 0 || index >= len(m.lines) {
		return LineRef{}, false
	}
	return m.lines[index], true
}

func (m *memoryTarget) Allocations(index int) Set { return m.stored[index].Clone() }

func (m *memoryTarget) StoreAllocations(index int, set Set) error {
	m.writes++
	m.stored[index] = set.Clone()
	return nil
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOpenPreconditions(t *testing.T) {
	target := newMemoryTarget(
		LineRef{ItemCode: "", Quantity: qty("5")},
		LineRef{ItemCode: "A-1", Quantity: decimal.Zero},
		LineRef{ItemCode: "A-2", Quantity: qty("5")},
	)

	_, err := Open(target, 0)
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "missing item code", verr.Message)

	_, err = Open(target, 1)
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "missing quantity", verr.Message)

	_, err = Open(target, 7)
	require.ErrorIs(t, err, shared.ErrValidation)

	editor, err := Open(target, 2)
	require.NoError(t, err)
	require.Len(t, editor.Rows(), 1)
}

func TestRemoveLastRowRejected(t *testing.T) {
	editor, err := Open(newMemoryTarget(LineRef{ItemCode: "A", Quantity: qty("5")}), 0)
	require.NoError(t, err)

	require.ErrorIs(t, editor.RemoveRow(0), shared.ErrValidation)
	idx := editor.AddRow()
	require.Equal(t, 1, idx)
	require.NoError(t, editor.SetRow(1, "P1", "2"))
	require.NoError(t, editor.RemoveRow(0))
	require.Equal(t, []Row{{ProjectID: "P1", Qty: "2"}}, editor.Rows())
	require.Error(t, editor.SetRow(5, "x", "1"))
}

func TestSaveMatchingAllocations(t *testing.T) {
	target := newMemoryTarget(LineRef{ItemCode: "A", Quantity: qty("5")})
	editor, err := Open(target, 0)
	require.NoError(t, err)
	require.NoError(t, editor.SetRow(0, "P1", "3"))
	editor.AddRow()
	require.NoError(t, editor.SetRow(1, "P2", "2"))
	editor.AddRow() // blank row is ignored

	ui := shared.NewStaticInteraction(false)
	set, err := editor.Save(context.Background(), ui)
	require.NoError(t, err)
	require.Len(t, set, 2)
	require.Empty(t, ui.Prompts())
	require.Len(t, target.stored[0], 2)
	require.Equal(t, "P1", target.stored[0][0].ProjectID)
}

func TestSaveRejectsDuplicatesRegardlessOfQuantities(t *testing.T) {
	target := newMemoryTarget(LineRef{ItemCode: "A", Quantity: qty("5")})
	editor, err := Open(target, 0)
	require.NoError(t, err)
	editor.ReplaceRows([]Row{{ProjectID: "P1", Qty: "3"}, {ProjectID: "P1", Qty: "2"}})

	_, err = editor.Save(context.Background(), shared.NewStaticInteraction(true))
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "projectId", verr.Field)
	require.Contains(t, verr.Message, "P1")
	require.Zero(t, target.writes)

	editor.ReplaceRows([]Row{{ProjectID: "P1", Qty: "1"}, {ProjectID: "P1", Qty: "1"}})
	_, err = editor.Save(context.Background(), shared.NewStaticInteraction(true))
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Zero(t, target.writes)
}

func TestSaveMismatchNeedsConfirmation(t *testing.T) {
	target := newMemoryTarget(LineRef{ItemCode: "A", Quantity: qty("5")})
	editor, err := Open(target, 0)
	require.NoError(t, err)
	editor.ReplaceRows([]Row{{ProjectID: "P1", Qty: "4"}})

	declined := shared.NewStaticInteraction(false)
	_, err = editor.Save(context.Background(), declined)
	var warn *shared.MismatchWarning
	require.True(t, errors.As(err, &warn))
	require.True(t, warn.Allocated.Equal(qty("4")))
	require.True(t, warn.Expected.Equal(qty("5")))
	require.Len(t, declined.Prompts(), 1)
	require.Contains(t, declined.Prompts()[0], "allocated 4.00 vs total 5.00")
	require.Zero(t, target.writes)

	set, err := editor.Save(context.Background(), shared.NewStaticInteraction(true))
	require.NoError(t, err)
	require.True(t, set.Total().Equal(qty("4")))
	require.Equal(t, 1, target.writes)
}

func TestSaveWithinToleranceSkipsConfirmation(t *testing.T) {
	target := newMemoryTarget(LineRef{ItemCode: "A", Quantity: qty("1")})
	editor, err := Open(target, 0)
	require.NoError(t, err)
	editor.ReplaceRows([]Row{{ProjectID: "P1", Qty: "0.995"}})

	ui := shared.NewStaticInteraction(false)
	_, err = editor.Save(context.Background(), ui)
	require.NoError(t, err)
	require.Empty(t, ui.Prompts())
}

func TestSaveRequiresOneValidRow(t *testing.T) {
	target := newMemoryTarget(LineRef{ItemCode: "A", Quantity: qty("5")})
	target.stored[0] = Set{{ProjectID: "P1", Qty: qty("5")}}
	editor, err := Open(target, 0)
	require.NoError(t, err)
	require.Equal(t, []Row{{ProjectID: "P1", Qty: "5"}}, editor.Rows())

	editor.ReplaceRows([]Row{{ProjectID: "", Qty: "5"}, {ProjectID: "P2", Qty: "0"}})
	_, err = editor.Save(context.Background(), shared.NewStaticInteraction(true))
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Len(t, target.stored[0], 1)
}

func TestPaste(t *testing.T) {
	target := newMemoryTarget(LineRef{ItemCode: "A", Quantity: qty("10")})
	editor, err := Open(target, 0)
	require.NoError(t, err)

	ui := shared.NewStaticInteraction(true).WithClipboard("P001\t6\nP002\t4")
	n, err := editor.Paste(context.Background(), ui)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, editor.Rows(), 2)
	require.Equal(t, StateMatch, editor.Summary().State)

	empty := shared.NewStaticInteraction(true).WithClipboard("")
	n, err = editor.Paste(context.Background(), empty)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, []string{NoValidDataMessage}, empty.Notices())
	require.Len(t, editor.Rows(), 2)

	_, err = editor.Paste(context.Background(), shared.NewStaticInteraction(true))
	require.ErrorIs(t, err, shared.ErrNoClipboard)
}
