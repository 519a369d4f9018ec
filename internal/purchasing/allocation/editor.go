package allocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-po/internal/purchasing/amount"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

// LineRef is the part of an order line the editor needs.
type LineRef struct {
	Index    int
	LineNo   int
	ItemCode string
	ItemName string
	Quantity decimal.Decimal
}

// Target owns the lines and their stored allocation sets.
type Target interface {
	LineRef(index int) (LineRef, bool)
	Allocations(index int) Set
	StoreAllocations(index int, set Set) error
}

// Row is one editable allocation row holding raw input.
type Row struct {
	ProjectID string `json:"project_id"`
	Qty       string `json:"qty"`
}

// Editor edits the allocation rows of one line.
type Editor struct {
	target Target
	index  int
	line   LineRef
	rows   []Row
}

// Open starts editing the allocations of the line at index. The line needs
// an item code and a positive quantity.
func Open(target Target, index int) (*Editor, error) {
	line, err := checkLine(target, index)
	if err != nil {
		return nil, err
	}
	e := &Editor{target: target, index: index, line: line}
	for _, a := range target.Allocations(index) {
		e.rows = append(e.rows, Row{ProjectID: a.ProjectID, Qty: a.Qty.String()})
	}
	if len(e.rows) == 0 {
		e.rows = []Row{{}}
	}
	return e, nil
}

func checkLine(target Target, index int) (LineRef, error) {
	line, ok := target.LineRef(index)
	if !ok {
		return LineRef{}, shared.NewValidationError("line", fmt.Sprintf("line %d does not exist", index+1))
	}
	if strings.TrimSpace(line.ItemCode) == "" {
		return LineRef{}, shared.NewValidationError("itemCode", "missing item code")
	}
	if !line.Quantity.IsPositive() {
		return LineRef{}, shared.NewValidationError("quantity", "missing quantity")
	}
	return line, nil
}

// Line returns the line being edited.
func (e *Editor) Line() LineRef { return e.line }

// Rows returns a copy of the current rows.
func (e *Editor) Rows() []Row { return append([]Row(nil), e.rows...) }

// AddRow appends an empty row and returns its index.
func (e *Editor) AddRow() int {
	e.rows = append(e.rows, Row{})
	return len(e.rows) - 1
}

// RemoveRow deletes a row. The last remaining row cannot be removed.
func (e *Editor) RemoveRow(i int) error {
	if i < 0 || i >= len(e.rows) {
		return shared.NewValidationError("row", fmt.Sprintf("row %d does not exist", i+1))
	}
	if len(e.rows) <= 1 {
		return shared.NewValidationError("row", "at least one allocation row is required")
	}
	e.rows = append(e.rows[:i:i], e.rows[i+1:]...)
	return nil
}

// SetRow overwrites the row at i.
func (e *Editor) SetRow(i int, projectID, qty string) error {
	if i < 0 || i >= len(e.rows) {
		return shared.NewValidationError("row", fmt.Sprintf("row %d does not exist", i+1))
	}
	e.rows[i] = Row{ProjectID: projectID, Qty: qty}
	return nil
}

// ReplaceRows swaps in rows; an empty slice leaves one blank row.
func (e *Editor) ReplaceRows(rows []Row) {
	e.rows = append([]Row(nil), rows...)
	if len(e.rows) == 0 {
		e.rows = []Row{{}}
	}
}

// Collect returns the rows that form valid allocations. Rows without a
// project id or with a non-positive quantity are dropped.
func (e *Editor) Collect() Set {
	out := Set{}
	for _, r := range e.rows {
		pid := strings.TrimSpace(r.ProjectID)
		qty := amount.Parse(r.Qty)
		if pid == "" || !qty.IsPositive() {
			continue
		}
		out = append(out, Allocation{ProjectID: pid, Qty: qty})
	}
	return out
}

// Summary compares the collected total with the line quantity.
func (e *Editor) Summary() Summary {
	return Summarize(e.Collect().Total(), e.line.Quantity)
}

// Import replaces the rows with the allocations parsed from raw.
// It returns the parsed set; when empty the rows are left unchanged.
func (e *Editor) Import(raw string) Set {
	set := ImportFromText(raw)
	if len(set) == 0 {
		return set
	}
	rows := make([]Row, 0, len(set))
	for _, a := range set {
		rows = append(rows, Row{ProjectID: a.ProjectID, Qty: a.Qty.String()})
	}
	e.ReplaceRows(rows)
	return set
}

// Paste reads clipboard text through ui and imports it. When nothing parses
// the user is notified with the expected format and zero is returned.
func (e *Editor) Paste(ctx context.Context, ui shared.Interaction) (int, error) {
	text, err := ui.PromptText(ctx, "paste project allocations (project id<TAB>quantity)")
	if err != nil {
		return 0, err
	}
	set := e.Import(text)
	if len(set) == 0 {
		ui.Notify(ctx, NoValidDataMessage)
		return 0, nil
	}
	ui.Notify(ctx, fmt.Sprintf("imported %d allocation rows", len(set)))
	return len(set), nil
}

// Save stores the collected allocations on the target line.
//
// A duplicate project id is always rejected. A total that differs from the
// line quantity by more than Tolerance needs confirmation through ui; when
// declined a *shared.MismatchWarning is returned and nothing is stored.
func (e *Editor) Save(ctx context.Context, ui shared.Interaction) (Set, error) {
	line, err := checkLine(e.target, e.index)
	if err != nil {
		return nil, err
	}
	set := e.Collect()
	if len(set) == 0 {
		return nil, shared.NewValidationError("allocations", "at least one allocation with a project id and a positive quantity is required")
	}
	if dups := set.Duplicates(); len(dups) > 0 {
		return nil, shared.NewValidationError("projectId", "duplicate project id: "+strings.Join(dups, ", "))
	}
	summary := Summarize(set.Total(), line.Quantity)
	if summary.State != StateMatch {
		msg := fmt.Sprintf("allocated %s vs total %s. Save anyway?", amount.FormatAmount(summary.Allocated), amount.FormatAmount(summary.Expected))
		ok, err := ui.Confirm(ctx, msg)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &shared.MismatchWarning{Allocated: summary.Allocated, Expected: summary.Expected}
		}
	}
	if err := e.target.StoreAllocations(e.index, set); err != nil {
		return nil, err
	}
	e.line = line
	return set.Clone(), nil
}
