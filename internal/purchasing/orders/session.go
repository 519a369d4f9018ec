package orders

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-po/internal/purchasing/allocation"
	"github.com/odyssey-erp/odyssey-po/internal/purchasing/amount"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

// Session is the single owner of one order being edited. Every mutation
// finishes by rerunning the pipeline, so amounts and totals never go stale.
type Session struct {
	id           string
	baseCurrency string
	maxLines     int

	header      HeaderDraft
	lines       []Line
	allocations allocation.Map

	totals        amount.Totals
	converted     decimal.Decimal
	hasConversion bool
	updatedAt     time.Time
}

// NewSession starts an empty order. maxLines <= 0 uses DefaultMaxLines.
func NewSession(id, baseCurrency string, maxLines int) *Session {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	s := &Session{
		id:           id,
		baseCurrency: strings.TrimSpace(baseCurrency),
		maxLines:     maxLines,
		allocations:  allocation.Map{},
	}
	s.recalculate()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// BaseCurrency returns the currency totals convert into.
func (s *Session) BaseCurrency() string { return s.baseCurrency }

// MaxLines returns the line limit.
func (s *Session) MaxLines() int { return s.maxLines }

// UpdatedAt returns the time of the last mutation.
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

// Header returns the header draft.
func (s *Session) Header() HeaderDraft { return s.header }

// SetHeader replaces the header draft.
func (s *Session) SetHeader(h HeaderDraft) {
	s.header = h
	s.recalculate()
}

// AddLine appends a line and returns its index.
func (s *Session) AddLine(d LineDraft) (int, error) {
	if len(s.lines) >= s.maxLines {
		return 0, shared.NewValidationError("lines", fmt.Sprintf("an order can have at most %d lines", s.maxLines))
	}
	line := lineFromDraft(d)
	line.LineNo = len(s.lines) + 1
	s.lines = append(s.lines, line)
	s.recalculate()
	return len(s.lines) - 1, nil
}

// UpdateLine replaces the draft of the line at index. Stored allocations are kept.
func (s *Session) UpdateLine(index int, d LineDraft) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	line := lineFromDraft(d)
	line.LineNo = s.lines[index].LineNo
	s.lines[index] = line
	s.recalculate()
	return nil
}

// RemoveLine deletes the line at index, renumbers the rest and moves their
// allocation sets down with them. The remapped allocation map is built
// before the line list changes and both are swapped in together.
func (s *Session) RemoveLine(index int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	remapped := allocation.RemapAfterRemoval(s.allocations, index)

	lines := make([]Line, 0, len(s.lines)-1)
	lines = append(lines, s.lines[:index]...)
	lines = append(lines, s.lines[index+1:]...)
	for i := range lines {
		lines[i].LineNo = i + 1
	}

	s.lines, s.allocations = lines, remapped
	s.recalculate()
	return nil
}

// Lines returns a copy of the lines.
func (s *Session) Lines() []Line { return append([]Line(nil), s.lines...) }

// Line returns the line at index.
func (s *Session) Line(index int) (Line, bool) {
	if index < 0 || index >= len(s.lines) {
		return Line{}, false
	}
	return s.lines[index], true
}

// LineCount returns the number of lines.
func (s *Session) LineCount() int { return len(s.lines) }

// LineRef implements allocation.Target.
func (s *Session) LineRef(index int) (allocation.LineRef, bool) {
	l, ok := s.Line(index)
	if !ok {
		return allocation.LineRef{}, false
	}
	return allocation.LineRef{
		Index:    index,
		LineNo:   l.LineNo,
		ItemCode: l.ItemCode,
		ItemName: l.ItemName,
		Quantity: l.Quantity,
	}, true
}

// Allocations implements allocation.Target.
func (s *Session) Allocations(index int) allocation.Set {
	return s.allocations[index].Clone()
}

// StoreAllocations implements allocation.Target.
func (s *Session) StoreAllocations(index int, set allocation.Set) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	if len(set) == 0 {
		return shared.NewValidationError("allocations", "an allocated line cannot be emptied")
	}
	s.allocations[index] = set.Clone()
	s.touch()
	return nil
}

// AllocationCount is the allocation indicator shown for the line.
func (s *Session) AllocationCount(index int) int { return len(s.allocations[index]) }

// AllocationMap returns a copy of every stored set.
func (s *Session) AllocationMap() allocation.Map { return s.allocations.Clone() }

// Totals returns the derived header totals.
func (s *Session) Totals() amount.Totals { return s.totals }

// Conversion returns the base-currency total; ok is false when it is hidden.
func (s *Session) Conversion() (decimal.Decimal, bool) {
	return s.converted, s.hasConversion
}

// NeedsExchangeRate reports a foreign currency entered without a usable rate.
func (s *Session) NeedsExchangeRate() bool {
	cur := strings.TrimSpace(s.header.Currency)
	if cur == "" || strings.EqualFold(cur, s.baseCurrency) {
		return false
	}
	return !amount.Parse(s.header.ExchangeRate).IsPositive()
}

func (s *Session) checkIndex(index int) error {
	if index < 0 || index >= len(s.lines) {
		return shared.NewValidationError("line", fmt.Sprintf("line %d does not exist", index+1))
	}
	return nil
}

func (s *Session) recalculate() {
	drafts := make([]LineDraft, len(s.lines))
	for i, l := range s.lines {
		drafts[i] = l.Draft
	}
	c := Compute(drafts, s.header, s.baseCurrency)
	for i := range s.lines {
		s.lines[i].Amount = c.Amounts[i]
	}
	s.totals = c.Totals
	s.converted, s.hasConversion = c.Converted, c.HasConversion
	s.touch()
}

func (s *Session) touch() { s.updatedAt = time.Now().UTC() }

func lineFromDraft(d LineDraft) Line {
	return Line{
		ItemCode:  strings.TrimSpace(d.ItemCode),
		ItemName:  strings.TrimSpace(d.ItemName),
		Detail:    d.Detail,
		UnitPrice: amount.ParseNonNegative(d.UnitPrice),
		Quantity:  amount.ParseNonNegative(d.Quantity),
		Unit:      d.Unit,
		Inventory: ParseInventoryFlag(d.Inventory),
		Remarks:   d.Remarks,
		Draft:     d,
	}
}

type sessionState struct {
	ID           string         `json:"id"`
	BaseCurrency string         `json:"base_currency"`
	MaxLines     int            `json:"max_lines"`
	Header       HeaderDraft    `json:"header"`
	Lines        []LineDraft    `json:"lines"`
	Allocations  allocation.Map `json:"allocations,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// MarshalJSON stores the raw drafts; derived values are recomputed on load.
func (s *Session) MarshalJSON() ([]byte, error) {
	st := sessionState{
		ID:           s.id,
		BaseCurrency: s.baseCurrency,
		MaxLines:     s.maxLines,
		Header:       s.header,
		Lines:        make([]LineDraft, len(s.lines)),
		Allocations:  s.allocations,
		UpdatedAt:    s.updatedAt,
	}
	for i, l := range s.lines {
		st.Lines[i] = l.Draft
	}
	return json.Marshal(st)
}

// UnmarshalJSON restores a session and reruns the pipeline.
func (s *Session) UnmarshalJSON(data []byte) error {
	var st sessionState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	restored := NewSession(st.ID, st.BaseCurrency, st.MaxLines)
	restored.header = st.Header
	for i, d := range st.Lines {
		line := lineFromDraft(d)
		line.LineNo = i + 1
		restored.lines = append(restored.lines, line)
	}
	for idx, set := range st.Allocations {
		if idx >= 0 && idx < len(restored.lines) && len(set) > 0 {
			restored.allocations[idx] = set
		}
	}
	restored.recalculate()
	if !st.UpdatedAt.IsZero() {
		restored.updatedAt = st.UpdatedAt
	}
	*s = *restored
	return nil
}
