package receiving

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// buildSnapshot reconciles every line of every order against the receipts
// grouped by (poNumber, itemCode).
func buildSnapshot(orders []orderRecord, txs []Transaction, now time.Time) Snapshot {
	byPair := make(map[string][]Transaction)
	for _, tx := range txs {
		key := pairKey(tx.PONumber, tx.ItemCode)
		byPair[key] = append(byPair[key], tx)
	}
	snap := Snapshot{Orders: make([]Order, 0, len(orders)), GeneratedAt: now}
	for _, o := range orders {
		order := Order{
			RecordID:   o.id,
			PONumber:   o.poNumber,
			FileNumber: o.fileNumber,
			Vendor:     o.vendor,
			Status:     o.status,
			Lines:      make([]Line, 0, len(o.lines)),
		}
		for _, l := range o.lines {
			f := Reconcile(l.quantity, byPair[pairKey(o.poNumber, l.itemCode)], l.expected, now)
			order.Lines = append(order.Lines, lineView(l, f))
			snap.Counters.Tally(f)
		}
		snap.Orders = append(snap.Orders, order)
	}
	return snap
}

func lineView(l orderLine, f Fulfillment) Line {
	return Line{
		Index:        l.index,
		LineNo:       l.lineNo,
		ItemCode:     l.itemCode,
		ItemName:     l.itemName,
		UnitPrice:    l.price,
		Amount:       l.amount,
		ExpectedDate: l.expected,
		Fulfillment:  f,
		State:        f.State(),
		CanReceive:   f.Remaining.GreaterThan(decimal.Zero),
	}
}

// Filter narrows the dashboard. Every set predicate must be satisfied by
// at least one line of an order for the order to be kept; the search text
// may also match the order's own PO or file number.
type Filter struct {
	Search string
	Status DeliveryStatus
	From   *time.Time
	To     *time.Time

	// Page and PerPage slice the matched orders when either is set.
	Page    int
	PerPage int
}

// Active reports whether any predicate is set.
func (f Filter) Active() bool {
	return f.Search != "" || f.Status != "" || f.From != nil || f.To != nil
}

// Apply returns the orders that pass every predicate. Orders keep all of
// their lines.
func (f Filter) Apply(orders []Order) []Order {
	if !f.Active() {
		return orders
	}
	fold := cases.Fold()
	needle := fold.String(f.Search)
	contains := func(s string) bool {
		return len(needle) > 0 && strings.Contains(fold.String(s), needle)
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if f.Search != "" && !contains(o.PONumber) && !contains(o.FileNumber) &&
			!anyLine(o.Lines, func(l Line) bool { return contains(l.ItemCode) || contains(l.ItemName) }) {
			continue
		}
		if f.Status != "" && !anyLine(o.Lines, func(l Line) bool { return l.Fulfillment.Status == f.Status }) {
			continue
		}
		if (f.From != nil || f.To != nil) && !anyLine(o.Lines, f.inRange) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (f Filter) inRange(l Line) bool {
	if l.ExpectedDate == nil {
		return false
	}
	day := dayOf(*l.ExpectedDate)
	if f.From != nil && day.Before(dayOf(*f.From)) {
		return false
	}
	if f.To != nil && day.After(dayOf(*f.To)) {
		return false
	}
	return true
}

func anyLine(lines []Line, pred func(Line) bool) bool {
	for _, l := range lines {
		if pred(l) {
			return true
		}
	}
	return false
}
