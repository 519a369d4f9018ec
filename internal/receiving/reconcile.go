package receiving

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reconcile derives the fulfillment of one (order, item) pair from its
// transactions. Only confirmed quantities count as received; planned ones
// are reported separately. Receipts beyond the ordered quantity are not
// clamped: remaining goes negative and the status is Complete.
func Reconcile(ordered decimal.Decimal, txs []Transaction, expected *time.Time, today time.Time) Fulfillment {
	received := decimal.Zero
	planned := decimal.Zero
	for _, tx := range txs {
		switch tx.Status {
		case TxConfirmed:
			received = received.Add(tx.Quantity)
		case TxPlanned:
			planned = planned.Add(tx.Quantity)
		}
	}
	f := Fulfillment{
		Ordered:   ordered,
		Received:  received,
		Planned:   planned,
		Remaining: ordered.Sub(received),
	}
	switch {
	case received.IsZero():
		f.Status = NotDelivered
	case received.GreaterThanOrEqual(ordered):
		f.Status = Complete
	default:
		f.Status = Partial
	}
	f.Delayed = f.Status != Complete && expected != nil && dayOf(*expected).Before(dayOf(today))
	return f
}

// Tally accumulates counters for one line.
func (c *Counters) Tally(f Fulfillment) {
	c.Lines++
	switch f.Status {
	case NotDelivered:
		c.NotDelivered++
	case Partial:
		c.Partial++
	case Complete:
		c.Complete++
	}
	if f.Delayed {
		c.Delayed++
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
