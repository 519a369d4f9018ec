package purchasing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-po/internal/recordstore"
)

// Numberer issues PO numbers of the form PO-YYYYMMDD-NNN.
type Numberer struct {
	store  recordstore.Store
	fields recordstore.FieldMap
	logger *slog.Logger
}

// NewNumberer constructs a Numberer.
func NewNumberer(store recordstore.Store, fields recordstore.FieldMap, logger *slog.Logger) *Numberer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Numberer{store: store, fields: fields, logger: logger}
}

// Next returns the number after the highest same-day sequence. When the
// store cannot be queried the last three digits of the Unix millisecond
// clock are used instead.
func (n *Numberer) Next(ctx context.Context, now time.Time) string {
	prefix := "PO-" + now.Format("20060102") + "-"
	field := n.fields.Code("poNumber")
	q := recordstore.Where(recordstore.Like(field, prefix)).Order(field, true)
	recs, err := n.store.FetchRecords(ctx, n.fields.Collection(recordstore.CollectionOrders), q)
	if err != nil {
		n.logger.Warn("po number lookup failed, using clock fallback", slog.Any("error", err))
		return fmt.Sprintf("%s%03d", prefix, now.UnixMilli()%1000)
	}
	highest := 0
	for _, rec := range recs {
		if seq, ok := sequenceOf(rec.String(field), prefix); ok && seq > highest {
			highest = seq
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1)
}

func sequenceOf(number, prefix string) (int, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
