// Package recordstore adapts the external record store: nested key/value
// records whose scalars are wrapped as {"value": ...}.
package recordstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

// IDField carries the store-assigned record identifier.
const IDField = "$id"

// Field wraps a scalar or a subtable.
type Field struct {
	Value any `json:"value"`
}

// Record is one stored document keyed by physical field code.
type Record map[string]Field

// Row is one subtable entry.
type Row struct {
	ID    string `json:"id,omitempty"`
	Value Record `json:"value"`
}

// Scalar wraps v.
func Scalar(v any) Field { return Field{Value: v} }

// Table wraps subtable rows.
func Table(rows []Row) Field { return Field{Value: rows} }

// ID returns the store-assigned identifier.
func (r Record) ID() string { return r.String(IDField) }

// String returns the field rendered as text, empty when absent.
func (r Record) String(code string) string {
	f, ok := r[code]
	if !ok {
		return ""
	}
	return stringify(f.Value)
}

// Strings returns a multi-value field such as a checkbox set.
func (r Record) Strings(code string) []string {
	f, ok := r[code]
	if !ok || f.Value == nil {
		return nil
	}
	switch v := f.Value.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, stringify(item))
		}
		return out
	default:
		return []string{stringify(v)}
	}
}

// Decimal returns the field as a decimal. Absent and empty fields are zero;
// malformed values are zero plus a DataShapeError.
func (r Record) Decimal(code string) (decimal.Decimal, error) {
	f, ok := r[code]
	if !ok || f.Value == nil {
		return decimal.Zero, nil
	}
	switch v := f.Value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, &shared.DataShapeError{Field: code, Raw: v}
		}
		return d, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if s == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, &shared.DataShapeError{Field: code, Raw: v}
		}
		return d, nil
	default:
		return decimal.Zero, &shared.DataShapeError{Field: code, Raw: v}
	}
}

// Date parses a date or timestamp field; ok is false when absent or malformed.
func (r Record) Date(code string) (time.Time, bool) {
	s := r.String(code)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Rows returns the subtable stored under code. Both in-memory []Row and
// decoded JSON ([]any of objects) are accepted.
func (r Record) Rows(code string) []Record {
	f, ok := r[code]
	if !ok || f.Value == nil {
		return nil
	}
	switch v := f.Value.(type) {
	case []Row:
		out := make([]Record, 0, len(v))
		for _, row := range v {
			out = append(out, row.Value)
		}
		return out
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			inner, ok := m["value"].(map[string]any)
			if !ok {
				continue
			}
			out = append(out, fromMap(inner))
		}
		return out
	default:
		return nil
	}
}

// Clone returns a deep-enough copy for storage: the map is copied, values are shared.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func fromMap(m map[string]any) Record {
	rec := make(Record, len(m))
	for k, raw := range m {
		if wrapped, ok := raw.(map[string]any); ok {
			rec[k] = Field{Value: wrapped["value"]}
			continue
		}
		rec[k] = Field{Value: raw}
	}
	return rec
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case decimal.Decimal:
		return t.String()
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
