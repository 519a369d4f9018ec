package recordstore

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Operator is a predicate kind understood by the record store.
type Operator string

const (
	OpEqual Operator = "="
	OpLike  Operator = "like"
	OpIn    Operator = "in"
)

// Condition filters records on one field.
type Condition struct {
	Field  string
	Op     Operator
	Values []string
}

// Eq matches field == value.
func Eq(field, value string) Condition {
	return Condition{Field: field, Op: OpEqual, Values: []string{value}}
}

// Like matches records whose field contains value.
func Like(field, value string) Condition {
	return Condition{Field: field, Op: OpLike, Values: []string{value}}
}

// In matches any of values.
func In(field string, values ...string) Condition {
	return Condition{Field: field, Op: OpIn, Values: values}
}

// Query is a conjunction of conditions with optional ordering.
type Query struct {
	Conditions []Condition
	OrderBy    string
	Descending bool
	Limit      int
}

// Where starts a query.
func Where(conds ...Condition) Query {
	return Query{Conditions: conds}
}

// And appends conditions.
func (q Query) And(conds ...Condition) Query {
	q.Conditions = append(append([]Condition(nil), q.Conditions...), conds...)
	return q
}

// Order sets the sort field.
func (q Query) Order(field string, desc bool) Query {
	q.OrderBy = field
	q.Descending = desc
	return q
}

// WithLimit caps the result size; zero means unlimited.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// String renders the query expression, e.g.
// po_number = "PO-1" and type in ("入庫") order by date desc.
func (q Query) String() string {
	parts := make([]string, 0, len(q.Conditions))
	for _, c := range q.Conditions {
		parts = append(parts, c.String())
	}
	var b strings.Builder
	b.WriteString(strings.Join(parts, " and "))
	if q.OrderBy != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("order by ")
		b.WriteString(q.OrderBy)
		if q.Descending {
			b.WriteString(" desc")
		} else {
			b.WriteString(" asc")
		}
	}
	if q.Limit > 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("limit ")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	return b.String()
}

func (c Condition) String() string {
	switch c.Op {
	case OpIn:
		quoted := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			quoted = append(quoted, quote(v))
		}
		return c.Field + " in (" + strings.Join(quoted, ", ") + ")"
	default:
		return c.Field + " " + string(c.Op) + " " + quote(c.first())
	}
}

// Match evaluates the condition against rec.
func (c Condition) Match(rec Record) bool {
	got := rec.String(c.Field)
	switch c.Op {
	case OpEqual:
		return got == c.first()
	case OpLike:
		fold := cases.Fold()
		return strings.Contains(fold.String(got), fold.String(c.first()))
	case OpIn:
		for _, v := range c.Values {
			if got == v {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Match reports whether rec satisfies every condition.
func (q Query) Match(rec Record) bool {
	for _, c := range q.Conditions {
		if !c.Match(rec) {
			return false
		}
	}
	return true
}

func (c Condition) first() string {
	if len(c.Values) == 0 {
		return ""
	}
	return c.Values[0]
}

func quote(v string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
	return `"` + escaped + `"`
}
