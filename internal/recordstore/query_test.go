package recordstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryString(t *testing.T) {
	q := Where(
		Eq("po_number", "PO-20261014-001"),
		Eq("item_code", `A"1`),
		In("transaction_type", "入庫"),
	).Order("transaction_date", true)

	require.Equal(t,
		`po_number = "PO-20261014-001" and item_code = "A\"1" and transaction_type in ("入庫") order by transaction_date desc`,
		q.String())
}

func TestQueryStringLimitOnly(t *testing.T) {
	require.Equal(t, `po_number like "PO-20261014-" limit 5`, Where(Like("po_number", "PO-20261014-")).WithLimit(5).String())
	require.Equal(t, "", Query{}.String())
}

func TestQueryMatch(t *testing.T) {
	rec := Record{
		"po_number": Scalar("PO-20261014-002"),
		"status":    Scalar("確定"),
	}
	require.True(t, Where(Like("po_number", "po-20261014")).Match(rec))
	require.True(t, Where(In("status", "予定", "確定")).Match(rec))
	require.False(t, Where(Eq("po_number", "PO-20261014-002"), Eq("status", "予定")).Match(rec))
	require.True(t, Query{}.Match(rec))
}

func TestAndDoesNotAliasConditions(t *testing.T) {
	base := Where(Eq("a", "1"))
	left := base.And(Eq("b", "2"))
	right := base.And(Eq("c", "3"))
	require.Len(t, left.Conditions, 2)
	require.Equal(t, "b", left.Conditions[1].Field)
	require.Equal(t, "c", right.Conditions[1].Field)
}

func TestBuildSelect(t *testing.T) {
	sql, args := buildSelect("inventory_transactions", Where(
		Eq("po_number", "PO-1"),
		Like("item_code", "50%"),
		In("transaction_type", "入庫"),
	).Order("transaction_date", true).WithLimit(10))

	require.Equal(t,
		"SELECT id, data FROM records WHERE collection = $1"+
			" AND (data -> $2 ->> 'value') = $3"+
			" AND (data -> $4 ->> 'value') ILIKE $5"+
			" AND (data -> $6 ->> 'value') = ANY($7)"+
			" ORDER BY (data -> $8 ->> 'value') DESC, id DESC LIMIT $9",
		sql)
	require.Equal(t, []any{
		"inventory_transactions",
		"po_number", "PO-1",
		"item_code", `%50\%%`,
		"transaction_type", []string{"入庫"},
		"transaction_date",
		10,
	}, args)
}
