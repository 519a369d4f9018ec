package recordstore

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-po/internal/platform/db"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore keeps records as JSONB documents.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema applies the bundled DDL inside one transaction.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, stmt := range strings.Split(schemaSQL, ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("recordstore: apply schema: %w", err)
			}
		}
		return nil
	})
}

// FetchRecords runs q against one collection.
func (s *PostgresStore) FetchRecords(ctx context.Context, collection string, q Query) ([]Record, error) {
	if collection == "" {
		return nil, ErrEmptyCollection
	}
	sql, args := buildSelect(collection, q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("recordstore: query %s: %w", collection, err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var id int64
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("recordstore: scan %s: %w", collection, err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, fmt.Errorf("recordstore: decode %s/%d: %w", collection, id, err)
		}
		rec[IDField] = Scalar(strconv.FormatInt(id, 10))
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recordstore: rows %s: %w", collection, err)
	}
	return out, nil
}

// CreateRecord inserts rec and returns the generated id.
func (s *PostgresStore) CreateRecord(ctx context.Context, collection string, rec Record) (string, error) {
	if collection == "" {
		return "", ErrEmptyCollection
	}
	payload := rec.Clone()
	delete(payload, IDField)
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("recordstore: encode %s: %w", collection, err)
	}
	var id int64
	err = s.pool.QueryRow(ctx, `INSERT INTO records (collection, data) VALUES ($1, $2) RETURNING id`, collection, data).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("recordstore: insert %s: %w", collection, err)
	}
	return strconv.FormatInt(id, 10), nil
}

func buildSelect(collection string, q Query) (string, []any) {
	args := []any{collection}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	var b strings.Builder
	b.WriteString(`SELECT id, data FROM records WHERE collection = $1`)
	for _, c := range q.Conditions {
		field := "(data -> " + next(c.Field) + " ->> 'value')"
		switch c.Op {
		case OpEqual:
			b.WriteString(" AND " + field + " = " + next(c.first()))
		case OpLike:
			b.WriteString(" AND " + field + " ILIKE " + next("%"+escapeLike(c.first())+"%"))
		case OpIn:
			b.WriteString(" AND " + field + " = ANY(" + next(c.Values) + ")")
		}
	}
	if q.OrderBy != "" {
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		b.WriteString(" ORDER BY (data -> " + next(q.OrderBy) + " ->> 'value') " + dir + ", id " + dir)
	} else {
		b.WriteString(" ORDER BY id")
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + next(q.Limit))
	}
	return b.String(), args
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

func decodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return fromMap(raw), nil
}
