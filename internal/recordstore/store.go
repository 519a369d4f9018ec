package recordstore

import (
	"context"
	"errors"
)

// ErrEmptyCollection is returned when a call names no collection.
var ErrEmptyCollection = errors.New("recordstore: collection required")

// Store is the record persistence and query collaborator.
type Store interface {
	FetchRecords(ctx context.Context, collection string, q Query) ([]Record, error)
	CreateRecord(ctx context.Context, collection string, rec Record) (string, error)
}
