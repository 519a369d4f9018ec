package recordstore

import (
	"context"
	"sort"
	"strconv"
	"sync"
)

// MemoryStore keeps records in process memory and evaluates queries locally.
type MemoryStore struct {
	mu      sync.RWMutex
	seq     int64
	records map[string][]Record
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]Record)}
}

// FetchRecords returns clones of the matching records.
func (s *MemoryStore) FetchRecords(ctx context.Context, collection string, q Query) ([]Record, error) {
	if collection == "" {
		return nil, ErrEmptyCollection
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range s.records[collection] {
		if q.Match(rec) {
			out = append(out, rec.Clone())
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].String(q.OrderBy), out[j].String(q.OrderBy)
			if q.Descending {
				return a > b
			}
			return a < b
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// CreateRecord stores rec and returns its sequential id.
func (s *MemoryStore) CreateRecord(ctx context.Context, collection string, rec Record) (string, error) {
	if collection == "" {
		return "", ErrEmptyCollection
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := strconv.FormatInt(s.seq, 10)
	stored := rec.Clone()
	stored[IDField] = Scalar(id)
	s.records[collection] = append(s.records[collection], stored)
	return id, nil
}

// Len reports how many records a collection holds.
func (s *MemoryStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[collection])
}
