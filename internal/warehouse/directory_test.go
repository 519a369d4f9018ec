package warehouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-po/internal/recordstore"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

func seededDirectory(t *testing.T) (*RecordDirectory, *recordstore.MemoryStore) {
	t.Helper()
	store := recordstore.NewMemoryStore()
	ctx := context.Background()
	for _, w := range []Warehouse{
		{Code: "WH02", Name: "Osaka", Location: "B-01"},
		{Code: "WH01", Name: "Tokyo", Location: "A-12"},
		{Code: "WH03", Name: "Empty", Location: ""},
	} {
		_, err := store.CreateRecord(ctx, "warehouse_master", recordstore.Record{
			"warehouse_code": recordstore.Scalar(w.Code),
			"warehouse_name": recordstore.Scalar(w.Name),
			"location":       recordstore.Scalar(w.Location),
		})
		require.NoError(t, err)
	}
	return NewRecordDirectory(store, recordstore.DefaultFieldMap()), store
}

func TestRecordDirectoryLocation(t *testing.T) {
	dir, _ := seededDirectory(t)
	ctx := context.Background()

	loc, err := dir.Location(ctx, "WH01")
	require.NoError(t, err)
	require.Equal(t, "A-12", loc)

	loc, err = dir.Location(ctx, "NOPE")
	require.NoError(t, err)
	require.Empty(t, loc)

	loc, err = dir.Location(ctx, "WH03")
	require.NoError(t, err)
	require.Empty(t, loc)

	list, err := dir.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "WH01", list[0].Code)
}

type brokenStore struct{}

func (brokenStore) FetchRecords(context.Context, string, recordstore.Query) ([]recordstore.Record, error) {
	return nil, errors.New("timeout")
}

func (brokenStore) CreateRecord(context.Context, string, recordstore.Record) (string, error) {
	return "", errors.New("timeout")
}

func TestRecordDirectoryWrapsStoreErrors(t *testing.T) {
	dir := NewRecordDirectory(brokenStore{}, recordstore.DefaultFieldMap())
	_, err := dir.Location(context.Background(), "WH01")
	require.ErrorIs(t, err, shared.ErrExternalFetch)
}

type countingDirectory struct {
	Directory
	locations int
	lists     int
}

func (c *countingDirectory) Location(ctx context.Context, code string) (string, error) {
	c.locations++
	return c.Directory.Location(ctx, code)
}

func (c *countingDirectory) List(ctx context.Context) ([]Warehouse, error) {
	c.lists++
	return c.Directory.List(ctx)
}

func TestCachedDirectory(t *testing.T) {
	base, _ := seededDirectory(t)
	counting := &countingDirectory{Directory: base}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cached := NewCachedDirectory(counting, client, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		loc, err := cached.Location(ctx, "WH02")
		require.NoError(t, err)
		require.Equal(t, "B-01", loc)
	}
	require.Equal(t, 1, counting.locations)
	require.True(t, mr.Exists("warehouse:location:WH02"))

	for i := 0; i < 2; i++ {
		loc, err := cached.Location(ctx, "NOPE")
		require.NoError(t, err)
		require.Empty(t, loc)
	}
	require.Equal(t, 3, counting.locations, "unknown codes are not cached")

	_, err := cached.List(ctx)
	require.NoError(t, err)
	list, err := cached.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, 1, counting.lists)

	require.NoError(t, cached.Forget(ctx, ""))
	require.False(t, mr.Exists("warehouse:location:WH02"))
	require.False(t, mr.Exists("warehouse:list"))
}
