package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

func fillShortTerm(t *testing.T, store *ShortTermStore, n int, base time.Time) []*types.MemoryRecord {
	t.Helper()
	records := make([]*types.MemoryRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := testRecord(fmt.Sprintf("r%d", i+1), []float64{1, 0}, []string{"a"}, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Append(rec))
		records = append(records, rec)
	}
	return records
}

func TestShortTermStore_AppendCapacity(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewShortTermStore(2, zap.NewNop())

	// One record over capacity is tolerated; the promotion pass resolves it.
	fillShortTerm(t, store, 3, base)
	assert.True(t, store.Overflowing())

	// Appending again without an eviction pass is a policy violation.
	err := store.Append(testRecord("r4", []float64{1, 0}, nil, base))
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeCapacityPolicy))
}

func TestShortTermStore_Slice(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewShortTermStore(5, zap.NewNop())
	fillShortTerm(t, store, 4, base)

	tail := store.Slice(2)
	require.Len(t, tail, 2)
	assert.Equal(t, "r3", tail[0].ID)
	assert.Equal(t, "r4", tail[1].ID)

	assert.Len(t, store.Slice(10), 4)
	assert.Nil(t, store.Slice(0))
	assert.Nil(t, store.Slice(-1))
}

func TestShortTermStore_Remove(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewShortTermStore(5, zap.NewNop())
	fillShortTerm(t, store, 3, base)

	store.Remove("r2")
	assert.Equal(t, 2, store.Len())
	_, ok := store.Get("r2")
	assert.False(t, ok)

	// Removing an unknown id is a silent no-op.
	store.Remove("r2")
	store.Remove("missing")
	assert.Equal(t, 2, store.Len())

	// Insertion order survives removal.
	records := store.Records()
	assert.Equal(t, "r1", records[0].ID)
	assert.Equal(t, "r3", records[1].ID)
}

func TestShortTermStore_MaxAccessCount(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewShortTermStore(5, zap.NewNop())
	assert.Equal(t, 0, store.MaxAccessCount())

	records := fillShortTerm(t, store, 3, base)
	records[1].AccessCount = 7
	records[2].AccessCount = 3
	assert.Equal(t, 7, store.MaxAccessCount())
}
