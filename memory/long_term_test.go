package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

func TestLongTermStore_UpsertIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewLongTermStore(zap.NewNop())

	first := testRecord("r1", []float64{1, 0}, []string{"a"}, now)
	first.TotalScore = 0.5
	store.Upsert(first)
	store.Upsert(testRecord("r2", []float64{0, 1}, []string{"b"}, now))

	// Overwriting keeps the insertion position.
	updated := testRecord("r1", []float64{1, 0}, []string{"a"}, now)
	updated.TotalScore = 0.8
	store.Upsert(updated)

	assert.Equal(t, 2, store.Len())
	records := store.Records()
	assert.Equal(t, "r1", records[0].ID)
	assert.InDelta(t, 0.8, records[0].TotalScore, 1e-9)
	assert.Equal(t, "r2", records[1].ID)
}

func TestLongTermStore_AllRestartable(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewLongTermStore(zap.NewNop())
	store.Upsert(testRecord("r1", []float64{1, 0}, nil, now))
	store.Upsert(testRecord("r2", []float64{0, 1}, nil, now))
	store.Upsert(testRecord("r3", []float64{1, 1}, nil, now))

	walk := func() []string {
		var ids []string
		store.All(func(rec *types.MemoryRecord) bool {
			ids = append(ids, rec.ID)
			return true
		})
		return ids
	}

	// No traversal state is retained between calls.
	assert.Equal(t, []string{"r1", "r2", "r3"}, walk())
	assert.Equal(t, []string{"r1", "r2", "r3"}, walk())

	// Early stop.
	var ids []string
	store.All(func(rec *types.MemoryRecord) bool {
		ids = append(ids, rec.ID)
		return len(ids) < 2
	})
	assert.Equal(t, []string{"r1", "r2"}, ids)
}

func TestLongTermStore_Remove(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewLongTermStore(zap.NewNop())
	store.Upsert(testRecord("r1", []float64{1, 0}, nil, now))
	store.Upsert(testRecord("r2", []float64{0, 1}, nil, now))

	store.Remove("r1")
	assert.Equal(t, 1, store.Len())
	_, ok := store.Get("r1")
	assert.False(t, ok)

	store.Remove("missing")
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "r2", store.Records()[0].ID)
}

func TestLongTermStore_MaxAccessCount(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewLongTermStore(zap.NewNop())
	assert.Equal(t, 0, store.MaxAccessCount())

	rec := testRecord("r1", []float64{1, 0}, nil, now)
	rec.AccessCount = 4
	store.Upsert(rec)
	assert.Equal(t, 4, store.MaxAccessCount())
}
