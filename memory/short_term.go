package memory

import (
	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

// ShortTermStore is the insertion-ordered tier holding the most recent
// interactions verbatim. It is not internally locked: the owning MemoryStore
// serializes all access so tier moves stay atomic across both tiers.
type ShortTermStore struct {
	records  []*types.MemoryRecord
	capacity int
	logger   *zap.Logger
}

// NewShortTermStore creates a short-term tier with the given capacity.
func NewShortTermStore(capacity int, logger *zap.Logger) *ShortTermStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShortTermStore{
		records:  make([]*types.MemoryRecord, 0, capacity+1),
		capacity: capacity,
		logger:   logger.With(zap.String("tier", "short_term")),
	}
}

// Append adds a record to the end of the tier. The store tolerates one
// record over capacity so the promotion pass that runs immediately after can
// resolve the overflow; appending while a previous overflow is still
// unresolved means the caller bypassed the promotion policy and fails with a
// CAPACITY_POLICY error.
func (s *ShortTermStore) Append(record *types.MemoryRecord) error {
	if len(s.records) > s.capacity {
		return types.NewErrorf(types.ErrCodeCapacityPolicy,
			"short-term store already over capacity (%d > %d): promotion pass skipped", len(s.records), s.capacity)
	}
	s.records = append(s.records, record)
	return nil
}

// Slice returns the most recent lastN records in insertion order. It is used
// for conversational context, not ranking, so no scoring applies.
func (s *ShortTermStore) Slice(lastN int) []*types.MemoryRecord {
	if lastN <= 0 || len(s.records) == 0 {
		return nil
	}
	if lastN > len(s.records) {
		lastN = len(s.records)
	}
	out := make([]*types.MemoryRecord, lastN)
	copy(out, s.records[len(s.records)-lastN:])
	return out
}

// Remove deletes the record with the given id. Removing an unknown id is a
// no-op, tolerant of double-eviction races.
func (s *ShortTermStore) Remove(id string) {
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return
		}
	}
}

// Get returns the record with the given id, if present.
func (s *ShortTermStore) Get(id string) (*types.MemoryRecord, bool) {
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Records returns all records in insertion order. The slice is a copy; the
// records are the live instances.
func (s *ShortTermStore) Records() []*types.MemoryRecord {
	out := make([]*types.MemoryRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records in the tier.
func (s *ShortTermStore) Len() int {
	return len(s.records)
}

// Capacity returns the configured capacity.
func (s *ShortTermStore) Capacity() int {
	return s.capacity
}

// Overflowing reports whether the tier currently exceeds its capacity.
func (s *ShortTermStore) Overflowing() bool {
	return len(s.records) > s.capacity
}

// MaxAccessCount returns the highest access count observed in the tier, 0
// when the tier is empty.
func (s *ShortTermStore) MaxAccessCount() int {
	maxCount := 0
	for _, r := range s.records {
		if r.AccessCount > maxCount {
			maxCount = r.AccessCount
		}
	}
	return maxCount
}
