package memory

import (
	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

// LongTermStore is the unbounded tier holding records selected for durable
// retention, keyed by id. A stable insertion order is kept alongside the map
// so traversal and retrieval tie-breaks are deterministic. Like the
// short-term tier it relies on the owning MemoryStore for serialization.
type LongTermStore struct {
	records map[string]*types.MemoryRecord
	order   []string
	logger  *zap.Logger
}

// NewLongTermStore creates an empty long-term tier.
func NewLongTermStore(logger *zap.Logger) *LongTermStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LongTermStore{
		records: make(map[string]*types.MemoryRecord),
		logger:  logger.With(zap.String("tier", "long_term")),
	}
}

// Upsert inserts or overwrites the record by id. Overwriting keeps the
// original insertion position, so the operation is idempotent.
func (s *LongTermStore) Upsert(record *types.MemoryRecord) {
	if _, exists := s.records[record.ID]; !exists {
		s.order = append(s.order, record.ID)
	}
	s.records[record.ID] = record
}

// Get returns the record with the given id, if present.
func (s *LongTermStore) Get(id string) (*types.MemoryRecord, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Remove deletes the record with the given id. Unknown ids are a no-op.
func (s *LongTermStore) Remove(id string) {
	if _, ok := s.records[id]; !ok {
		return
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// All walks every record in insertion order, stopping early when fn returns
// false. Each call restarts from the beginning; no traversal state is
// retained, so large backends can page behind the same contract.
func (s *LongTermStore) All(fn func(record *types.MemoryRecord) bool) {
	for _, id := range s.order {
		if !fn(s.records[id]) {
			return
		}
	}
}

// Records returns all records in insertion order.
func (s *LongTermStore) Records() []*types.MemoryRecord {
	out := make([]*types.MemoryRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// Len returns the number of records in the tier.
func (s *LongTermStore) Len() int {
	return len(s.records)
}

// MaxAccessCount returns the highest access count observed in the tier, 0
// when the tier is empty.
func (s *LongTermStore) MaxAccessCount() int {
	maxCount := 0
	for _, r := range s.records {
		if r.AccessCount > maxCount {
			maxCount = r.AccessCount
		}
	}
	return maxCount
}
