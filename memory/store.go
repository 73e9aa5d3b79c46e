package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

// Config configures one memory set.
type Config struct {
	// ShortTermCapacity caps the short-term tier; exceeding it triggers a
	// promotion pass.
	ShortTermCapacity int `json:"short_term_capacity" yaml:"short_term_capacity"`

	// Scoring configures the relevance scoring engine.
	Scoring ScoringConfig `json:"scoring" yaml:"scoring"`

	// Now is used for timestamps and decay. Defaults to time.Now. Injectable
	// for tests.
	Now func() time.Time `json:"-" yaml:"-"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ShortTermCapacity: 32,
		Scoring:           DefaultScoringConfig(),
	}
}

// MemoryStore owns the tiered state of a single memory set (one agent/user
// partition). All mutation is serialized through an exclusive lock so tier
// moves commit atomically: a concurrent reader never observes a record
// absent from both tiers or present in two. Different memory sets share no
// state and operate fully in parallel.
type MemoryStore struct {
	setID string

	mu        sync.RWMutex
	short     *ShortTermStore
	long      *LongTermStore
	scoring   *ScoringEngine
	promotion *PromotionPolicy
	retrieval *RetrievalEngine

	now    func() time.Time
	logger *zap.Logger
}

// NewMemoryStore creates the store for one memory set.
func NewMemoryStore(setID string, config Config, logger *zap.Logger) (*MemoryStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if setID == "" {
		return nil, types.NewError(types.ErrCodeInvalidConfig, "set id is required")
	}
	if config.ShortTermCapacity <= 0 {
		return nil, types.NewErrorf(types.ErrCodeInvalidConfig,
			"short-term capacity must be positive, got %d", config.ShortTermCapacity)
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	logger = logger.With(zap.String("component", "memory_store"), zap.String("set_id", setID))
	scoring := NewScoringEngine(config.Scoring, logger)
	return &MemoryStore{
		setID:     setID,
		short:     NewShortTermStore(config.ShortTermCapacity, logger),
		long:      NewLongTermStore(logger),
		scoring:   scoring,
		promotion: NewPromotionPolicy(scoring, logger),
		retrieval: NewRetrievalEngine(scoring, logger),
		now:       now,
		logger:    logger,
	}, nil
}

// SetID returns the memory set identifier this store is scoped to.
func (m *MemoryStore) SetID() string {
	return m.setID
}

// AddInteraction creates a record from a prompt/output pair with its
// precomputed embedding and concepts, appends it to the short-term tier, and
// runs the promotion pass. It returns the new record's id and the outcome of
// the promotion pass.
func (m *MemoryStore) AddInteraction(prompt, output string, embedding []float64, concepts []string) (string, PromotionResult, error) {
	if len(embedding) == 0 {
		return "", PromotionResult{}, types.NewError(types.ErrCodeScoreComputation, "interaction embedding is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record := &types.MemoryRecord{
		ID:          uuid.NewString(),
		Prompt:      prompt,
		Output:      output,
		Embedding:   append([]float64(nil), embedding...),
		Concepts:    append([]string(nil), concepts...),
		Timestamp:   m.now(),
		DecayFactor: 1.0,
	}
	if err := m.short.Append(record); err != nil {
		return "", PromotionResult{}, err
	}

	result, err := m.promotion.Evaluate(m.now(), m.short, m.long)
	if err != nil {
		// The append already committed; surface the scoring failure but keep
		// the store consistent by discarding the overflow record.
		m.short.Remove(record.ID)
		return "", PromotionResult{}, err
	}

	m.logger.Debug("interaction added",
		zap.String("id", record.ID),
		zap.Int("short_term", m.short.Len()),
		zap.Int("promoted", len(result.Promoted)),
		zap.Int("discarded", len(result.Discarded)))
	return record.ID, result, nil
}

// Retrieve ranks records across both tiers against the query and returns
// the topK best matches. See RetrievalEngine.Retrieve for the exclusion and
// ordering contract.
func (m *MemoryStore) Retrieve(queryEmbedding []float64, queryConcepts []string, excludeLastN, topK int) ([]*types.MemoryRecord, error) {
	// Retrieval mutates access counts on returned records, so it takes the
	// write lock like any other mutation.
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.retrieval.Retrieve(m.now(), m.short, m.long, queryEmbedding, queryConcepts, excludeLastN, topK)
}

// Recent returns deep copies of the n most recent short-term records in
// insertion order, unscored.
func (m *MemoryStore) Recent(n int) []*types.MemoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return types.CloneRecords(m.short.Slice(n))
}

// Snapshot returns a deep copy of the full tiered state for persistence
// hand-off. Calling it twice without intervening mutation yields identical
// snapshots.
func (m *MemoryStore) Snapshot() *types.MemorySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &types.MemorySnapshot{
		SetID:     m.setID,
		ShortTerm: types.CloneRecords(m.short.Records()),
		LongTerm:  types.CloneRecords(m.long.Records()),
	}
}

// Restore replaces the tiered state from a previously saved snapshot.
// Records missing a decay factor (older persisted data) default to 1.0.
func (m *MemoryStore) Restore(short, long []*types.MemoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(short) > m.short.Capacity() {
		return types.NewErrorf(types.ErrCodeCapacityPolicy,
			"snapshot short-term size %d exceeds capacity %d", len(short), m.short.Capacity())
	}

	restoredShort := NewShortTermStore(m.short.Capacity(), m.logger)
	for _, rec := range types.CloneRecords(short) {
		if rec.DecayFactor == 0 {
			rec.DecayFactor = 1.0
		}
		if err := restoredShort.Append(rec); err != nil {
			return err
		}
	}
	restoredLong := NewLongTermStore(m.logger)
	for _, rec := range types.CloneRecords(long) {
		if rec.DecayFactor == 0 {
			rec.DecayFactor = 1.0
		}
		restoredLong.Upsert(rec)
	}

	m.short = restoredShort
	m.long = restoredLong
	return nil
}

// ShortTermLen returns the current short-term tier size.
func (m *MemoryStore) ShortTermLen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.short.Len()
}

// LongTermLen returns the current long-term tier size.
func (m *MemoryStore) LongTermLen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.long.Len()
}
