package memory

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ethanturk-incycle/memoripy/internal/metrics"
	"github.com/ethanturk-incycle/memoripy/persistence"
	"github.com/ethanturk-incycle/memoripy/types"
)

// Embedder converts text into a fixed-length semantic vector. It is an
// external capability: the core never calls it during store operations, only
// the convenience Record path uses it at the edge.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ConceptExtractor extracts concept labels from text. Like Embedder it is an
// external capability used only at the edge.
type ConceptExtractor interface {
	ExtractConcepts(ctx context.Context, text string) ([]string, error)
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithEmbedder wires the embedding capability used by Record.
func WithEmbedder(embedder Embedder) ManagerOption {
	return func(m *Manager) { m.embedder = embedder }
}

// WithConceptExtractor wires the concept-extraction capability used by
// Record.
func WithConceptExtractor(extractor ConceptExtractor) ManagerOption {
	return func(m *Manager) { m.extractor = extractor }
}

// WithMetrics wires a metrics collector.
func WithMetrics(collector *metrics.Collector) ManagerOption {
	return func(m *Manager) { m.metrics = collector }
}

// Manager fronts multiple memory sets. Each set id owns an independent
// MemoryStore, lazily restored through the persistence gateway on first
// touch. Sets share no mutable state, so operations on different sets
// proceed fully in parallel.
type Manager struct {
	config  Config
	gateway persistence.Gateway

	embedder  Embedder
	extractor ConceptExtractor
	metrics   *metrics.Collector
	tracer    trace.Tracer

	mu   sync.Mutex
	sets map[string]*MemoryStore

	logger *zap.Logger
}

// NewManager creates a manager with the given per-set configuration and
// persistence gateway. A nil gateway defaults to the in-process one.
func NewManager(config Config, gateway persistence.Gateway, logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gateway == nil {
		gateway = persistence.NewMemoryGateway(logger)
	}
	m := &Manager{
		config:  config,
		gateway: gateway,
		tracer:  otel.Tracer("memoripy/memory"),
		sets:    make(map[string]*MemoryStore),
		logger:  logger.With(zap.String("component", "memory_manager")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set returns the store for a memory set, restoring its persisted state on
// first touch. Load of a set with no prior history yields an empty store.
func (m *Manager) Set(ctx context.Context, setID string) (*MemoryStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(ctx, setID)
}

func (m *Manager) setLocked(ctx context.Context, setID string) (*MemoryStore, error) {
	if store, ok := m.sets[setID]; ok {
		return store, nil
	}

	ctx, span := m.tracer.Start(ctx, "memory.load_set",
		trace.WithAttributes(attribute.String("memory.set_id", setID)))
	defer span.End()

	store, err := NewMemoryStore(setID, m.config, m.logger)
	if err != nil {
		return nil, err
	}

	short, long, err := m.gateway.Load(ctx, setID)
	if m.metrics != nil {
		m.metrics.RecordPersistenceOp("load", err)
	}
	if err != nil {
		return nil, types.NewErrorf(types.ErrCodePersistence, "load set %q", setID).WithCause(err)
	}
	if err := store.Restore(short, long); err != nil {
		return nil, err
	}

	m.sets[setID] = store
	m.logger.Info("memory set restored",
		zap.String("set_id", setID),
		zap.Int("short_term", store.ShortTermLen()),
		zap.Int("long_term", store.LongTermLen()))
	return store, nil
}

// AddInteraction appends a new interaction, with its precomputed embedding
// and concepts, to the set's short-term tier and runs the promotion pass.
func (m *Manager) AddInteraction(ctx context.Context, setID, prompt, output string, embedding []float64, concepts []string) (string, error) {
	ctx, span := m.tracer.Start(ctx, "memory.add_interaction",
		trace.WithAttributes(attribute.String("memory.set_id", setID)))
	defer span.End()

	store, err := m.Set(ctx, setID)
	if err != nil {
		return "", err
	}
	id, result, err := store.AddInteraction(prompt, output, embedding, concepts)
	if err != nil {
		return "", err
	}
	if m.metrics != nil {
		m.metrics.RecordInteraction(setID)
		m.metrics.RecordPromotion(setID, len(result.Promoted), len(result.Discarded))
		m.metrics.SetTierSizes(setID, store.ShortTermLen(), store.LongTermLen())
	}
	return id, nil
}

// Record embeds and extracts concepts for a prompt/output pair through the
// wired collaborators, then stores the interaction. It requires WithEmbedder;
// concepts stay empty when no extractor is wired.
func (m *Manager) Record(ctx context.Context, setID, prompt, output string) (string, error) {
	if m.embedder == nil {
		return "", types.NewError(types.ErrCodeInvalidConfig, "no embedder wired; use AddInteraction with a precomputed embedding")
	}

	text := prompt + " " + output
	embedding, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return "", err
	}
	var concepts []string
	if m.extractor != nil {
		concepts, err = m.extractor.ExtractConcepts(ctx, text)
		if err != nil {
			return "", err
		}
	}
	return m.AddInteraction(ctx, setID, prompt, output, embedding, concepts)
}

// Retrieve ranks a set's records against the query and returns the topK best
// matches.
func (m *Manager) Retrieve(ctx context.Context, setID string, queryEmbedding []float64, queryConcepts []string, excludeLastN, topK int) ([]*types.MemoryRecord, error) {
	ctx, span := m.tracer.Start(ctx, "memory.retrieve",
		trace.WithAttributes(
			attribute.String("memory.set_id", setID),
			attribute.Int("memory.top_k", topK)))
	defer span.End()

	store, err := m.Set(ctx, setID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := store.Retrieve(queryEmbedding, queryConcepts, excludeLastN, topK)
	if m.metrics != nil && err == nil {
		m.metrics.RecordRetrieval(setID, time.Since(start))
	}
	return records, err
}

// Recent returns the n most recent interactions of a set in insertion order.
func (m *Manager) Recent(ctx context.Context, setID string, n int) ([]*types.MemoryRecord, error) {
	store, err := m.Set(ctx, setID)
	if err != nil {
		return nil, err
	}
	return store.Recent(n), nil
}

// Snapshot returns a deep copy of a set's tiered state.
func (m *Manager) Snapshot(ctx context.Context, setID string) (*types.MemorySnapshot, error) {
	store, err := m.Set(ctx, setID)
	if err != nil {
		return nil, err
	}
	return store.Snapshot(), nil
}

// SaveSet hands a set's snapshot to the persistence gateway.
func (m *Manager) SaveSet(ctx context.Context, setID string) error {
	ctx, span := m.tracer.Start(ctx, "memory.save_set",
		trace.WithAttributes(attribute.String("memory.set_id", setID)))
	defer span.End()

	store, err := m.Set(ctx, setID)
	if err != nil {
		return err
	}
	snap := store.Snapshot()
	err = m.gateway.Save(ctx, setID, snap.ShortTerm, snap.LongTerm)
	if m.metrics != nil {
		m.metrics.RecordPersistenceOp("save", err)
	}
	if err != nil {
		return types.NewErrorf(types.ErrCodePersistence, "save set %q", setID).WithCause(err)
	}
	return nil
}

// SaveAll persists every loaded set, in parallel across sets.
func (m *Manager) SaveAll(ctx context.Context) error {
	m.mu.Lock()
	setIDs := make([]string, 0, len(m.sets))
	for setID := range m.sets {
		setIDs = append(setIDs, setID)
	}
	m.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, setID := range setIDs {
		g.Go(func() error {
			return m.SaveSet(ctx, setID)
		})
	}
	return g.Wait()
}

// Close persists every loaded set and closes the gateway.
func (m *Manager) Close(ctx context.Context) error {
	if err := m.SaveAll(ctx); err != nil {
		return err
	}
	return m.gateway.Close()
}
