package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanturk-incycle/memoripy/internal/metrics"
	"github.com/ethanturk-incycle/memoripy/persistence"
	"github.com/ethanturk-incycle/memoripy/types"
)

type stubEmbedder struct {
	vector []float64
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return s.vector, s.err
}

type stubExtractor struct {
	concepts []string
}

func (s *stubExtractor) ExtractConcepts(ctx context.Context, text string) ([]string, error) {
	return s.concepts, nil
}

type failingGateway struct {
	loadErr error
	saveErr error
}

func (g *failingGateway) Load(ctx context.Context, setID string) ([]*types.MemoryRecord, []*types.MemoryRecord, error) {
	return nil, nil, g.loadErr
}

func (g *failingGateway) Save(ctx context.Context, setID string, short, long []*types.MemoryRecord) error {
	return g.saveErr
}

func (g *failingGateway) Ping(ctx context.Context) error { return nil }
func (g *failingGateway) Close() error                   { return nil }

func newTestManager(t *testing.T, gateway persistence.Gateway, opts ...ManagerOption) *Manager {
	t.Helper()
	config := DefaultConfig()
	config.ShortTermCapacity = 4
	config.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return NewManager(config, gateway, nil, opts...)
}

func TestManager_SetIsLazyAndCached(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, nil)
	ctx := context.Background()

	first, err := m.Set(ctx, "alice")
	require.NoError(t, err)
	second, err := m.Set(ctx, "alice")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := m.Set(ctx, "bob")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestManager_SaveAndReloadRoundTrip(t *testing.T) {
	t.Parallel()

	gateway := persistence.NewMemoryGateway(nil)
	ctx := context.Background()

	m := newTestManager(t, gateway)
	_, err := m.AddInteraction(ctx, "alice", "hello", "hi there", []float64{1, 0}, []string{"greeting"})
	require.NoError(t, err)
	require.NoError(t, m.SaveSet(ctx, "alice"))

	// A fresh manager over the same gateway restores the persisted state.
	reloaded := newTestManager(t, gateway)
	snap, err := reloaded.Snapshot(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, snap.ShortTerm, 1)
	assert.Equal(t, "hello", snap.ShortTerm[0].Prompt)
	assert.Empty(t, snap.LongTerm)
}

func TestManager_RecordUsesWiredCollaborators(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, nil,
		WithEmbedder(&stubEmbedder{vector: []float64{0.5, 0.5}}),
		WithConceptExtractor(&stubExtractor{concepts: []string{"weather"}}),
	)

	_, err := m.Record(ctx, "alice", "how is the weather", "sunny")
	require.NoError(t, err)

	recent, err := m.Recent(ctx, "alice", 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, []float64{0.5, 0.5}, recent[0].Embedding)
	assert.Equal(t, []string{"weather"}, recent[0].Concepts)
}

func TestManager_RecordRequiresEmbedder(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, nil)
	_, err := m.Record(context.Background(), "alice", "p", "o")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeInvalidConfig))
}

func TestManager_RecordPropagatesEmbedderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("embedding service down")
	m := newTestManager(t, nil, WithEmbedder(&stubEmbedder{err: boom}))
	_, err := m.Record(context.Background(), "alice", "p", "o")
	require.ErrorIs(t, err, boom)
}

func TestManager_GatewayFailuresWrapped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("load", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t, &failingGateway{loadErr: errors.New("backend unreachable")})
		_, err := m.Set(ctx, "alice")
		require.Error(t, err)
		assert.True(t, types.IsCode(err, types.ErrCodePersistence))
	})

	t.Run("save", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t, &failingGateway{saveErr: errors.New("disk full")})
		err := m.SaveSet(ctx, "alice")
		require.Error(t, err)
		assert.True(t, types.IsCode(err, types.ErrCodePersistence))
	})
}

func TestManager_RetrieveAcrossSetsIsIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, nil)

	_, err := m.AddInteraction(ctx, "alice", "alice topic", "out", []float64{1, 0}, nil)
	require.NoError(t, err)
	_, err = m.AddInteraction(ctx, "bob", "bob topic", "out", []float64{1, 0}, nil)
	require.NoError(t, err)

	results, err := m.Retrieve(ctx, "alice", []float64{1, 0}, nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alice topic", results[0].Prompt)
}

func TestManager_SaveAllAndClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := persistence.NewMemoryGateway(nil)
	m := newTestManager(t, gateway)

	_, err := m.AddInteraction(ctx, "alice", "pa", "oa", []float64{1, 0}, nil)
	require.NoError(t, err)
	_, err = m.AddInteraction(ctx, "bob", "pb", "ob", []float64{0, 1}, nil)
	require.NoError(t, err)

	require.NoError(t, m.Close(ctx))

	// The gateway retained both sets; the close also closed it.
	short, _, err := gateway.Load(ctx, "alice")
	require.ErrorIs(t, err, persistence.ErrStoreClosed)
	assert.Nil(t, short)
}

func TestManager_Metrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := newTestManager(t, nil, WithMetrics(metrics.NewCollector("memoripy", reg, nil)))

	_, err := m.AddInteraction(ctx, "alice", "p", "o", []float64{1, 0}, nil)
	require.NoError(t, err)
	_, err = m.Retrieve(ctx, "alice", []float64{1, 0}, nil, 0, 1)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["memoripy_interactions_total"])
	assert.True(t, names["memoripy_retrievals_total"])
	assert.True(t, names["memoripy_records"])
}
