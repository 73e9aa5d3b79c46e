package persistence

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

// MemoryGateway keeps snapshots in process memory. It is used for local
// development, testing, and callers that only want the tiered engine without
// durability.
type MemoryGateway struct {
	mu        sync.RWMutex
	snapshots map[string]*types.MemorySnapshot
	closed    bool
	logger    *zap.Logger
}

// NewMemoryGateway creates an in-process gateway.
func NewMemoryGateway(logger *zap.Logger) *MemoryGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryGateway{
		snapshots: make(map[string]*types.MemorySnapshot),
		logger:    logger.With(zap.String("gateway", "memory")),
	}
}

// Load restores the tiered state of one memory set. Unknown sets return two
// empty sequences.
func (g *MemoryGateway) Load(ctx context.Context, setID string) ([]*types.MemoryRecord, []*types.MemoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if setID == "" {
		return nil, nil, ErrInvalidInput
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return nil, nil, ErrStoreClosed
	}
	snap, ok := g.snapshots[setID]
	if !ok {
		return []*types.MemoryRecord{}, []*types.MemoryRecord{}, nil
	}
	return types.CloneRecords(snap.ShortTerm), types.CloneRecords(snap.LongTerm), nil
}

// Save persists the tiered state of one memory set.
func (g *MemoryGateway) Save(ctx context.Context, setID string, short, long []*types.MemoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if setID == "" {
		return ErrInvalidInput
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrStoreClosed
	}
	g.snapshots[setID] = &types.MemorySnapshot{
		SetID:     setID,
		ShortTerm: types.CloneRecords(short),
		LongTerm:  types.CloneRecords(long),
	}
	return nil
}

// Ping checks if the gateway is healthy.
func (g *MemoryGateway) Ping(ctx context.Context) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the gateway closed.
func (g *MemoryGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}
