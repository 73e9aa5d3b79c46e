package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

// FileGateway persists one JSON snapshot file per memory set. Suitable for
// single-node deployments. Writes are atomic: snapshot goes to a temp file
// first, then renames over the previous one.
type FileGateway struct {
	baseDir string
	mu      sync.Mutex
	closed  bool
	logger  *zap.Logger
}

// NewFileGateway creates a file-based gateway rooted at config.BaseDir.
func NewFileGateway(config Config, logger *zap.Logger) (*FileGateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseDir := filepath.Join(config.BaseDir, "sets")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileGateway{
		baseDir: baseDir,
		logger:  logger.With(zap.String("gateway", "file")),
	}, nil
}

func (g *FileGateway) snapshotPath(setID string) string {
	// Set ids are opaque keys; escape path separators so they cannot leave
	// the snapshot directory.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(setID)
	return filepath.Join(g.baseDir, safe+".json")
}

// Load restores the tiered state of one memory set. A missing snapshot file
// returns two empty sequences.
func (g *FileGateway) Load(ctx context.Context, setID string) ([]*types.MemoryRecord, []*types.MemoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if setID == "" {
		return nil, nil, ErrInvalidInput
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, nil, ErrStoreClosed
	}

	data, err := os.ReadFile(g.snapshotPath(setID))
	if os.IsNotExist(err) {
		return []*types.MemoryRecord{}, []*types.MemoryRecord{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap types.MemorySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap.ShortTerm, snap.LongTerm, nil
}

// Save persists the tiered state of one memory set.
func (g *FileGateway) Save(ctx context.Context, setID string, short, long []*types.MemoryRecord) error {
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

	snap := types.MemorySnapshot{SetID: setID, ShortTerm: short, LongTerm: long}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	path := g.snapshotPath(setID)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return os.Rename(tempPath, path)
}

// Ping checks if the gateway is healthy.
func (g *FileGateway) Ping(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrStoreClosed
	}
	_, err := os.Stat(g.baseDir)
	return err
}

// Close marks the gateway closed.
func (g *FileGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}
