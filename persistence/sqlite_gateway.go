package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ethanturk-incycle/memoripy/types"
)

// memoryRecordRow is the relational shape of a persisted record. Embedding
// and concepts are stored as JSON blobs; they are opaque to SQL queries.
type memoryRecordRow struct {
	SetID       string    `gorm:"column:set_id;primaryKey"`
	RecordID    string    `gorm:"column:record_id;primaryKey"`
	Tier        string    `gorm:"column:tier;index"`
	Seq         int       `gorm:"column:seq"`
	Prompt      string    `gorm:"column:prompt"`
	Output      string    `gorm:"column:output"`
	Embedding   []byte    `gorm:"column:embedding"`
	Concepts    []byte    `gorm:"column:concepts"`
	Timestamp   time.Time `gorm:"column:timestamp"`
	AccessCount int       `gorm:"column:access_count"`
	DecayFactor float64   `gorm:"column:decay_factor"`
	TotalScore  float64   `gorm:"column:total_score"`
}

func (memoryRecordRow) TableName() string {
	return "memory_records"
}

// SQLiteGateway persists snapshots in an embedded SQLite database via GORM.
// Suitable for single-node deployments that want queryable history.
type SQLiteGateway struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLiteGateway opens (or creates) the database at config.Path and
// migrates the schema.
func NewSQLiteGateway(config Config, logger *zap.Logger) (*SQLiteGateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(config.Path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.AutoMigrate(&memoryRecordRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &SQLiteGateway{
		db:     db,
		logger: logger.With(zap.String("gateway", "sqlite")),
	}, nil
}

// Load restores the tiered state of one memory set. A set with no rows
// returns two empty sequences.
func (g *SQLiteGateway) Load(ctx context.Context, setID string) ([]*types.MemoryRecord, []*types.MemoryRecord, error) {
	if setID == "" {
		return nil, nil, ErrInvalidInput
	}

	var rows []memoryRecordRow
	err := g.db.WithContext(ctx).
		Where("set_id = ?", setID).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query set %s: %w", setID, err)
	}

	short := []*types.MemoryRecord{}
	long := []*types.MemoryRecord{}
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, nil, err
		}
		switch row.Tier {
		case tierShortTerm:
			short = append(short, rec)
		case tierLongTerm:
			long = append(long, rec)
		}
	}
	return short, long, nil
}

// Save persists the tiered state of one memory set, replacing any previous
// rows for that set in a single transaction.
func (g *SQLiteGateway) Save(ctx context.Context, setID string, short, long []*types.MemoryRecord) error {
	if setID == "" {
		return ErrInvalidInput
	}

	rows := make([]memoryRecordRow, 0, len(short)+len(long))
	seq := 0
	for _, rec := range short {
		row, err := newMemoryRecordRow(setID, tierShortTerm, seq, rec)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		seq++
	}
	for _, rec := range long {
		row, err := newMemoryRecordRow(setID, tierLongTerm, seq, rec)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		seq++
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("set_id = ?", setID).Delete(&memoryRecordRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear set %s: %w", setID, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save set %s: %w", setID, err)
		}
		return nil
	})
}

func newMemoryRecordRow(setID, tier string, seq int, rec *types.MemoryRecord) (memoryRecordRow, error) {
	embedding, err := json.Marshal(rec.Embedding)
	if err != nil {
		return memoryRecordRow{}, fmt.Errorf("failed to encode embedding: %w", err)
	}
	concepts, err := json.Marshal(rec.Concepts)
	if err != nil {
		return memoryRecordRow{}, fmt.Errorf("failed to encode concepts: %w", err)
	}
	return memoryRecordRow{
		SetID:       setID,
		RecordID:    rec.ID,
		Tier:        tier,
		Seq:         seq,
		Prompt:      rec.Prompt,
		Output:      rec.Output,
		Embedding:   embedding,
		Concepts:    concepts,
		Timestamp:   rec.Timestamp,
		AccessCount: rec.AccessCount,
		DecayFactor: rec.DecayFactor,
		TotalScore:  rec.TotalScore,
	}, nil
}

func (row memoryRecordRow) toRecord() (*types.MemoryRecord, error) {
	var embedding []float64
	if len(row.Embedding) > 0 {
		if err := json.Unmarshal(row.Embedding, &embedding); err != nil {
			return nil, fmt.Errorf("failed to decode embedding for %s: %w", row.RecordID, err)
		}
	}
	var concepts []string
	if len(row.Concepts) > 0 {
		if err := json.Unmarshal(row.Concepts, &concepts); err != nil {
			return nil, fmt.Errorf("failed to decode concepts for %s: %w", row.RecordID, err)
		}
	}
	decay := row.DecayFactor
	if decay == 0 {
		decay = 1.0
	}
	return &types.MemoryRecord{
		ID:          row.RecordID,
		Prompt:      row.Prompt,
		Output:      row.Output,
		Embedding:   embedding,
		Concepts:    concepts,
		Timestamp:   row.Timestamp,
		AccessCount: row.AccessCount,
		DecayFactor: decay,
		TotalScore:  row.TotalScore,
	}, nil
}

// Ping checks if the gateway is healthy.
func (g *SQLiteGateway) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database.
func (g *SQLiteGateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
