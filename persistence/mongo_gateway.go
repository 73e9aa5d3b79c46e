package persistence

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

const (
	tierShortTerm = "short_term"
	tierLongTerm  = "long_term"
)

// mongoRecord is the document shape: one document per record, partitioned by
// set_id with a tier discriminator.
type mongoRecord struct {
	DocID       string    `bson:"_id"`
	SetID       string    `bson:"set_id"`
	Tier        string    `bson:"type"`
	Seq         int       `bson:"seq"`
	RecordID    string    `bson:"record_id"`
	Prompt      string    `bson:"prompt"`
	Output      string    `bson:"output"`
	Embedding   []float64 `bson:"embedding,omitempty"`
	Concepts    []string  `bson:"concepts,omitempty"`
	Timestamp   time.Time `bson:"timestamp"`
	AccessCount int       `bson:"access_count"`
	DecayFactor float64   `bson:"decay_factor"`
	TotalScore  float64   `bson:"total_score,omitempty"`
}

// MongoGateway persists one document per record in a MongoDB (or compatible
// document store) collection, partitioned by set_id. Save replaces the whole
// set so records evicted from memory disappear from the backend too.
type MongoGateway struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	logger     *zap.Logger
}

// NewMongoGateway creates a Mongo-backed gateway and verifies connectivity.
func NewMongoGateway(config Config, logger *zap.Logger) (*MongoGateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := config.Mongo.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(config.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to create Mongo client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to Mongo: %w", err)
	}

	return &MongoGateway{
		client:     client,
		collection: client.Database(config.Mongo.Database).Collection(config.Mongo.Collection),
		timeout:    timeout,
		logger:     logger.With(zap.String("gateway", "mongo")),
	}, nil
}

// Load restores the tiered state of one memory set. A set with no documents
// returns two empty sequences.
func (g *MongoGateway) Load(ctx context.Context, setID string) ([]*types.MemoryRecord, []*types.MemoryRecord, error) {
	if setID == "" {
		return nil, nil, ErrInvalidInput
	}

	cursor, err := g.collection.Find(ctx, bson.M{"set_id": setID},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query set %s: %w", setID, err)
	}
	var docs []mongoRecord
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, nil, fmt.Errorf("failed to decode set %s: %w", setID, err)
	}

	short := []*types.MemoryRecord{}
	long := []*types.MemoryRecord{}
	for _, doc := range docs {
		decay := doc.DecayFactor
		if decay == 0 {
			decay = 1.0
		}
		rec := &types.MemoryRecord{
			ID:          doc.RecordID,
			Prompt:      doc.Prompt,
			Output:      doc.Output,
			Embedding:   doc.Embedding,
			Concepts:    doc.Concepts,
			Timestamp:   doc.Timestamp,
			AccessCount: doc.AccessCount,
			DecayFactor: decay,
			TotalScore:  doc.TotalScore,
		}
		switch doc.Tier {
		case tierShortTerm:
			short = append(short, rec)
		case tierLongTerm:
			long = append(long, rec)
		}
	}
	return short, long, nil
}

// Save persists the tiered state of one memory set, replacing any previous
// documents for that set.
func (g *MongoGateway) Save(ctx context.Context, setID string, short, long []*types.MemoryRecord) error {
	if setID == "" {
		return ErrInvalidInput
	}

	docs := make([]any, 0, len(short)+len(long))
	seq := 0
	for _, rec := range short {
		docs = append(docs, newMongoRecord(setID, tierShortTerm, seq, rec))
		seq++
	}
	for _, rec := range long {
		docs = append(docs, newMongoRecord(setID, tierLongTerm, seq, rec))
		seq++
	}

	if _, err := g.collection.DeleteMany(ctx, bson.M{"set_id": setID}); err != nil {
		return fmt.Errorf("failed to clear set %s: %w", setID, err)
	}
	if len(docs) == 0 {
		return nil
	}
	if _, err := g.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to save set %s: %w", setID, err)
	}
	return nil
}

func newMongoRecord(setID, tier string, seq int, rec *types.MemoryRecord) mongoRecord {
	return mongoRecord{
		DocID:       setID + "/" + rec.ID,
		SetID:       setID,
		Tier:        tier,
		Seq:         seq,
		RecordID:    rec.ID,
		Prompt:      rec.Prompt,
		Output:      rec.Output,
		Embedding:   rec.Embedding,
		Concepts:    rec.Concepts,
		Timestamp:   rec.Timestamp,
		AccessCount: rec.AccessCount,
		DecayFactor: rec.DecayFactor,
		TotalScore:  rec.TotalScore,
	}
}

// Ping checks if the gateway is healthy.
func (g *MongoGateway) Ping(ctx context.Context) error {
	return g.client.Ping(ctx, nil)
}

// Close disconnects the Mongo client.
func (g *MongoGateway) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()
	return g.client.Disconnect(ctx)
}
