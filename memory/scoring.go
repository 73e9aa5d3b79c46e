package memory

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

// ScoringConfig configures the relevance scoring engine.
type ScoringConfig struct {
	// SimilarityWeight is the weight for semantic similarity (0-1).
	SimilarityWeight float64 `json:"similarity_weight" yaml:"similarity_weight"`

	// ConceptWeight is the weight for concept overlap (0-1).
	ConceptWeight float64 `json:"concept_weight" yaml:"concept_weight"`

	// RecencyWeight is the weight for the recency decay factor (0-1).
	RecencyWeight float64 `json:"recency_weight" yaml:"recency_weight"`

	// FrequencyWeight is the weight for normalized access frequency (0-1).
	FrequencyWeight float64 `json:"frequency_weight" yaml:"frequency_weight"`

	// HalfLife is the time for the decay factor to halve.
	HalfLife time.Duration `json:"half_life" yaml:"half_life"`

	// Reinforcement multiplies the decay factor on every access (> 1,
	// capped at 1.0) to model memory reinforcement.
	Reinforcement float64 `json:"reinforcement" yaml:"reinforcement"`

	// PromotionThreshold is the minimum retention score an evicted
	// short-term record needs to be promoted to long-term storage.
	PromotionThreshold float64 `json:"promotion_threshold" yaml:"promotion_threshold"`
}

// DefaultScoringConfig returns sensible defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		SimilarityWeight:   0.40,
		ConceptWeight:      0.20,
		RecencyWeight:      0.25,
		FrequencyWeight:    0.15,
		HalfLife:           24 * time.Hour,
		Reinforcement:      1.1,
		PromotionThreshold: 0.35,
	}
}

// ScoringEngine computes relevance and retention scores for memory records.
// It is pure: scoring never mutates a record. Access bumps and decay
// refreshes happen in the retrieval and promotion paths that call it.
type ScoringEngine struct {
	config    ScoringConfig
	decayRate float64
	logger    *zap.Logger
}

// NewScoringEngine creates a scoring engine. Weights are normalized so the
// resulting score always lands in [0, 1].
func NewScoringEngine(config ScoringConfig, logger *zap.Logger) *ScoringEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	total := config.SimilarityWeight + config.ConceptWeight +
		config.RecencyWeight + config.FrequencyWeight
	if total > 0 {
		config.SimilarityWeight /= total
		config.ConceptWeight /= total
		config.RecencyWeight /= total
		config.FrequencyWeight /= total
	}
	if config.HalfLife <= 0 {
		config.HalfLife = DefaultScoringConfig().HalfLife
	}
	if config.Reinforcement < 1 {
		config.Reinforcement = 1
	}
	return &ScoringEngine{
		config:    config,
		decayRate: math.Ln2 / config.HalfLife.Seconds(),
		logger:    logger.With(zap.String("component", "scoring_engine")),
	}
}

// Config returns the normalized configuration in effect.
func (e *ScoringEngine) Config() ScoringConfig {
	return e.config
}

// DecayRate returns the exponential decay rate derived from the half-life.
func (e *ScoringEngine) DecayRate() float64 {
	return e.decayRate
}

// Score computes the relevance of a record against a query at the given time.
// tierMaxAccess is the highest access count currently observed in the
// record's tier and normalizes the frequency sub-score (0 when the tier
// carries no accesses yet).
func (e *ScoringEngine) Score(record *types.MemoryRecord, queryEmbedding []float64, queryConcepts []string, tierMaxAccess int, now time.Time) (float64, error) {
	if err := validateEmbedding(record); err != nil {
		return 0, err
	}
	if len(queryEmbedding) == 0 {
		return 0, types.NewError(types.ErrCodeScoreComputation, "query embedding is empty")
	}
	if len(queryEmbedding) != len(record.Embedding) {
		return 0, types.NewErrorf(types.ErrCodeScoreComputation,
			"embedding dimension mismatch: record %d, query %d", len(record.Embedding), len(queryEmbedding))
	}

	similarity := cosineSimilarity(record.Embedding, queryEmbedding)
	if similarity < 0 {
		similarity = 0
	}
	overlap := conceptOverlap(record.Concepts, queryConcepts)

	return e.combine(record, similarity, overlap, tierMaxAccess, now), nil
}

// SelfScore computes a query-independent retention score: the record matched
// against its own embedding and concepts, so only recency and access
// frequency differentiate records. The promotion policy uses it as the
// record's total_score.
func (e *ScoringEngine) SelfScore(record *types.MemoryRecord, tierMaxAccess int, now time.Time) (float64, error) {
	if err := validateEmbedding(record); err != nil {
		return 0, err
	}
	return e.combine(record, 1.0, 1.0, tierMaxAccess, now), nil
}

func (e *ScoringEngine) combine(record *types.MemoryRecord, similarity, overlap float64, tierMaxAccess int, now time.Time) float64 {
	recency := record.DecayAt(now, e.decayRate, e.config.Reinforcement)

	frequency := 0.0
	if tierMaxAccess > 0 {
		frequency = float64(record.AccessCount) / float64(tierMaxAccess)
	}

	score := e.config.SimilarityWeight*similarity +
		e.config.ConceptWeight*overlap +
		e.config.RecencyWeight*recency +
		e.config.FrequencyWeight*frequency

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func validateEmbedding(record *types.MemoryRecord) error {
	if len(record.Embedding) == 0 {
		return types.NewErrorf(types.ErrCodeScoreComputation, "record %s has an empty embedding", record.ID)
	}
	return nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// conceptOverlap is the Jaccard index of the two concept sets: intersection
// over union, 0 when either set is empty.
func conceptOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	union := make(map[string]struct{}, len(a)+len(b))
	inA := make(map[string]struct{}, len(a))
	for _, c := range a {
		union[c] = struct{}{}
		inA[c] = struct{}{}
	}
	intersection := 0
	seen := make(map[string]struct{}, len(b))
	for _, c := range b {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		union[c] = struct{}{}
		if _, ok := inA[c]; ok {
			intersection++
		}
	}

	return float64(intersection) / float64(len(union))
}
