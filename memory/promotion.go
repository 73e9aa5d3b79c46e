package memory

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

// PromotionPolicy moves records between tiers once the short-term store
// exceeds its capacity. Every fresh record gets a query-independent
// retention score (ScoringEngine.SelfScore); the lowest-scoring records
// beyond capacity are promoted to long-term storage if they clear the
// promotion threshold and discarded otherwise. Ties on equal scores evict
// the older timestamp first so the outcome is deterministic.
type PromotionPolicy struct {
	scoring *ScoringEngine
	logger  *zap.Logger
}

// PromotionResult reports the outcome of one promotion pass.
type PromotionResult struct {
	Timestamp time.Time `json:"timestamp"`
	Evaluated int       `json:"evaluated"`
	Promoted  []string  `json:"promoted,omitempty"`
	Discarded []string  `json:"discarded,omitempty"`
}

// NewPromotionPolicy creates a promotion policy bound to a scoring engine.
func NewPromotionPolicy(scoring *ScoringEngine, logger *zap.Logger) *PromotionPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromotionPolicy{
		scoring: scoring,
		logger:  logger.With(zap.String("component", "promotion_policy")),
	}
}

// Evaluate runs one promotion pass. The caller holds the partition lock, so
// the remove-then-upsert of each candidate commits as a unit: no record is
// ever observable in zero or two tiers.
func (p *PromotionPolicy) Evaluate(now time.Time, short *ShortTermStore, long *LongTermStore) (PromotionResult, error) {
	result := PromotionResult{Timestamp: now, Evaluated: short.Len()}
	if !short.Overflowing() {
		return result, nil
	}

	type scored struct {
		record *types.MemoryRecord
		score  float64
	}

	tierMax := short.MaxAccessCount()
	fresh := short.Records()
	candidates := make([]scored, 0, len(fresh))
	for _, rec := range fresh {
		score, err := p.scoring.SelfScore(rec, tierMax, now)
		if err != nil {
			return result, err
		}
		candidates = append(candidates, scored{record: rec, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].record.Timestamp.Before(candidates[j].record.Timestamp)
	})

	overflow := short.Len() - short.Capacity()
	threshold := p.scoring.Config().PromotionThreshold
	for i := 0; i < overflow && i < len(candidates); i++ {
		rec := candidates[i].record
		if candidates[i].score >= threshold {
			rec.TotalScore = candidates[i].score
			long.Upsert(rec)
			short.Remove(rec.ID)
			result.Promoted = append(result.Promoted, rec.ID)
		} else {
			short.Remove(rec.ID)
			result.Discarded = append(result.Discarded, rec.ID)
		}
	}

	if len(result.Promoted) > 0 || len(result.Discarded) > 0 {
		p.logger.Debug("promotion pass completed",
			zap.Int("evaluated", result.Evaluated),
			zap.Int("promoted", len(result.Promoted)),
			zap.Int("discarded", len(result.Discarded)))
	}
	return result, nil
}
