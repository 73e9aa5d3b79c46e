package memory

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

// RetrievalEngine ranks records across both tiers against a query and
// returns the top-K most relevant ones. Returned records have their access
// count bumped and decay factor refreshed; that is the only mutation path
// for accessed records besides promotion.
type RetrievalEngine struct {
	scoring *ScoringEngine
	logger  *zap.Logger
}

// NewRetrievalEngine creates a retrieval engine bound to a scoring engine.
func NewRetrievalEngine(scoring *ScoringEngine, logger *zap.Logger) *RetrievalEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrievalEngine{
		scoring: scoring,
		logger:  logger.With(zap.String("component", "retrieval_engine")),
	}
}

type rankedRecord struct {
	record    *types.MemoryRecord
	score     float64
	shortTier bool
	seq       int
}

// Retrieve scores every record outside the exclusion window and returns deep
// copies of the topK best matches, ordered by non-increasing score. The
// excludeLastN most recent short-term records are never scored or returned
// but stay in their tier. An empty store yields an empty result, never an
// error; records whose embeddings cannot be scored against the query are
// rejected from this pass. The caller holds the partition lock.
func (e *RetrievalEngine) Retrieve(now time.Time, short *ShortTermStore, long *LongTermStore, queryEmbedding []float64, queryConcepts []string, excludeLastN, topK int) ([]*types.MemoryRecord, error) {
	if len(queryEmbedding) == 0 {
		return nil, types.NewError(types.ErrCodeScoreComputation, "query embedding is empty")
	}
	if topK <= 0 {
		return []*types.MemoryRecord{}, nil
	}

	excluded := make(map[string]struct{}, excludeLastN)
	for _, rec := range short.Slice(excludeLastN) {
		excluded[rec.ID] = struct{}{}
	}

	var ranked []rankedRecord
	seq := 0
	collect := func(rec *types.MemoryRecord, tierMax int, shortTier bool) {
		defer func() { seq++ }()
		if _, skip := excluded[rec.ID]; skip {
			return
		}
		score, err := e.scoring.Score(rec, queryEmbedding, queryConcepts, tierMax, now)
		if err != nil {
			e.logger.Warn("record rejected from retrieval",
				zap.String("id", rec.ID), zap.Error(err))
			return
		}
		ranked = append(ranked, rankedRecord{record: rec, score: score, shortTier: shortTier, seq: seq})
	}

	shortMax := short.MaxAccessCount()
	for _, rec := range short.Records() {
		collect(rec, shortMax, true)
	}
	longMax := long.MaxAccessCount()
	long.All(func(rec *types.MemoryRecord) bool {
		collect(rec, longMax, false)
		return true
	})

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].record.AccessCount != ranked[j].record.AccessCount {
			return ranked[i].record.AccessCount > ranked[j].record.AccessCount
		}
		if ranked[i].shortTier != ranked[j].shortTier {
			return ranked[i].shortTier
		}
		if !ranked[i].record.Timestamp.Equal(ranked[j].record.Timestamp) {
			return ranked[i].record.Timestamp.Before(ranked[j].record.Timestamp)
		}
		return ranked[i].seq < ranked[j].seq
	})

	if topK > len(ranked) {
		topK = len(ranked)
	}

	decayRate := e.scoring.DecayRate()
	reinforcement := e.scoring.Config().Reinforcement
	out := make([]*types.MemoryRecord, 0, topK)
	for _, hit := range ranked[:topK] {
		rec := hit.record
		rec.BumpAccess()
		rec.ApplyDecay(now, decayRate, reinforcement)
		if !hit.shortTier {
			// Retention score tracks the new access immediately.
			if total, err := e.scoring.SelfScore(rec, long.MaxAccessCount(), now); err == nil {
				rec.TotalScore = total
			}
		}
		out = append(out, rec.Clone())
	}
	return out, nil
}
