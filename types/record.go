// Package types provides unified type definitions for the memoripy memory engine.
package types

import (
	"math"
	"time"
)

// MemoryRecord represents a single remembered interaction. The same shape is
// shared by both memory tiers; TotalScore is only meaningful once a record has
// been promoted to long-term storage.
//
// Prompt, Output, Embedding, Concepts and Timestamp are immutable after
// creation. AccessCount, DecayFactor and TotalScore are mutated exclusively
// through the narrow update methods below so that the decay invariant
// (recomputable from stored fields alone) always holds.
type MemoryRecord struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	Output      string    `json:"output"`
	Embedding   []float64 `json:"embedding,omitempty"`
	Concepts    []string  `json:"concepts,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	AccessCount int       `json:"access_count"`
	DecayFactor float64   `json:"decay_factor"`
	TotalScore  float64   `json:"total_score,omitempty"`
}

// DecayAt computes the decay factor the record would carry at the given time,
// as a pure function of elapsed time since creation and the number of accesses
// so far: exp(-decayRate * elapsedSeconds) * reinforcement^accessCount, capped
// at 1.0. It does not mutate the record.
func (r *MemoryRecord) DecayAt(now time.Time, decayRate, reinforcement float64) float64 {
	elapsed := now.Sub(r.Timestamp).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	decay := math.Exp(-decayRate * elapsed)
	if reinforcement > 1 && r.AccessCount > 0 {
		decay *= math.Pow(reinforcement, float64(r.AccessCount))
	}
	if decay > 1.0 {
		return 1.0
	}
	return decay
}

// ApplyDecay refreshes the stored decay factor from the pure computation in
// DecayAt.
func (r *MemoryRecord) ApplyDecay(now time.Time, decayRate, reinforcement float64) {
	r.DecayFactor = r.DecayAt(now, decayRate, reinforcement)
}

// BumpAccess records one retrieval hit. The caller is expected to follow up
// with ApplyDecay so the reinforcement is reflected in the stored factor.
func (r *MemoryRecord) BumpAccess() {
	r.AccessCount++
}

// Clone returns a deep copy of the record.
func (r *MemoryRecord) Clone() *MemoryRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Embedding != nil {
		out.Embedding = append([]float64(nil), r.Embedding...)
	}
	if r.Concepts != nil {
		out.Concepts = append([]string(nil), r.Concepts...)
	}
	return &out
}

// CloneRecords deep-copies a slice of records.
func CloneRecords(records []*MemoryRecord) []*MemoryRecord {
	if records == nil {
		return nil
	}
	out := make([]*MemoryRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// MemorySnapshot is a point-in-time copy of one memory set's tiered state,
// used for persistence hand-off.
type MemorySnapshot struct {
	SetID     string          `json:"set_id"`
	ShortTerm []*MemoryRecord `json:"short_term"`
	LongTerm  []*MemoryRecord `json:"long_term"`
}
