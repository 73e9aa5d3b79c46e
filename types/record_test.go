package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecord_DecayAt(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	decayRate := math.Ln2 / (24 * time.Hour).Seconds()

	rec := &MemoryRecord{ID: "r1", Timestamp: created, DecayFactor: 1.0}

	// Fresh record carries full weight.
	assert.InDelta(t, 1.0, rec.DecayAt(created, decayRate, 1.1), 1e-9)

	// One half-life later the factor halves.
	assert.InDelta(t, 0.5, rec.DecayAt(created.Add(24*time.Hour), decayRate, 1.1), 1e-9)

	// Clock skew before creation never inflates the factor.
	assert.InDelta(t, 1.0, rec.DecayAt(created.Add(-time.Hour), decayRate, 1.1), 1e-9)
}

func TestMemoryRecord_DecayReinforcement(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(24 * time.Hour)
	decayRate := math.Ln2 / (24 * time.Hour).Seconds()

	rec := &MemoryRecord{ID: "r1", Timestamp: created, DecayFactor: 1.0}
	before := rec.DecayAt(now, decayRate, 1.1)

	rec.BumpAccess()
	after := rec.DecayAt(now, decayRate, 1.1)
	assert.Greater(t, after, before)
	assert.InDelta(t, before*1.1, after, 1e-9)

	// Many accesses cap at 1.0 rather than growing without bound.
	for i := 0; i < 100; i++ {
		rec.BumpAccess()
	}
	assert.Equal(t, 1.0, rec.DecayAt(now, decayRate, 1.1))
}

func TestMemoryRecord_ApplyDecay(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	decayRate := math.Ln2 / (24 * time.Hour).Seconds()

	rec := &MemoryRecord{ID: "r1", Timestamp: created, DecayFactor: 1.0}
	rec.ApplyDecay(created.Add(48*time.Hour), decayRate, 1.1)
	assert.InDelta(t, 0.25, rec.DecayFactor, 1e-9)
}

func TestMemoryRecord_Clone(t *testing.T) {
	t.Parallel()

	rec := &MemoryRecord{
		ID:          "r1",
		Prompt:      "hello",
		Output:      "world",
		Embedding:   []float64{0.1, 0.2},
		Concepts:    []string{"greeting"},
		Timestamp:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		AccessCount: 3,
		DecayFactor: 0.8,
	}

	clone := rec.Clone()
	require.Equal(t, rec, clone)

	clone.Embedding[0] = 99
	clone.Concepts[0] = "changed"
	assert.Equal(t, 0.1, rec.Embedding[0])
	assert.Equal(t, "greeting", rec.Concepts[0])

	var nilRec *MemoryRecord
	assert.Nil(t, nilRec.Clone())
}
